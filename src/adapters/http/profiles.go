package http

import (
	"net/http"
	"time"

	"botstore/src/domain"
)

func (s *Server) GetPlayer(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	player, err := s.database.GetPlayer(r.Context(), userID)
	if err != nil {
		s.logger.Error("Failed to get player", "user", userID, "error", err)
		http.Error(w, domain.ErrUnavailableServer.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, MapPlayerToResponse(player, time.Now()))
}

func (s *Server) GetGuild(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("id")
	if guildID == "" {
		http.Error(w, "Guild ID is required", http.StatusBadRequest)
		return
	}

	guild, err := s.database.GetGuildData(r.Context(), guildID)
	if err != nil {
		s.logger.Error("Failed to get guild", "guild", guildID, "error", err)
		http.Error(w, domain.ErrUnavailableServer.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, MapGuildToResponse(guild))
}
