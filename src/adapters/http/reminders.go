package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"botstore/src/domain"
	"botstore/src/services/reminders"
)

func (s *Server) ListReminders(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	pending, err := s.reminders.List(r.Context(), userID)
	if err != nil {
		s.logger.Error("Failed to list reminders", "user", userID, "error", err)
		http.Error(w, domain.ErrUnavailableServer.Error(), http.StatusInternalServerError)
		return
	}

	response := make([]ReminderDTO, 0, len(pending))
	for _, reminder := range pending {
		response = append(response, MapReminderToResponse(reminder))
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) ScheduleReminder(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	var request ScheduleReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	in, err := reminders.DelayFromSeconds(request.InSeconds)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reminder, err := s.reminders.Schedule(r.Context(), userID, request.GuildID, request.Reminder, in)
	switch {
	case errors.Is(err, domain.ErrInvalidReminder):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrReminderLimit):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		s.logger.Error("Failed to schedule reminder", "user", userID, "error", err)
		http.Error(w, domain.ErrUnavailableServer.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, MapReminderToResponse(reminder))
}

func (s *Server) CancelReminder(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	reminderID := r.PathValue("reminderId")

	err := s.reminders.Cancel(r.Context(), userID, reminderID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		s.logger.Error("Failed to cancel reminder", "user", userID, "reminder", reminderID, "error", err)
		http.Error(w, domain.ErrUnavailableServer.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
