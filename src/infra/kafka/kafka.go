package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/rcrowley/go-metrics"
)

type KafkaClient struct {
	consumer  sarama.ConsumerGroup
	producer  sarama.SyncProducer
	brokers   []string
	batchSize int
}

type Message struct {
	Key      string
	Value    []byte
	Headers  map[string]string
	internal *sarama.ConsumerMessage
}

type Handler func(messages []Message) error

// NewKafkaClient builds a producer and, when groupID is set, a consumer group.
// Client metrics are recorded into registry when it is not nil.
func NewKafkaClient(brokers string, groupID string, batchSize int, registry metrics.Registry) (*KafkaClient, error) {
	brokerList := strings.Split(brokers, ",")

	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	if registry != nil {
		config.MetricRegistry = registry
	}

	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Group.Session.Timeout = 30 * time.Second
	config.Consumer.Group.Heartbeat.Interval = 10 * time.Second
	config.Consumer.MaxProcessingTime = 60 * time.Second
	config.Consumer.MaxWaitTime = 250 * time.Millisecond
	config.ChannelBufferSize = batchSize * 2

	// Entregas não podem se perder: esperamos todas as réplicas.
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1024 * 1024

	client := &KafkaClient{
		brokers:   brokerList,
		batchSize: batchSize,
	}

	if groupID != "" {
		consumer, err := sarama.NewConsumerGroup(brokerList, groupID, config)
		if err != nil {
			return nil, fmt.Errorf("failed to create consumer group: %w", err)
		}
		client.consumer = consumer
	}

	producer, err := sarama.NewSyncProducer(brokerList, config)
	if err != nil {
		if client.consumer != nil {
			client.consumer.Close()
		}
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	client.producer = producer

	log.Printf("Kafka client initialized with batch size: %d", batchSize)

	return client, nil
}

func (k *KafkaClient) Consumer(ctx context.Context, handler Handler, topic string) error {
	if k.consumer == nil {
		return errors.New("kafka client has no consumer group")
	}

	consumerHandler := &consumerGroupHandler{
		handler:   handler,
		batchSize: k.batchSize,
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("Kafka consumer context cancelled")
			return nil
		default:
			if err := k.consumer.Consume(ctx, []string{topic}, consumerHandler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return nil
				}
				log.Printf("Error consuming from topic %s: %v", topic, err)
				time.Sleep(5 * time.Second)
				continue
			}
		}
	}
}

// Publish sends one message and blocks until the brokers acknowledge it.
func (k *KafkaClient) Publish(msg Message, topic string) error {
	_, _, err := k.producer.SendMessage(toProducerMessage(msg, topic))
	if err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

// Producer sends a batch and reports how many messages failed.
func (k *KafkaClient) Producer(messages []Message, topic string) error {
	if len(messages) == 0 {
		return nil
	}

	kafkaMessages := make([]*sarama.ProducerMessage, len(messages))
	for i, msg := range messages {
		kafkaMessages[i] = toProducerMessage(msg, topic)
	}

	err := k.producer.SendMessages(kafkaMessages)
	if err == nil {
		log.Printf("Batch sent successfully: %d messages to topic %s", len(messages), topic)
		return nil
	}

	var produceErrs sarama.ProducerErrors
	if errors.As(err, &produceErrs) {
		log.Printf("Batch completed with errors: %d/%d failed", len(produceErrs), len(messages))
		for _, pe := range produceErrs {
			log.Printf("  - %v", pe.Err)
		}
		return fmt.Errorf("batch send failed: %d/%d messages failed", len(produceErrs), len(messages))
	}

	return fmt.Errorf("batch send failed: %w", err)
}

func toProducerMessage(msg Message, topic string) *sarama.ProducerMessage {
	pm := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(msg.Key),
		Value: sarama.ByteEncoder(msg.Value),
	}
	for k, v := range msg.Headers {
		pm.Headers = append(pm.Headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	return pm
}

func (k *KafkaClient) Close() error {
	var errs []error

	if k.consumer != nil {
		if err := k.consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close consumer: %w", err))
		}
	}

	if err := k.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close producer: %w", err))
	}

	return errors.Join(errs...)
}

// consumerGroupHandler implementa sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	handler   Handler
	batchSize int
}

func (h *consumerGroupHandler) Setup(session sarama.ConsumerGroupSession) error {
	log.Printf("Kafka consumer group session setup - batch size: %d", h.batchSize)
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Println("Kafka consumer group session cleanup")
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	batchTimeout := 2 * time.Second

	messages := make([]Message, 0, h.batchSize)
	timer := time.NewTimer(batchTimeout)
	defer timer.Stop()

	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				h.processBatch(session, messages)
				return nil
			}

			headers := make(map[string]string, len(message.Headers))
			for _, hdr := range message.Headers {
				headers[string(hdr.Key)] = string(hdr.Value)
			}

			messages = append(messages, Message{
				Key:      string(message.Key),
				Value:    message.Value,
				Headers:  headers,
				internal: message,
			})

			if len(messages) >= h.batchSize {
				h.processBatch(session, messages)
				messages = messages[:0]
				timer.Reset(batchTimeout)
			}

		case <-timer.C:
			h.processBatch(session, messages)
			messages = messages[:0]
			timer.Reset(batchTimeout)

		case <-session.Context().Done():
			h.processBatch(session, messages)
			return nil
		}
	}
}

func (h *consumerGroupHandler) processBatch(session sarama.ConsumerGroupSession, messages []Message) {
	if len(messages) == 0 {
		return
	}

	if err := h.handler(messages); err != nil {
		log.Printf("Handler error for batch: %v", err)
		// Don't mark messages - they will be retried
		return
	}

	for _, msg := range messages {
		if msg.internal != nil {
			session.MarkMessage(msg.internal, "")
		}
	}
}
