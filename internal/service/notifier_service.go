package service

import (
	"context"
	"fmt"

	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/pkg/events"
	pktNats "investigative-ai-be/pkg/nats"
)

// CorpusDelivery pushes corpus-change notifications to live clients.
// Implemented by the websocket hub.
type CorpusDelivery interface {
	Broadcast(data []byte)
}

// MessageFactory builds the wire frame for one corpus update.
type MessageFactory func(content string) []byte

// NotifierService bridges the event bus to connected websocket clients:
// when a document finishes processing or is removed, every live session
// learns the corpus changed.
type NotifierService struct {
	subscriber *pktNats.Subscriber
	delivery   CorpusDelivery
	newMessage MessageFactory
	logger     logger.ILogger
}

func NewNotifierService(sub *pktNats.Subscriber, delivery CorpusDelivery, newMessage MessageFactory, log logger.ILogger) *NotifierService {
	return &NotifierService{
		subscriber: sub,
		delivery:   delivery,
		newMessage: newMessage,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotifierService) Start() {
	err := s.subscriber.Subscribe("events.>", "corpus-notifier-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotifierService", "Failed to start event subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotifierService", "Notifier started, listening to events.>", nil)
}

func (s *NotifierService) handleEvent(ctx context.Context, event events.Event) error {
	if s.delivery == nil {
		return nil
	}

	payload := event.Payload()
	title, _ := payload["title"].(string)

	var content string
	switch event.EventType() {
	case events.TypeDocumentIngested:
		content = fmt.Sprintf("Document %q is now searchable", title)
	case events.TypeDocumentRemoved:
		content = fmt.Sprintf("Document %q was removed from the corpus", title)
	default:
		return nil
	}

	s.logger.Info("NotifierService", "Broadcasting corpus update", map[string]interface{}{
		"event": event.EventType(),
		"title": title,
	})
	s.delivery.Broadcast(s.newMessage(content))
	return nil
}
