package messenger

import (
	"encoding/json"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"go.uber.org/zap"
)

// Publisher forwards committed events to a message service.
type Publisher struct {
	service  MessageService
	reliable bool
}

func NewPublisher(service MessageService, reliable bool) *Publisher {
	return &Publisher{service: service, reliable: reliable}
}

// Subscribe registers the publisher for the given types, or every type when none are given.
func (p *Publisher) Subscribe(manager event.Manager, types ...event.Type) {
	if len(types) == 0 {
		types = []event.Type{event.AnyEvent}
	}
	for _, t := range types {
		manager.AddEventListener(t, p.Publish)
	}
}

func (p *Publisher) Publish(e event.Event) {
	body, err := json.Marshal(e)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("id", e.Id)).Error("Publisher: Failed to encode event")
		return
	}

	if err := p.service.SendMessage(EventItem(string(e.Type)), body, p.reliable); err != nil {
		zap.L().With(zap.Error(err), zap.String("type", string(e.Type)), zap.String("id", e.Id)).Error("Publisher: Failed to publish event")
	}
}
