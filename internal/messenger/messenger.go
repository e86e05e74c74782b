package messenger

import (
	"context"
	"fmt"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/config"
	"github.com/gosimple/slug"
)

type MessageService interface {
	SendMessage(item Item, body []byte, reliable bool) error
	ConsumeMessages(ctx context.Context, item Item, callback func(msg string)) error
}

type Item string

var (
	MarketEvent Item = "market.event"
)

// EventItem routes a single event type below MarketEvent.
func EventItem(eventType string) Item {
	return Item(fmt.Sprintf("%s.%s", MarketEvent, slug.Make(eventType)))
}

func (i Item) queue() string {
	return fmt.Sprintf("%s.%s", config.Get().Index, i)
}

// NewMessageService picks the transport named by the messenger driver. The none
// driver returns nil.
func NewMessageService(cfg config.MessengerConfig, aws config.AwsConfig) (MessageService, error) {
	switch cfg.Driver {
	case "amqp":
		return NewMessenger(cfg.AmqpUri, cfg.Exchange), nil
	case "sqs":
		return NewQueue(cfg.QueueUrl, aws)
	}
	return nil, nil
}
