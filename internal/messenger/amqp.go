package messenger

import (
	"context"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

type exchange struct {
	Name        string
	Type        string
	Durable     bool
	AutoDeleted bool
	Internal    bool
	NoWait      bool
	Arguments   amqp.Table
}

type Messenger struct {
	mu       sync.Mutex
	amqpUri  string
	conn     *amqp.Connection
	exchange exchange
}

// NewMessenger publishes to a durable topic exchange on the broker at amqpUri.
func NewMessenger(amqpUri, exchangeName string) MessageService {
	return &Messenger{
		amqpUri: amqpUri,
		exchange: exchange{
			Name:    exchangeName,
			Type:    "topic",
			Durable: true,
			NoWait:  true,
		},
	}
}

func (m *Messenger) SendMessage(item Item, body []byte, reliable bool) error {
	ch, err := m.openChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	ex := m.exchange
	if err := ch.ExchangeDeclare(ex.Name, ex.Type, ex.Durable, ex.AutoDeleted, ex.Internal, ex.NoWait, ex.Arguments); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Exchange Declare")
		return err
	}

	if reliable {
		if err := ch.Confirm(false); err != nil {
			zap.L().With(zap.Error(err)).Error("[Queue] Channel could not be put into confirm mode")
			return err
		}

		confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

		defer m.confirmOne(confirms)
	}

	publishing := amqp.Publishing{
		Headers:      amqp.Table{},
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}

	if err = ch.Publish(ex.Name, item.queue(), false, false, publishing); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Exchange Publish")
		return err
	}

	zap.L().With(zap.String("exchange", ex.Name), zap.String("routingKey", item.queue())).Debug("[Queue] Published message")

	return nil
}

// ConsumeMessages binds a queue for item and its sub-items and blocks until ctx is done.
func (m *Messenger) ConsumeMessages(ctx context.Context, item Item, callback func(msg string)) error {
	ch, err := m.openChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	ex := m.exchange
	if err := ch.ExchangeDeclare(ex.Name, ex.Type, ex.Durable, ex.AutoDeleted, ex.Internal, ex.NoWait, ex.Arguments); err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Exchange Declare")
		return err
	}

	q, err := ch.QueueDeclare(item.queue(), true, false, false, false, nil)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to declare a queue")
		return err
	}

	for _, key := range []string{item.queue(), item.queue() + ".#"} {
		if err = ch.QueueBind(q.Name, key, ex.Name, false, nil); err != nil {
			zap.L().With(zap.Error(err)).Error("[Queue] Failed to bind a queue")
			return err
		}
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to consume the queue")
		return err
	}

	zap.S().With(zap.String("exchange", ex.Name)).Debugf("[Queue] Waiting for messages")
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			zap.L().Debug("[Queue] Received message")
			callback(string(d.Body))
		}
	}
}

func (m *Messenger) openConnection() (*amqp.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil && !m.conn.IsClosed() {
		return m.conn, nil
	}

	conn, err := amqp.Dial(m.amqpUri)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("[Queue] Failed to connect to RabbitMQ")
		return nil, err
	}

	m.conn = conn

	return m.conn, nil
}

func (m *Messenger) openChannel() (*amqp.Channel, error) {
	conn, err := m.openConnection()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		zap.S().With(zap.Error(err)).Error("[Queue] Failed to open channel")
	}

	return ch, err
}

func (m *Messenger) confirmOne(confirms <-chan amqp.Confirmation) {
	zap.L().Debug("[Queue] Waiting for publish confirmation")

	if confirmed := <-confirms; confirmed.Ack {
		zap.L().Debug("[Queue] Publish confirmed")
	} else {
		zap.L().Warn("[Queue] Publish failed")
	}
}
