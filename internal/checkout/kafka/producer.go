package kafka

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"

	"flowpass/internal/models"
)

// Producer streams pass lifecycle events keyed by pass id. Downstream
// consumers (none in this repo) get one message per issued or redeemed pass.
type Producer struct {
	passCreated  *kafkago.Writer
	passRedeemed *kafkago.Writer
}

func NewProducer(brokers []string, passCreatedTopic, passRedeemedTopic string) *Producer {
	return &Producer{
		passCreated: kafkago.NewWriter(kafkago.WriterConfig{
			Brokers: brokers,
			Topic:   passCreatedTopic,
		}),
		passRedeemed: kafkago.NewWriter(kafkago.WriterConfig{
			Brokers: brokers,
			Topic:   passRedeemedTopic,
		}),
	}
}

func (p *Producer) PublishPassCreated(pass models.Pass) error {
	return p.publish(p.passCreated, pass)
}

func (p *Producer) PublishPassRedeemed(pass models.Pass) error {
	return p.publish(p.passRedeemed, pass)
}

func (p *Producer) publish(w *kafkago.Writer, pass models.Pass) error {
	msgBytes, err := json.Marshal(pass)
	if err != nil {
		return err
	}
	return w.WriteMessages(context.Background(),
		kafkago.Message{
			Key:   []byte(pass.PassID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	if err := p.passCreated.Close(); err != nil {
		return err
	}
	return p.passRedeemed.Close()
}

// Noop stands in when the event stream is disabled or mocked.
type Noop struct{}

func (Noop) PublishPassCreated(models.Pass) error  { return nil }
func (Noop) PublishPassRedeemed(models.Pass) error { return nil }
