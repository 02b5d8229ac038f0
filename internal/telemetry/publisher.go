package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/mj1618/locator-cli/internal/config"
	"github.com/mj1618/locator-cli/internal/model"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher appends to an underlying Log and also streams each event to a
// Kafka topic. The Log is the source of truth; a failed publish is logged
// and does not fail the append.
type Publisher struct {
	Log
	writer messageWriter
}

// NewPublisher wraps next with a Kafka writer for cfg.
func NewPublisher(next Log, cfg config.Kafka) *Publisher {
	return &Publisher{
		Log: next,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    100,
			BatchTimeout: 100 * time.Millisecond,
		},
	}
}

func (p *Publisher) Append(ctx context.Context, ev model.HealingEvent) error {
	if err := p.Log.Append(ctx, ev); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Warn().Err(err).Str("event", ev.ID).Msg("encode healing event for kafka")
		return nil
	}
	// keyed by descriptor so one object's events stay ordered in a partition
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Descriptor),
		Value: data,
		Time:  ev.Timestamp,
	})
	if err != nil {
		log.Warn().Err(err).Str("event", ev.ID).Msg("publish healing event")
	}
	return nil
}

func (p *Publisher) Close() error {
	werr := p.writer.Close()
	if err := Close(p.Log); err != nil {
		return err
	}
	return werr
}
