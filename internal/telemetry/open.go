package telemetry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mj1618/locator-cli/internal/config"
)

// Open builds the configured event log. db is required for the store
// backend and ignored otherwise. When Kafka brokers are configured the log
// is wrapped in a Publisher.
func Open(ctx context.Context, cfg config.Telemetry, db *gorm.DB) (Log, error) {
	var (
		l   Log
		err error
	)
	switch cfg.Backend {
	case "memory":
		l = NewMemoryLog()
	case "store", "":
		if db == nil {
			return nil, fmt.Errorf("telemetry backend store: no database")
		}
		l, err = NewStoreLog(db)
	case "redis":
		l, err = NewRedisLog(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown telemetry backend: %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if len(cfg.Kafka.Brokers) > 0 {
		log.Debug().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing healing events to kafka")
		l = NewPublisher(l, cfg.Kafka)
	}
	return l, nil
}
