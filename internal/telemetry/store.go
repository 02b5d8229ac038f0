package telemetry

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mj1618/locator-cli/internal/model"
)

// locatorColumn stores a Locator as JSON text.
type locatorColumn struct{ model.Locator }

func (l *locatorColumn) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported locator column type: %T", value)
	}
	return json.Unmarshal(bytes, &l.Locator)
}

func (l locatorColumn) Value() (driver.Value, error) {
	b, err := json.Marshal(l.Locator)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// eventRecord is the healing_events row. Seq preserves append order.
type eventRecord struct {
	Seq              uint64        `gorm:"primaryKey;column:seq;autoIncrement"`
	ID               string        `gorm:"column:id;type:varchar(36);not null;uniqueIndex:idx_healing_events_id"`
	Timestamp        time.Time     `gorm:"column:timestamp;not null;index:idx_healing_events_timestamp"`
	ObjectID         string        `gorm:"column:object_id;type:varchar(36);index:idx_healing_events_object"`
	Descriptor       string        `gorm:"column:descriptor;type:varchar(512);not null"`
	OriginalLocator  locatorColumn `gorm:"column:original_locator;type:text;not null"`
	Strategy         string        `gorm:"column:strategy;type:varchar(32);not null"`
	ResultingLocator locatorColumn `gorm:"column:resulting_locator;type:text;not null"`
}

func (eventRecord) TableName() string {
	return "healing_events"
}

// StoreLog persists events in the healing_events table. Rows are only ever
// inserted.
type StoreLog struct {
	db *gorm.DB
}

// NewStoreLog migrates healing_events on db.
func NewStoreLog(db *gorm.DB) (*StoreLog, error) {
	if err := db.AutoMigrate(&eventRecord{}); err != nil {
		return nil, fmt.Errorf("auto-migrate healing_events: %w", err)
	}
	return &StoreLog{db: db}, nil
}

func (s *StoreLog) Append(ctx context.Context, ev model.HealingEvent) error {
	rec := eventRecord{
		ID:               ev.ID,
		Timestamp:        ev.Timestamp.UTC(),
		ObjectID:         ev.ObjectID,
		Descriptor:       ev.Descriptor,
		OriginalLocator:  locatorColumn{ev.OriginalLocator},
		Strategy:         string(ev.Strategy),
		ResultingLocator: locatorColumn{ev.ResultingLocator},
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("append healing event: %w", err)
	}
	return nil
}

func (s *StoreLog) Events(ctx context.Context) ([]model.HealingEvent, error) {
	var records []eventRecord
	if err := s.db.WithContext(ctx).Order("seq").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("read healing events: %w", err)
	}
	out := make([]model.HealingEvent, len(records))
	for i, r := range records {
		out[i] = model.HealingEvent{
			ID:               r.ID,
			Timestamp:        r.Timestamp.UTC(),
			ObjectID:         r.ObjectID,
			Descriptor:       r.Descriptor,
			OriginalLocator:  r.OriginalLocator.Locator,
			Strategy:         model.Strategy(r.Strategy),
			ResultingLocator: r.ResultingLocator.Locator,
		}
	}
	return out, nil
}
