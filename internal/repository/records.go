package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mj1618/locator-cli/internal/model"
)

// attributesColumn stores CapturedAttributes as a JSON text column.
type attributesColumn model.CapturedAttributes

func (a *attributesColumn) Scan(value interface{}) error {
	return scanJSON(value, a)
}

func (a attributesColumn) Value() (driver.Value, error) {
	return valueJSON(a)
}

// chainColumn stores a locator chain as a JSON text column.
type chainColumn model.Chain

func (c *chainColumn) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	return scanJSON(value, c)
}

func (c chainColumn) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return valueJSON(c)
}

func scanJSON(value interface{}, dst interface{}) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type: %T", value)
	}
	return json.Unmarshal(bytes, dst)
}

func valueJSON(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// objectRecord is the ui_objects row.
type objectRecord struct {
	ID             string           `gorm:"primaryKey;column:id;type:varchar(36)"`
	Fingerprint    string           `gorm:"column:fingerprint;type:varchar(64);not null;uniqueIndex:idx_ui_objects_fingerprint"`
	Name           string           `gorm:"column:name;type:varchar(255);not null"`
	Platform       string           `gorm:"column:platform;type:varchar(16);not null;index:idx_ui_objects_platform"`
	Tag            string           `gorm:"column:tag;type:varchar(64);not null;index:idx_ui_objects_tag"`
	Attributes     attributesColumn `gorm:"column:attributes;type:text"`
	Chain          chainColumn      `gorm:"column:chain;type:text;not null"`
	Resolved       int              `gorm:"column:resolved;not null;default:0"`
	Healed         int              `gorm:"column:healed;not null;default:0"`
	Failed         int              `gorm:"column:failed;not null;default:0"`
	LastResolvedAt *time.Time       `gorm:"column:last_resolved_at"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (objectRecord) TableName() string {
	return "ui_objects"
}

func (r *objectRecord) toModel() *model.UIObject {
	obj := &model.UIObject{
		ID:          r.ID,
		Name:        r.Name,
		Platform:    model.Platform(r.Platform),
		Tag:         r.Tag,
		Fingerprint: r.Fingerprint,
		Attributes:  model.CapturedAttributes(r.Attributes),
		Chain:       model.Chain(r.Chain),
		Usage: model.UsageStats{
			Resolved: r.Resolved,
			Healed:   r.Healed,
			Failed:   r.Failed,
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.LastResolvedAt != nil {
		t := r.LastResolvedAt.UTC()
		obj.Usage.LastResolvedAt = &t
	}
	return obj
}

func outcomeColumn(o model.Outcome) (string, error) {
	switch o {
	case model.OutcomeResolved:
		return "resolved", nil
	case model.OutcomeHealed:
		return "healed", nil
	case model.OutcomeFailed:
		return "failed", nil
	default:
		return "", fmt.Errorf("unknown outcome: %q", o)
	}
}
