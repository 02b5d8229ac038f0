package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mj1618/locator-cli/internal/classify"
	"github.com/mj1618/locator-cli/internal/model"
)

var (
	// ErrNotFound is returned when no object has the requested id or fingerprint.
	ErrNotFound = errors.New("ui object not found")
	// ErrWriteConflict is returned when a concurrent insert of the same
	// fingerprint won and its row still cannot be read back.
	ErrWriteConflict = errors.New("repository write conflict")
	// ErrEmptyChain is returned when a write would leave an object without locators.
	ErrEmptyChain = errors.New("locator chain is empty")
)

// Capture is one element to persist.
type Capture struct {
	Name       string
	Platform   model.Platform
	Attributes model.CapturedAttributes
	Chain      model.Chain
}

// Repository persists UI objects keyed by fingerprint.
type Repository struct {
	db         *gorm.DB
	classifier *classify.Classifier
	locks      keyedMutex
	newID      func() string
	now        func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClassifier sets the classifier used for fingerprints. It should match
// the extractor's so that dynamic values are excluded consistently.
func WithClassifier(c *classify.Classifier) Option {
	return func(r *Repository) { r.classifier = c }
}

// WithClock overrides the time source used for last_resolved_at.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// New wraps an open database and migrates the ui_objects table.
func New(db *gorm.DB, opts ...Option) (*Repository, error) {
	r := &Repository{
		db:         db,
		classifier: classify.Default(),
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.AutoMigrate(); err != nil {
		return nil, err
	}
	return r, nil
}

// AutoMigrate creates or updates the ui_objects table.
func (r *Repository) AutoMigrate() error {
	if err := r.db.AutoMigrate(&objectRecord{}); err != nil {
		return fmt.Errorf("auto-migrate ui_objects: %w", err)
	}
	return nil
}

// DB exposes the connection so other stores can share it.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Fingerprint computes the identity Upsert would use for attrs captured on
// platform.
func (r *Repository) Fingerprint(platform model.Platform, attrs model.CapturedAttributes) string {
	return Fingerprint(platform, attrs, r.classifier)
}

// Upsert stores a new object, or returns the id of the object that already
// has the same fingerprint. An existing object's chain is never modified.
func (r *Repository) Upsert(ctx context.Context, c Capture) (string, bool, error) {
	if len(c.Chain) == 0 {
		return "", false, ErrEmptyChain
	}
	if err := c.Chain.Validate(); err != nil {
		return "", false, fmt.Errorf("upsert: %w", err)
	}
	if c.Platform == "" {
		c.Platform = model.PlatformWeb
	}
	if c.Name == "" {
		c.Name = model.DefaultObjectName(c.Attributes)
	}

	fp := r.Fingerprint(c.Platform, c.Attributes)
	unlock := r.locks.Lock(fp)
	defer unlock()

	existing, err := r.findRecord(ctx, "fingerprint = ?", fp)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", false, err
	}

	rec := objectRecord{
		ID:          r.newID(),
		Fingerprint: fp,
		Name:        c.Name,
		Platform:    string(c.Platform),
		Tag:         c.Attributes.NormalizedTag(),
		Attributes:  attributesColumn(c.Attributes),
		Chain:       chainColumn(c.Chain.Sorted()),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fingerprint"}},
			DoNothing: true,
		}).
		Create(&rec)
	if result.Error != nil {
		return "", false, fmt.Errorf("insert ui object: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Another process inserted the same fingerprint first.
		existing, err := r.findRecord(ctx, "fingerprint = ?", fp)
		if err != nil {
			return "", false, fmt.Errorf("%w: fingerprint %s: %v", ErrWriteConflict, fp, err)
		}
		return existing.ID, false, nil
	}

	log.Debug().Str("id", rec.ID).Str("name", rec.Name).Str("platform", rec.Platform).Msg("stored ui object")
	return rec.ID, true, nil
}

// Get returns the object with the given id.
func (r *Repository) Get(ctx context.Context, id string) (*model.UIObject, error) {
	rec, err := r.findRecord(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

// FindByFingerprint returns the object with the given fingerprint.
func (r *Repository) FindByFingerprint(ctx context.Context, fingerprint string) (*model.UIObject, error) {
	rec, err := r.findRecord(ctx, "fingerprint = ?", fingerprint)
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

// ListByPlatform returns every object captured from platform.
func (r *Repository) ListByPlatform(ctx context.Context, platform model.Platform) ([]*model.UIObject, error) {
	return r.list(ctx, "platform = ?", string(platform))
}

// ListByTag returns every object with the given tag, case-insensitively.
func (r *Repository) ListByTag(ctx context.Context, tag string) ([]*model.UIObject, error) {
	return r.list(ctx, "tag = ?", strings.ToLower(strings.TrimSpace(tag)))
}

// List returns every object, oldest first.
func (r *Repository) List(ctx context.Context) ([]*model.UIObject, error) {
	return r.list(ctx, "")
}

// UpdateLocatorChain replaces an object's chain. The chain is stored sorted
// by reliability.
func (r *Repository) UpdateLocatorChain(ctx context.Context, id string, chain model.Chain) error {
	if len(chain) == 0 {
		return ErrEmptyChain
	}
	if err := chain.Validate(); err != nil {
		return fmt.Errorf("update locator chain: %w", err)
	}
	result := r.db.WithContext(ctx).
		Model(&objectRecord{}).
		Where("id = ?", id).
		Update("chain", chainColumn(chain.Sorted()))
	if result.Error != nil {
		return fmt.Errorf("update locator chain %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update locator chain %s: %w", id, ErrNotFound)
	}
	log.Info().Str("id", id).Str("primary", chain.Sorted().Primary().String()).Msg("locator chain updated")
	return nil
}

// RecordUsage increments the counter for outcome and stamps last_resolved_at.
// The increment happens in SQL so concurrent callers never lose a count.
func (r *Repository) RecordUsage(ctx context.Context, id string, outcome model.Outcome) error {
	col, err := outcomeColumn(outcome)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&objectRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			col:                gorm.Expr(col+" + ?", 1),
			"last_resolved_at": r.now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("record usage %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("record usage %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes an object.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&objectRecord{})
	if result.Error != nil {
		return fmt.Errorf("delete ui object %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete ui object %s: %w", id, ErrNotFound)
	}
	log.Info().Str("id", id).Msg("ui object deleted")
	return nil
}

func (r *Repository) findRecord(ctx context.Context, query string, arg interface{}) (*objectRecord, error) {
	var rec objectRecord
	err := r.db.WithContext(ctx).Where(query, arg).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ui object: %w", err)
	}
	return &rec, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]*model.UIObject, error) {
	tx := r.db.WithContext(ctx)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	var records []objectRecord
	if err := tx.Order("created_at, id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list ui objects: %w", err)
	}
	out := make([]*model.UIObject, len(records))
	for i := range records {
		out[i] = records[i].toModel()
	}
	return out, nil
}
