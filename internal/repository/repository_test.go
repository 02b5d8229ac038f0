package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mj1618/locator-cli/internal/config"
	"github.com/mj1618/locator-cli/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newTestRepo(t *testing.T, opts ...Option) *Repository {
	t.Helper()
	repo, err := New(newTestDB(t), opts...)
	require.NoError(t, err)
	return repo
}

func submitCapture() Capture {
	return Capture{
		Platform: model.PlatformWeb,
		Attributes: model.CapturedAttributes{
			Tag:  "button",
			ID:   "submit",
			Text: "Submit",
		},
		Chain: model.Chain{
			{Kind: model.KindText, Value: "Submit", Tag: "button", Reliability: 80},
			{Kind: model.KindID, Value: "submit", Tag: "button", Reliability: 100},
		},
	}
}

func TestUpsert_CreateThenDedupe(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, created, err := repo.Upsert(ctx, submitCapture())
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, id)

	again := submitCapture()
	again.Chain = model.Chain{{Kind: model.KindXPath, Value: "/html/body/button", Reliability: 50}}
	id2, created, err := repo.Upsert(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, id2)

	obj, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "button-submit", obj.Name)
	assert.Equal(t, "button", obj.Tag)
	assert.Equal(t, model.PlatformWeb, obj.Platform)
	// stored sorted, and untouched by the second upsert
	require.Len(t, obj.Chain, 2)
	assert.Equal(t, model.KindID, obj.Chain[0].Kind)
	assert.Equal(t, model.KindText, obj.Chain[1].Kind)
	assert.Equal(t, "Submit", obj.Attributes.Text)
}

func TestUpsert_DynamicIDDoesNotSplitIdentity(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first := submitCapture()
	first.Attributes.ID = "ember1234"
	second := submitCapture()
	second.Attributes.ID = "ember5678"

	id1, _, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	id2, created, err := repo.Upsert(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id1, id2)
}

func TestUpsert_SameElementOnTwoPlatforms(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	webID, created, err := repo.Upsert(ctx, submitCapture())
	require.NoError(t, err)
	assert.True(t, created)

	desk := submitCapture()
	desk.Platform = model.PlatformDesktop
	deskID, created, err := repo.Upsert(ctx, desk)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, webID, deskID)

	desktop, err := repo.ListByPlatform(ctx, model.PlatformDesktop)
	require.NoError(t, err)
	require.Len(t, desktop, 1)
	assert.Equal(t, deskID, desktop[0].ID)
	assert.Equal(t, model.PlatformDesktop, desktop[0].Platform)
}

func TestUpsert_EmptyChain(t *testing.T) {
	repo := newTestRepo(t)
	c := submitCapture()
	c.Chain = nil
	_, _, err := repo.Upsert(context.Background(), c)
	assert.ErrorIs(t, err, ErrEmptyChain)
}

func TestUpsert_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	const workers = 16
	ids := make([]string, workers)
	createdCount := 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, created, err := repo.Upsert(ctx, submitCapture())
			assert.NoError(t, err)
			ids[i] = id
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 0, repo.locks.size())
}

func TestUpsert_RaceAcrossRepositories(t *testing.T) {
	// Two repositories on one database stand in for two processes: the
	// in-process lock cannot serialize them, the unique index must.
	ctx := context.Background()
	db := newTestDB(t)
	a, err := New(db)
	require.NoError(t, err)
	b, err := New(db)
	require.NoError(t, err)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		repo := a
		if i%2 == 1 {
			repo = b
		}
		wg.Add(1)
		go func(i int, repo *Repository) {
			defer wg.Done()
			id, _, err := repo.Upsert(ctx, submitCapture())
			assert.NoError(t, err)
			ids[i] = id
		}(i, repo)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var count int64
	require.NoError(t, db.Model(&objectRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGet_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByFingerprint(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByFingerprint(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	c := submitCapture()
	id, _, err := repo.Upsert(ctx, c)
	require.NoError(t, err)

	obj, err := repo.FindByFingerprint(ctx, repo.Fingerprint(c.Platform, c.Attributes))
	require.NoError(t, err)
	assert.Equal(t, id, obj.ID)
}

func TestListByPlatformAndTag(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, _, err := repo.Upsert(ctx, submitCapture())
	require.NoError(t, err)
	_, _, err = repo.Upsert(ctx, Capture{
		Name:       "save",
		Platform:   model.PlatformDesktop,
		Attributes: model.CapturedAttributes{Tag: "Button", Text: "Save"},
		Chain:      model.Chain{{Kind: model.KindText, Value: "Save", Tag: "button", Reliability: 80}},
	})
	require.NoError(t, err)
	_, _, err = repo.Upsert(ctx, Capture{
		Platform:   model.PlatformWeb,
		Attributes: model.CapturedAttributes{Tag: "input", Name: "email"},
		Chain:      model.Chain{{Kind: model.KindName, Value: "email", Tag: "input", Reliability: 85}},
	})
	require.NoError(t, err)

	web, err := repo.ListByPlatform(ctx, model.PlatformWeb)
	require.NoError(t, err)
	assert.Len(t, web, 2)

	desktop, err := repo.ListByPlatform(ctx, model.PlatformDesktop)
	require.NoError(t, err)
	require.Len(t, desktop, 1)
	assert.Equal(t, "save", desktop[0].Name)

	buttons, err := repo.ListByTag(ctx, "BUTTON")
	require.NoError(t, err)
	assert.Len(t, buttons, 2)

	mobile, err := repo.ListByPlatform(ctx, model.PlatformMobile)
	require.NoError(t, err)
	assert.Empty(t, mobile)
}

func TestUpdateLocatorChain(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	id, _, err := repo.Upsert(ctx, submitCapture())
	require.NoError(t, err)

	err = repo.UpdateLocatorChain(ctx, id, model.Chain{
		{Kind: model.KindXPath, Value: "/html/body/button", Reliability: 50},
		{Kind: model.KindTestID, Value: "submit", Attr: "data-testid", Reliability: 95},
	})
	require.NoError(t, err)

	obj, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, obj.Chain, 2)
	assert.Equal(t, model.KindTestID, obj.Chain[0].Kind)

	assert.ErrorIs(t, repo.UpdateLocatorChain(ctx, id, model.Chain{}), ErrEmptyChain)
	assert.ErrorIs(t, repo.UpdateLocatorChain(ctx, "missing", obj.Chain), ErrNotFound)

	// a rejected update leaves the stored chain alone
	obj, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, obj.Chain, 2)
}

func TestRecordUsage(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	repo := newTestRepo(t, WithClock(func() time.Time { return fixed }))
	id, _, err := repo.Upsert(ctx, submitCapture())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.RecordUsage(ctx, id, model.OutcomeResolved))
		}()
	}
	wg.Wait()
	require.NoError(t, repo.RecordUsage(ctx, id, model.OutcomeHealed))
	require.NoError(t, repo.RecordUsage(ctx, id, model.OutcomeFailed))

	obj, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, obj.Usage.Resolved)
	assert.Equal(t, 1, obj.Usage.Healed)
	assert.Equal(t, 1, obj.Usage.Failed)
	require.NotNil(t, obj.Usage.LastResolvedAt)
	assert.True(t, fixed.Equal(*obj.Usage.LastResolvedAt))

	assert.ErrorIs(t, repo.RecordUsage(ctx, "missing", model.OutcomeResolved), ErrNotFound)
	assert.Error(t, repo.RecordUsage(ctx, id, model.Outcome("skipped")))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	id, _, err := repo.Upsert(ctx, submitCapture())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, errors.Is(repo.Delete(ctx, id), ErrNotFound))
}

func TestOpen_SQLiteMemory(t *testing.T) {
	repo, err := Open(context.Background(), config.Storage{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	defer repo.Close()

	_, created, err := repo.Upsert(context.Background(), submitCapture())
	require.NoError(t, err)
	assert.True(t, created)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Storage{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}
