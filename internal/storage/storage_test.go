package storage

import (
	"context"
	"fmt"
	"io/ioutil"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1752rissy/enterate/internal/fixtures"
	"github.com/1752rissy/enterate/internal/kvstore"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
	"github.com/1752rissy/enterate/internal/repos/local"
)

var dbCounter int64

func newTestLogger() *logrus.Entry {
	logger := logrus.New()
	logger.Out = ioutil.Discard
	return logrus.NewEntry(logger)
}

func memoryConfig(autoMigrate bool) models.RemoteConfig {
	return models.RemoteConfig{
		Driver:       "sqlite3",
		DSN:          fmt.Sprintf("file:storage_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1)),
		AutoMigrate:  autoMigrate,
		ProbeTimeout: 1,
	}
}

func resolveRemote(t *testing.T) (repos.Backend, *sqlx.DB) {
	b, db := Resolve(context.Background(), memoryConfig(true), repos.Backend{Kind: repos.KindLocal}, newTestLogger())
	require.NotNil(t, db)
	// Keeps the shared in-memory database alive and avoids locking between connections
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.Equal(t, repos.KindRemote, b.Kind)
	return b, db
}

func TestResolveFallsBackToLocal(t *testing.T) {
	store := local.New(kvstore.NewMemory(), newTestLogger())
	fallback := store.Backend()
	for name, conf := range map[string]models.RemoteConfig{
		"no dsn":         {Driver: "sqlite3"},
		"unknown driver": {Driver: "nosuchdriver", DSN: "whatever"},
		"missing schema": memoryConfig(false),
	} {
		t.Run(name, func(t *testing.T) {
			b, db := Resolve(context.Background(), conf, fallback, newTestLogger())
			assert.Nil(t, db)
			assert.Equal(t, repos.KindLocal, b.Kind)
			// The device store keeps serving the demo data
			evts, err := b.Events.List()
			require.NoError(t, err)
			assert.Len(t, evts, len(fixtures.Events()))
		})
	}
}

func TestResolveUsesRemote(t *testing.T) {
	b, _ := resolveRemote(t)
	n, err := b.Events.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMigrationCopiesDeviceEvents(t *testing.T) {
	target, _ := resolveRemote(t)
	store := local.New(kvstore.NewMemory(), newTestLogger())
	source := store.Backend()
	extra := &models.Event{Title: "Maratón", Description: "10K", Date: "2025-08-01", Time: "08:00",
		Location: "Costanera", Category: "Deportes", CreatedBy: "2"}
	require.NoError(t, source.Events.Create(extra))
	require.NoError(t, source.Interactions.Set(extra.ID, "1", models.InteractionAttend, true))
	before, err := source.Events.Count()
	require.NoError(t, err)

	report, err := NewMigrator(target, source.Events, newTestLogger()).MigrateIfEmpty()
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, SourceLocal, report.Source)
	assert.Equal(t, before, report.Copied)
	assert.Equal(t, 0, report.Failed)

	after, err := target.Events.Count()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	evts, err := target.Events.List()
	require.NoError(t, err)
	byTitle := map[string]models.Event{}
	for _, ev := range evts {
		byTitle[ev.Title] = ev
	}
	jazz := byTitle["Festival de Jazz en el Parque"]
	assert.Equal(t, 2, jazz.Likes)
	assert.ElementsMatch(t, []string{"1", "3"}, jazz.LikedBy)
	require.Len(t, jazz.Comments, 1)
	assert.Equal(t, jazz.ID, jazz.Comments[0].EventID)
	assert.Equal(t, models.IDList{"1"}, byTitle["Maratón"].Attendees)

	// A filled store is left alone
	report, err = NewMigrator(target, source.Events, newTestLogger()).MigrateIfEmpty()
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestMigrationSeedsDemoEvents(t *testing.T) {
	target, _ := resolveRemote(t)
	store := local.New(kvstore.NewMemory(), newTestLogger())
	source := store.Backend()
	evts, err := source.Events.List()
	require.NoError(t, err)
	for _, ev := range evts {
		require.NoError(t, source.Events.Delete(ev.ID))
	}

	report, err := NewMigrator(target, source.Events, newTestLogger()).MigrateIfEmpty()
	require.NoError(t, err)
	assert.Equal(t, SourceFixtures, report.Source)
	assert.Equal(t, len(fixtures.Events()), report.Copied)
	n, err := target.Events.Count()
	require.NoError(t, err)
	assert.Equal(t, len(fixtures.Events()), n)

	// Insertion in creation order, so the newest demo event comes first
	lst, err := target.Events.List()
	require.NoError(t, err)
	assert.Equal(t, "Exposición de Arte Contemporáneo", lst[0].Title)
}

type failingComments struct {
	repos.CommentRepo
}

func (failingComments) Create(c *models.Comment) error {
	return errors.New("comments are read-only")
}

func TestMigrationContinuesAfterFailure(t *testing.T) {
	target, _ := resolveRemote(t)
	target.Comments = failingComments{target.Comments}
	source := local.New(kvstore.NewMemory(), newTestLogger()).Backend()

	report, err := NewMigrator(target, source.Events, newTestLogger()).MigrateIfEmpty()
	require.NoError(t, err)
	// Only the first demo event has a comment
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, len(fixtures.Events())-1, report.Copied)
	n, err := target.Events.Count()
	require.NoError(t, err)
	assert.Equal(t, len(fixtures.Events()), n)
}
