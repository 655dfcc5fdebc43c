package ledger

import (
	"fmt"
	"io/ioutil"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1752rissy/enterate/internal/kvstore"
	"github.com/1752rissy/enterate/internal/migrate"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
	"github.com/1752rissy/enterate/internal/repos/local"
	"github.com/1752rissy/enterate/internal/repos/remote"
)

var dbCounter int64

func newTestLogger() *logrus.Entry {
	logger := logrus.New()
	logger.Out = ioutil.Discard
	return logrus.NewEntry(logger)
}

func newLocalBackend(t *testing.T) repos.Backend {
	return local.New(kvstore.NewMemory(), newTestLogger()).Backend()
}

func newRemoteBackend(t *testing.T) repos.Backend {
	name := fmt.Sprintf("file:ledger_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := sqlx.Open("sqlite3", name)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrate.ExecuteMigrationsOnDb(db, newTestLogger()))
	return remote.NewBackend(db, newTestLogger())
}

func createEvent(t *testing.T, b repos.Backend) string {
	ev := &models.Event{
		Title:       "Feria del libro",
		Description: "Editoriales independientes",
		Date:        "2025-06-14",
		Time:        "10:00",
		Location:    "Plaza San Martín",
		Category:    "Educación",
		CreatedBy:   "2",
	}
	require.NoError(t, b.Events.Create(ev))
	return ev.ID
}

func forEachBackend(t *testing.T, fn func(t *testing.T, b repos.Backend)) {
	t.Run("local", func(t *testing.T) { fn(t, newLocalBackend(t)) })
	t.Run("remote", func(t *testing.T) { fn(t, newRemoteBackend(t)) })
}

func TestLikeThenUnlike(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b repos.Backend) {
		l := New(b.Interactions, newTestLogger())
		id := createEvent(t, b)

		require.NoError(t, l.SetInteraction(id, "u1", models.InteractionLike, true))
		require.NoError(t, l.SetInteraction(id, "u2", models.InteractionLike, true))
		ev, err := b.Events.GetByID(id)
		require.NoError(t, err)
		assert.Equal(t, 2, ev.Likes)
		assert.ElementsMatch(t, []string{"u1", "u2"}, ev.LikedBy)

		require.NoError(t, l.SetInteraction(id, "u1", models.InteractionLike, false))
		ev, err = b.Events.GetByID(id)
		require.NoError(t, err)
		assert.False(t, ev.LikedBy.Contains("u1"))
		assert.Equal(t, len(ev.LikedBy), ev.Likes)
		assert.Equal(t, 1, ev.Likes)
	})
}

func TestAttendTwiceCountsOnce(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b repos.Backend) {
		l := New(b.Interactions, newTestLogger())
		id := createEvent(t, b)

		require.NoError(t, l.SetInteraction(id, "u1", models.InteractionAttend, true))
		require.NoError(t, l.SetInteraction(id, "u1", models.InteractionAttend, true))
		ev, err := b.Events.GetByID(id)
		require.NoError(t, err)
		assert.Equal(t, models.IDList{"u1"}, ev.Attendees)
		assert.Equal(t, 0, ev.Likes)

		// Removing an absent relationship is fine as well
		require.NoError(t, l.SetInteraction(id, "u2", models.InteractionAttend, false))
	})
}

func TestBackendsAgree(t *testing.T) {
	type step struct {
		user    string
		kind    models.InteractionKind
		present bool
	}
	steps := []step{
		{"u1", models.InteractionLike, true},
		{"u2", models.InteractionLike, true},
		{"u1", models.InteractionAttend, true},
		{"u3", models.InteractionLike, true},
		{"u2", models.InteractionLike, false},
		{"u3", models.InteractionAttend, true},
		{"u1", models.InteractionAttend, false},
		{"u3", models.InteractionLike, true},
	}
	type result struct {
		likes     int
		likedBy   []string
		attendees []string
	}
	run := func(b repos.Backend) result {
		l := New(b.Interactions, newTestLogger())
		id := createEvent(t, b)
		for _, s := range steps {
			require.NoError(t, l.SetInteraction(id, s.user, s.kind, s.present))
		}
		ev, err := b.Events.GetByID(id)
		require.NoError(t, err)
		return result{ev.Likes, ev.LikedBy, ev.Attendees}
	}
	loc := run(newLocalBackend(t))
	rem := run(newRemoteBackend(t))
	assert.Equal(t, loc.likes, rem.likes)
	assert.ElementsMatch(t, loc.likedBy, rem.likedBy)
	assert.ElementsMatch(t, loc.attendees, rem.attendees)
	assert.Equal(t, 2, rem.likes)
	assert.ElementsMatch(t, []string{"u3"}, rem.attendees)
}

func TestUnknownEventFails(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b repos.Backend) {
		l := New(b.Interactions, newTestLogger())
		err := l.SetInteraction("does-not-exist", "u1", models.InteractionLike, true)
		assert.Equal(t, repos.ErrEntityNotExisting, err)
	})
}

func TestUnknownKindFails(t *testing.T) {
	l := New(newLocalBackend(t).Interactions, newTestLogger())
	assert.Equal(t, ErrUnknownKind, l.SetInteraction("1", "u1", models.InteractionKind("share"), true))
}

type failingCounters struct {
	repos.InteractionRepo
	saves int
}

func (f *failingCounters) SaveCounters(eventID string, c models.Counters) error {
	f.saves++
	return errors.New("write failed")
}

func TestRecountFailureDoesNotFailTheCall(t *testing.T) {
	b := newLocalBackend(t)
	id := createEvent(t, b)
	repo := &failingCounters{InteractionRepo: b.Interactions}
	l := New(repo, newTestLogger())

	require.NoError(t, l.SetInteraction(id, "u1", models.InteractionLike, true))
	assert.Equal(t, 1, repo.saves)
	ids, err := b.Interactions.UserIDs(id, models.InteractionLike)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)
	assert.Error(t, l.Recount(id))
}
