package internal

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1752rissy/enterate/internal/ctxhelper"
	"github.com/1752rissy/enterate/internal/kvstore"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
	"github.com/1752rissy/enterate/internal/repos/local"
	"github.com/1752rissy/enterate/internal/storage"
)

var dbCounter int64

func newServiceContext(u *models.User) context.Context {
	ctx := context.WithValue(context.Background(), ctxhelper.KeyLogger, newTestLogger())
	if u != nil {
		ctx = context.WithValue(ctx, ctxhelper.KeyUser, *u)
	}
	return ctx
}

func TestRefreshFillsEmptyRemote(t *testing.T) {
	logger := newTestLogger()
	store := local.New(kvstore.NewMemory(), logger)
	conf := models.RemoteConfig{
		Driver:       "sqlite3",
		DSN:          fmt.Sprintf("file:eventservice_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1)),
		AutoMigrate:  true,
		ProbeTimeout: 1,
	}
	ctx := newServiceContext(nil)
	backend, db := storage.Resolve(ctx, conf, store.Backend(), logger)
	require.NotNil(t, db)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.Equal(t, repos.KindRemote, backend.Kind)

	srv := NewEventService(backend, storage.NewMigrator(backend, store.Backend().Events, logger), NewConfigService(""), logger)

	res, err := srv.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, repos.KindRemote, res.Backend)
	require.NotNil(t, res.Migration)
	assert.Equal(t, storage.SourceLocal, res.Migration.Source)
	assert.Equal(t, 4, res.Migration.Copied)
	assert.Zero(t, res.Migration.Failed)
	require.Len(t, res.Events, 4)
	assert.Equal(t, "Exposición de Arte Contemporáneo", res.Events[0].Title)
	for _, ev := range res.Events {
		assert.Equal(t, len(ev.LikedBy), ev.Likes, ev.Title)
	}

	// The remote store is not empty anymore
	res, err = srv.Refresh(ctx)
	require.NoError(t, err)
	assert.Nil(t, res.Migration)
	assert.Len(t, res.Events, 4)
}

func TestSearchIgnoresCaseAndAccents(t *testing.T) {
	logger := newTestLogger()
	backend := local.New(kvstore.NewMemory(), logger).Backend()
	srv := NewEventService(backend, nil, NewConfigService(""), logger)
	ctx := newServiceContext(nil)

	for search, want := range map[string]string{
		"jazz":                "1",
		"GASTRONÓMICA":        "2",
		"historico":           "3",
		"museo de arte":       "4",
		"  plaza de armas   ": "3",
	} {
		evts, err := srv.List(ctx, &EventFilter{Search: search})
		require.NoError(t, err, search)
		require.Len(t, evts, 1, search)
		assert.Equal(t, want, evts[0].ID, search)
	}
}

func TestOwnerMayManageOwnEvent(t *testing.T) {
	logger := newTestLogger()
	backend := local.New(kvstore.NewMemory(), logger).Backend()
	srv := NewEventService(backend, nil, NewConfigService(""), logger)

	owner := &models.User{ID: "2", Name: "Ana García", Role: models.RoleUser}
	other := &models.User{ID: "1", Name: "Juan Pérez", Role: models.RoleUser}

	_, err := srv.Get(newServiceContext(nil), "3")
	require.NoError(t, err)

	err = srv.Delete(newServiceContext(other), "3")
	assert.Equal(t, ErrPermissionDenied, err)
	err = srv.Delete(newServiceContext(owner), "3")
	assert.NoError(t, err)
	_, err = srv.Get(newServiceContext(nil), "3")
	require.Error(t, err)
	assert.Equal(t, ErrCodeEventNotFound, err.(*HTTPError).ErrorCode())
}
