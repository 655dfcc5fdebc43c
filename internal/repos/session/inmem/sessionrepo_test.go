package inmem

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1752rissy/enterate/internal/repos"
)

type clock struct {
	sync.Mutex
	t time.Time
}

func (c *clock) now() time.Time {
	c.Lock()
	defer c.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.Lock()
	defer c.Unlock()
	c.t = c.t.Add(d)
}

func TestSessionLifecycle(t *testing.T) {
	c := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewWithTTL(10*time.Minute, c.now)
	defer r.Close()

	sess, err := r.CreateFor("42")
	require.NoError(t, err)
	assert.Len(t, sess.ID, 64)
	assert.Equal(t, "42", sess.UserID)

	other, err := r.CreateFor("42")
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, other.ID)

	// Extending moves the expiry relative to the last use
	c.advance(8 * time.Minute)
	got, err := r.GetByID(sess.ID, true)
	require.NoError(t, err)
	assert.Equal(t, c.now().Add(10*time.Minute), got.ExpiresAt)

	c.advance(8 * time.Minute)
	_, err = r.GetByID(sess.ID, false)
	require.NoError(t, err)
	_, err = r.GetByID(other.ID, false)
	assert.Equal(t, repos.ErrEntityNotExisting, err)

	require.NoError(t, r.Delete(sess.ID))
	_, err = r.GetByID(sess.ID, false)
	assert.Equal(t, repos.ErrEntityNotExisting, err)
}

func TestClosedRepoFindsNothing(t *testing.T) {
	r := New()
	sess, err := r.CreateFor("1")
	require.NoError(t, err)
	r.Close()
	_, err = r.GetByID(sess.ID, false)
	assert.Equal(t, repos.ErrEntityNotExisting, err)
}
