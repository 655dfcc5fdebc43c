package local

import (
	"encoding/json"
	"io/ioutil"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1752rissy/enterate/internal/fixtures"
	"github.com/1752rissy/enterate/internal/kvstore"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
)

func newTestStore(t *testing.T) (*Store, *kvstore.MemoryStore) {
	logger := logrus.New()
	logger.Out = ioutil.Discard
	kv := kvstore.NewMemory()
	s := New(kv, logrus.NewEntry(logger))
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	return s, kv
}

func sampleEvent() *models.Event {
	return &models.Event{
		Title:       "Noche de tango",
		Description: "Milonga abierta",
		Date:        "2025-04-01",
		Time:        "21:00",
		Location:    "Club Atlético, Rosario",
		Category:    "Música",
		CreatedBy:   "2",
	}
}

func TestSeedsFixturesOnFirstUse(t *testing.T) {
	s, kv := newTestStore(t)
	evts, err := s.Backend().Events.List()
	require.NoError(t, err)
	assert.Len(t, evts, len(fixtures.Events()))
	// Newest first
	assert.Equal(t, "4", evts[0].ID)
	assert.Equal(t, "1", evts[len(evts)-1].ID)
	_, ok, _ := kv.Get(KeyEvents)
	assert.True(t, ok)

	u, err := s.Backend().Users.GetByEmail("ANA.moderator@example.com ")
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, u.Role)
}

func TestMalformedCollectionIsReset(t *testing.T) {
	s, kv := newTestStore(t)
	require.NoError(t, kv.Set(KeyEvents, "{not json"))
	evts, err := s.Backend().Events.List()
	require.NoError(t, err)
	assert.Len(t, evts, len(fixtures.Events()))

	require.NoError(t, kv.Set(KeyUsers, `{"id": 1}`))
	n, err := s.Backend().Users.FindPending()
	require.NoError(t, err)
	assert.Empty(t, n)
	raw, _, _ := kv.Get(KeyUsers)
	var users []models.User
	require.NoError(t, json.Unmarshal([]byte(raw), &users))
	assert.Len(t, users, len(fixtures.Users()))
}

func TestCreateAssignsUniqueTimestampIDs(t *testing.T) {
	s, _ := newTestStore(t)
	evRepo := s.Backend().Events
	first := sampleEvent()
	second := sampleEvent()
	require.NoError(t, evRepo.Create(first))
	require.NoError(t, evRepo.Create(second))
	ms := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).UnixNano() / int64(time.Millisecond)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, ms, mustInt(t, first.ID))
	assert.Equal(t, ms+1, mustInt(t, second.ID))
	assert.Equal(t, 0, first.Likes)
	assert.Empty(t, first.Comments)

	count, err := evRepo.Count()
	require.NoError(t, err)
	assert.Equal(t, len(fixtures.Events())+2, count)
}

func mustInt(t *testing.T, s string) int64 {
	n, err := json.Number(s).Int64()
	require.NoError(t, err)
	return n
}

func TestUpdateKeepsCounters(t *testing.T) {
	s, _ := newTestStore(t)
	evRepo := s.Backend().Events
	ev, err := evRepo.GetByID("1")
	require.NoError(t, err)
	changed := *ev
	changed.Title = "Festival de Jazz 2025"
	changed.Likes = 999
	changed.LikedBy = models.IDList{}
	require.NoError(t, evRepo.Update(&changed))

	stored, err := evRepo.GetByID("1")
	require.NoError(t, err)
	assert.Equal(t, "Festival de Jazz 2025", stored.Title)
	assert.Equal(t, 2, stored.Likes)
	assert.Equal(t, models.IDList{"1", "3"}, stored.LikedBy)
	require.NotNil(t, stored.UpdatedAt)

	missing := sampleEvent()
	missing.ID = "nope"
	assert.Equal(t, repos.ErrEntityNotExisting, evRepo.Update(missing))
}

func TestInteractionSetIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ir := s.Backend().Interactions
	require.NoError(t, ir.Set("3", "1", models.InteractionAttend, true))
	require.NoError(t, ir.Set("3", "1", models.InteractionAttend, true))
	ids, err := ir.UserIDs("3", models.InteractionAttend)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1"}, ids)

	require.NoError(t, ir.Set("3", "1", models.InteractionAttend, false))
	require.NoError(t, ir.Set("3", "1", models.InteractionAttend, false))
	ids, err = ir.UserIDs("3", models.InteractionAttend)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids)

	assert.Equal(t, repos.ErrEntityNotExisting, ir.Set("missing", "1", models.InteractionLike, true))
}

func TestLikeCounterIsWrittenWithList(t *testing.T) {
	s, _ := newTestStore(t)
	b := s.Backend()
	require.NoError(t, b.Interactions.Set("3", "9", models.InteractionLike, true))
	ev, err := b.Events.GetByID("3")
	require.NoError(t, err)
	assert.Contains(t, ev.LikedBy, "9")
	assert.Equal(t, len(ev.LikedBy), ev.Likes)

	require.NoError(t, b.Interactions.Set("3", "9", models.InteractionLike, false))
	ev, err = b.Events.GetByID("3")
	require.NoError(t, err)
	assert.NotContains(t, ev.LikedBy, "9")
	assert.Equal(t, len(ev.LikedBy), ev.Likes)
}

func TestDeleteRemovesEmbeddedData(t *testing.T) {
	s, _ := newTestStore(t)
	b := s.Backend()
	require.NoError(t, b.Events.Delete("1"))
	_, err := b.Events.GetByID("1")
	assert.Equal(t, repos.ErrEntityNotExisting, err)
	_, err = b.Comments.ListByEvent("1")
	assert.Equal(t, repos.ErrEntityNotExisting, err)
	assert.Equal(t, repos.ErrEntityNotExisting, b.Events.Delete("1"))
}

func TestDeleteKeepsEarnedPoints(t *testing.T) {
	s, _ := newTestStore(t)
	b := s.Backend()
	require.NoError(t, b.Points.Award(&models.PointsEntry{UserID: "1", EventID: "2", Points: 10}))
	require.NoError(t, b.Events.Delete("2"))
	total, err := b.Points.Total("1")
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}

func TestCommentsAreAppended(t *testing.T) {
	s, _ := newTestStore(t)
	b := s.Backend()
	c := models.Comment{EventID: "1", UserID: "2", UserName: "Ana García", Content: "¡Nos vemos ahí!"}
	require.NoError(t, b.Comments.Create(&c))
	assert.NotEmpty(t, c.ID)
	lst, err := b.Comments.ListByEvent("1")
	require.NoError(t, err)
	require.Len(t, lst, 2)
	assert.Equal(t, "¡Nos vemos ahí!", lst[1].Content)

	assert.Equal(t, repos.ErrEntityNotExisting, b.Comments.Create(&models.Comment{EventID: "x"}))
}

func TestDuplicateEmailIsRejected(t *testing.T) {
	s, _ := newTestStore(t)
	ur := s.Backend().Users
	u := models.User{Name: "Otro Juan", Email: " Juan@Example.com"}
	assert.Equal(t, repos.ErrDuplicateEmail, ur.Create(&u))
	pending, err := ur.FindPending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	nu := models.User{Name: "Lucía", Email: "Lucia@Example.com"}
	require.NoError(t, ur.Create(&nu))
	assert.Equal(t, "lucia@example.com", nu.Email)
	assert.Equal(t, models.RoleUser, nu.Role)
	got, err := ur.GetByID(nu.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lucía", got.Name)
}

func TestPointsAwardIsUpsert(t *testing.T) {
	s, _ := newTestStore(t)
	pr := s.Backend().Points
	total, err := pr.Total("1")
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	require.NoError(t, pr.Award(&models.PointsEntry{UserID: "1", EventID: "1", Points: 50}))
	require.NoError(t, pr.Award(&models.PointsEntry{UserID: "1", EventID: "2", Points: 30}))
	require.NoError(t, pr.Award(&models.PointsEntry{UserID: "1", EventID: "1", Points: 60}))
	require.NoError(t, pr.Award(&models.PointsEntry{UserID: "2", EventID: "1", Points: 50}))
	total, err = pr.Total("1")
	require.NoError(t, err)
	assert.Equal(t, 90, total)
}

func TestDeviceSession(t *testing.T) {
	s, kv := newTestStore(t)
	cur, err := s.CurrentUser()
	require.NoError(t, err)
	assert.Nil(t, cur)

	u, err := s.Backend().Users.GetByID("1")
	require.NoError(t, err)
	require.NoError(t, s.SetCurrentUser(u))

	// A role change after sign-in shows up in the current user
	u.Role = models.RoleModerator
	require.NoError(t, s.Backend().Users.Update(u))
	cur, err = s.CurrentUser()
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, models.RoleModerator, cur.Role)

	require.NoError(t, kv.Set(KeyCurrentUser, "garbage"))
	cur, err = s.CurrentUser()
	require.NoError(t, err)
	assert.Nil(t, cur)
	_, ok, _ := kv.Get(KeyCurrentUser)
	assert.False(t, ok)

	sid, err := s.SessionID()
	require.NoError(t, err)
	assert.Regexp(t, `^session_\d+_[0-9a-z]{9}$`, sid)
	again, err := s.SessionID()
	require.NoError(t, err)
	assert.Equal(t, sid, again)
}

func TestExportOmitsPasswordHashes(t *testing.T) {
	s, _ := newTestStore(t)
	ur := s.Backend().Users
	u := models.User{Name: "Lucía", Email: "lucia@example.com"}
	require.NoError(t, u.SetPassword("secreto123"))
	require.NoError(t, ur.Create(&u))

	exp, err := s.Export()
	require.NoError(t, err)
	require.Len(t, exp.Users, 4)
	for _, eu := range exp.Users {
		assert.Empty(t, eu.PasswordHash, eu.Email)
	}
	data, err := json.Marshal(exp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "passwordHash")

	// Restoring the backup keeps the password known on this device
	require.NoError(t, s.Import(data))
	got, err := ur.GetByEmail("lucia@example.com")
	require.NoError(t, err)
	assert.NoError(t, got.CheckPassword("secreto123"))
}

func TestExportImportAndClear(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Backend().Events.Delete("2"))
	exp, err := s.Export()
	require.NoError(t, err)
	assert.Len(t, exp.Events, 3)
	data, err := json.Marshal(exp)
	require.NoError(t, err)

	require.NoError(t, s.Clear())
	count, err := s.Backend().Events.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	require.NoError(t, s.Import(data))
	count, err = s.Backend().Events.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.Error(t, s.Import([]byte("[")))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, st.Events)
	assert.Equal(t, 3, st.Users)
	assert.Equal(t, 1, st.Comments)
	assert.True(t, st.Bytes > 0)
}

func TestImagesAndNotifications(t *testing.T) {
	s, _ := newTestStore(t)
	ir := s.Images()
	img := models.Image{ImageInfo: models.ImageInfo{Filename: "a.jpg", ContentType: "image/jpeg", Size: 3}, Data: "AAEC"}
	require.NoError(t, ir.Save(&img))
	got, err := ir.Get(img.ID)
	require.NoError(t, err)
	assert.Equal(t, "AAEC", got.Data)
	lst, err := ir.List()
	require.NoError(t, err)
	require.Len(t, lst, 1)
	assert.Equal(t, img.ID, lst[0].ID)
	_, err = ir.Get("registry")
	assert.Equal(t, repos.ErrEntityNotExisting, err)

	nr := s.Notifications()
	require.NoError(t, nr.Append(&models.Notification{To: "juan@example.com", Subject: "Hola"}))
	sent, err := nr.List()
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.NotEmpty(t, sent[0].ID)
}
