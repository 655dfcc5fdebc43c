package notify

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1752rissy/enterate/internal/models"
)

func TestMakeAlert(t *testing.T) {
	sent := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	a := MakeAlert(&models.Notification{
		To:      "juan@example.com",
		Subject: "¡Tu solicitud de rol ha sido aprobada!",
		Kind:    models.NotificationApproval,
		SentAt:  sent,
		Status:  models.NotificationSent,
	})
	assert.Equal(t, "¡Tu solicitud de rol ha sido aprobada!", a.Title)
	assert.Equal(t, "Email enviado a juan@example.com", a.Body)
	assert.True(t, a.Success)
	assert.Equal(t, sent, a.SentAt)
}

func TestLogPublisher(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := NewLogPublisher(logrus.NewEntry(logger))
	require.NoError(t, p.Publish(context.Background(), &models.Notification{
		To:      "ana.moderator@example.com",
		Subject: "Hola",
		Kind:    models.NotificationRejection,
	}))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "Alert: Hola", hook.LastEntry().Message)
	assert.Equal(t, "ana.moderator@example.com", hook.LastEntry().Data["email"])
	assert.NoError(t, p.Close())
}
