package internal

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/1752rissy/enterate/internal/ctxhelper"
	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/notify"
	"github.com/1752rissy/enterate/internal/repos"
)

// NotificationService sends the (simulated) e-mails about role request decisions
type NotificationService interface {
	// SendRoleDecision renders and "sends" the e-mail telling the user about the decision on the role request
	SendRoleDecision(ctx context.Context, u *models.User, approved bool) (*models.Notification, error)
	// List returns the log of sent notifications
	List(ctx context.Context) ([]models.Notification, error)
}

const mailLayout = `<!DOCTYPE html>
<html>
  <head><meta charset="utf-8"><title>{{.Subject}}</title></head>
  <body style="font-family: Arial, sans-serif; color: #333; background-color: #f8fafc;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h1>{{block "headline" .}}{{end}}</h1>
      {{block "content" .}}{{end}}
      <p style="text-align: center; color: #666; font-size: 14px;">
        Este correo fue enviado automáticamente por el sistema Entérate.<br>
        No respondas a este correo - es una cuenta no monitoreada.
      </p>
    </div>
  </body>
</html>`

const approvalMail = `{{define "headline"}}¡Felicitaciones {{.Name}}!{{end}}
{{define "content"}}
<p>Tu solicitud para convertirte en <strong>{{.RoleName}}</strong> de la plataforma Entérate ha sido
<strong>aprobada</strong> por nuestro equipo de moderación.</p>
<p>En tu próximo inicio de sesión vas a tener acceso a las herramientas para crear, editar y eliminar eventos.</p>
{{end}}`

const rejectionMail = `{{define "headline"}}Hola {{.Name}}{{end}}
{{define "content"}}
<p>Gracias por tu interés en convertirte en <strong>{{.RoleName}}</strong> de la plataforma Entérate.</p>
<p>Después de revisar tu solicitud, en este momento no podemos aprobarla. Podés seguir participando en eventos y
volver a solicitarlo en el futuro.</p>
{{end}}`

var (
	approvalTpl  = template.Must(template.Must(template.New("mail").Parse(mailLayout)).Parse(approvalMail))
	rejectionTpl = template.Must(template.Must(template.New("mail").Parse(mailLayout)).Parse(rejectionMail))
	roleNames    = map[models.Role]string{
		models.RoleModerator: "moderador",
		models.RoleAdmin:     "administrador",
	}
)

type mailData struct {
	Subject  string
	Name     string
	RoleName string
}

// -- NotificationService implementation -------------------------------------------------------------------------------

type notificationService struct {
	repo      repos.NotificationRepo
	publisher notify.Publisher
	delay     time.Duration
	logger    *logrus.Entry
}

// NewNotificationService creates a notification service logging into repo and announcing every sent e-mail through
// the publisher
func NewNotificationService(
	repo repos.NotificationRepo,
	publisher notify.Publisher,
	conf models.NotificationConfig,
	logger *logrus.Entry,
) NotificationService {
	return &notificationService{
		repo:      repo,
		publisher: publisher,
		delay:     time.Duration(conf.SimulatedDelay) * time.Millisecond,
		logger:    logger,
	}
}

// SendRoleDecision renders the decision e-mail, waits for the simulated delivery and logs it as sent
func (s *notificationService) SendRoleDecision(ctx context.Context, u *models.User, approved bool) (*models.Notification, error) {
	roleName, ok := roleNames[u.RequestedRole]
	if !ok {
		roleName = string(u.RequestedRole)
	}
	data := mailData{Name: u.Name, RoleName: roleName}
	tpl := rejectionTpl
	n := models.Notification{
		To:     u.Email,
		ToName: u.Name,
		Kind:   models.NotificationRejection,
	}
	if approved {
		tpl = approvalTpl
		n.Kind = models.NotificationApproval
		data.Subject = "¡Tu solicitud de " + roleName + " ha sido aprobada! - Entérate"
	} else {
		data.Subject = "Actualización sobre tu solicitud de " + roleName + " - Entérate"
	}
	n.Subject = data.Subject
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeUnknown, "Failed to render e-mail", err)
	}
	n.HTML = buf.String()

	logger := ctxhelper.Logger(ctx).WithField(log.FldEmail, u.Email)
	logger.Info("Sending e-mail")
	n.Status = models.NotificationSent
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		n.Status = models.NotificationFailed
	}
	if err := s.repo.Append(&n); err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to log e-mail", err)
	}
	if err := s.publisher.Publish(ctx, &n); err != nil {
		logger.WithError(err).Warn("Failed to publish desktop alert")
	}
	return &n, nil
}

// List returns the log of sent notifications
func (s *notificationService) List(ctx context.Context) ([]models.Notification, error) {
	lst, err := s.repo.List()
	if err != nil {
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError, "Failed to read notifications", err)
	}
	return lst, nil
}
