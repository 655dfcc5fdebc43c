// Package notify fans out desktop alerts about sent notifications. Publishing is best effort: callers log failures
// and carry on
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
)

// Publisher distributes an alert for a notification
type Publisher interface {
	Publish(ctx context.Context, n *models.Notification) error
	Close() error
}

// Alert is the message body published for a notification
type Alert struct {
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Kind    string    `json:"kind"`
	To      string    `json:"to"`
	SentAt  time.Time `json:"sentAt"`
	Success bool      `json:"success"`
}

// MakeAlert builds the alert shown for a notification
func MakeAlert(n *models.Notification) Alert {
	return Alert{
		Title:   n.Subject,
		Body:    "Email enviado a " + n.To,
		Kind:    n.Kind,
		To:      n.To,
		SentAt:  n.SentAt,
		Success: n.Status == models.NotificationSent,
	}
}

// -- Log publisher ----------------------------------------------------------------------------------------------------

// LogPublisher only writes the alert to the log. It is used when no broker is configured
type LogPublisher struct {
	logger *logrus.Entry
}

// NewLogPublisher creates a publisher writing to the given logger
func NewLogPublisher(logger *logrus.Entry) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the alert
func (p *LogPublisher) Publish(_ context.Context, n *models.Notification) error {
	a := MakeAlert(n)
	p.logger.WithFields(logrus.Fields{
		log.FldEmail: a.To,
		log.FldKind:  a.Kind,
	}).Infof("Alert: %s", a.Title)
	return nil
}

// Close does nothing
func (p *LogPublisher) Close() error {
	return nil
}

// -- AMQP publisher ---------------------------------------------------------------------------------------------------

// AMQPPublisher publishes alerts as JSON messages to a fanout exchange
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *logrus.Entry
}

// DialAMQP connects to the broker and declares the alert exchange
func DialAMQP(url, exchange string, logger *logrus.Entry) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "DialAMQP: Cannot connect to broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "DialAMQP: Cannot open channel")
	}
	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeFanout,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrap(err, "DialAMQP: Cannot declare exchange")
	}
	logger.WithField("exchange", exchange).Info("Publishing alerts to the message broker")
	return &AMQPPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// Publish sends the alert to the exchange
func (p *AMQPPublisher) Publish(ctx context.Context, n *models.Notification) error {
	body, err := json.Marshal(MakeAlert(n))
	if err != nil {
		return errors.Wrap(err, "Publish: Cannot serialize alert")
	}
	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		return errors.Wrap(err, "Publish: Broker rejected the alert")
	}
	p.logger.WithField(log.FldID, n.ID).Debug("Alert published")
	return nil
}

// Close shuts down channel and connection
func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
