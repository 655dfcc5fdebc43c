package storage

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/1752rissy/enterate/internal/fixtures"
	"github.com/1752rissy/enterate/internal/ledger"
	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
	"github.com/1752rissy/enterate/internal/repos"
)

// Sources of migrated events
const (
	SourceLocal    = "local"
	SourceFixtures = "fixtures"
)

// MigrationReport summarizes a migration run
type MigrationReport struct {
	// Where the events came from: SourceLocal or SourceFixtures
	Source string `json:"source"`
	// Number of events copied completely
	Copied int `json:"copied"`
	// Number of events that failed at least partially
	Failed int `json:"failed"`
}

// Migrator fills an empty remote store with the events of the device store
type Migrator struct {
	target repos.Backend
	source repos.EventRepo
	ledger *ledger.Ledger
	logger *logrus.Entry
}

// NewMigrator creates a migrator copying events from source into target
func NewMigrator(target repos.Backend, source repos.EventRepo, logger *logrus.Entry) *Migrator {
	return &Migrator{
		target: target,
		source: source,
		ledger: ledger.New(target.Interactions, logger),
		logger: logger,
	}
}

// MigrateIfEmpty copies the device events into the target store if the target holds no events. Without device events
// the demo events are used. Every event is copied on its own; failures are logged and counted, the run continues with
// the next event. Returns a nil report if there was nothing to do
func (m *Migrator) MigrateIfEmpty() (*MigrationReport, error) {
	n, err := m.target.Events.Count()
	if err != nil {
		return nil, errors.Wrap(err, "MigrateIfEmpty: Cannot count target events")
	}
	if n > 0 {
		return nil, nil
	}
	evts, err := m.source.List()
	if err != nil {
		return nil, errors.Wrap(err, "MigrateIfEmpty: Cannot read device events")
	}
	report := &MigrationReport{Source: SourceLocal}
	if len(evts) == 0 {
		report.Source = SourceFixtures
		evts = fixtures.Events()
	}
	m.logger.WithField(log.FldBackend, m.target.Kind).Infof("Target store is empty - copying %d events from %s",
		len(evts), report.Source)
	// Oldest first, so the insertion order matches the creation order
	for i := len(evts) - 1; i >= 0; i-- {
		if err := m.copyEvent(&evts[i]); err != nil {
			m.logger.WithError(err).WithField(log.FldEvent, evts[i].ID).Error("Failed to copy event")
			report.Failed++
			continue
		}
		report.Copied++
	}
	m.logger.WithFields(logrus.Fields{
		"copied": report.Copied,
		"failed": report.Failed,
	}).Info("Migration finished")
	return report, nil
}

func (m *Migrator) copyEvent(src *models.Event) error {
	ev := *src
	if err := m.target.Events.Create(&ev); err != nil {
		return errors.Wrap(err, "copyEvent: Cannot create event")
	}
	var failed error
	for _, c := range src.Comments {
		c.EventID = ev.ID
		if err := m.target.Comments.Create(&c); err != nil {
			failed = errors.Wrap(err, "copyEvent: Cannot copy comment")
		}
	}
	for _, userID := range src.LikedBy {
		if err := m.target.Interactions.Set(ev.ID, userID, models.InteractionLike, true); err != nil {
			failed = errors.Wrap(err, "copyEvent: Cannot copy like")
		}
	}
	for _, userID := range src.Attendees {
		if err := m.target.Interactions.Set(ev.ID, userID, models.InteractionAttend, true); err != nil {
			failed = errors.Wrap(err, "copyEvent: Cannot copy attendance")
		}
	}
	if err := m.ledger.Recount(ev.ID); err != nil {
		failed = err
	}
	return failed
}
