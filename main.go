package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/kardianos/osext"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	enterate "github.com/1752rissy/enterate/internal"
	"github.com/1752rissy/enterate/internal/ctxhelper"
	"github.com/1752rissy/enterate/internal/identity"
	"github.com/1752rissy/enterate/internal/kvstore"
	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/notify"
	"github.com/1752rissy/enterate/internal/repos"
	"github.com/1752rissy/enterate/internal/repos/local"
	sessionrepo "github.com/1752rissy/enterate/internal/repos/session/inmem"
	"github.com/1752rissy/enterate/internal/storage"
)

const (
	appName    = "Entérate"
	appVersion = "0.1.0"
)

// Checks and tries to create the given directory recursively (or panics if this fails)
func checkAndCreateDir(path string, logger *logrus.Entry) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if e, ok := err.(*os.PathError); ok && e.Err == syscall.ENOENT {
			logger.WithField(log.FldPath, path).Info("Directory does not exist - trying to create...")
			if err = os.MkdirAll(path, os.ModePerm); err != nil {
				logger.WithError(err).Fatal("Failed to create directory")
			}
			logger.Info("Directory created successfully")
		} else {
			logger.WithError(err).Fatal("Stat has failed")
		}
	} else {
		if !fileInfo.IsDir() {
			logger.Fatalf("'%s' is not a directory. Remove the plain file if you want to continue", path)
		}
	}
}

// makePublisher connects to the alert broker if one is configured. Without broker, alerts are only logged
func makePublisher(url, exchange string, logger *logrus.Entry) notify.Publisher {
	if url == "" {
		return notify.NewLogPublisher(logger)
	}
	pub, err := notify.DialAMQP(url, exchange, logger)
	if err != nil {
		logger.WithError(err).Warn("Cannot reach the alert broker - alerts are only logged")
		return notify.NewLogPublisher(logger)
	}
	return pub
}

func main() {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		panic(err)
	}

	configFile := flag.String(
		"config",
		filepath.Join(execDir, "config.json"),
		"The configuration file to load the application's configuration from",
	)
	flag.Parse()

	ctx := context.Background()

	// Initialize the logger
	logger := logrus.WithField(log.FldVersion, appVersion)
	logger.Infof("%s version %s is starting up...", appName, appVersion)
	ctx = context.WithValue(ctx, ctxhelper.KeyLogger, logger)

	// Load the main configuration file and apply the environment on top
	cs := enterate.NewConfigService(*configFile)
	if err := cs.Load(ctx); err != nil {
		logger.WithError(err).Error("Cannot load config. Using defaults")
	}
	if err := cs.ApplyEnv(ctx, filepath.Join(execDir, ".env"), ".env"); err != nil {
		logger.WithError(err).Error("Cannot apply environment")
	}
	conf := cs.GetConfig(ctx)
	if lvl, err := logrus.ParseLevel(conf.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	} else {
		logger.WithError(err).Warnf("Unknown log level '%s'", conf.LogLevel)
	}

	logger.Infof("Using '%s' as data directory", conf.DataDir)
	checkAndCreateDir(conf.DataDir, logger)

	// The device store always exists - it holds the device session, images and the e-mail log and steps in for the
	// remote store when that cannot be reached
	localStore := local.New(kvstore.NewFile(conf.DataDir), logger.WithField(log.FldBackend, repos.KindLocal))
	backend, db := storage.Resolve(ctx, conf.Remote, localStore.Backend(), logger)
	var migrator *storage.Migrator
	if db != nil {
		defer db.Close()
		migrator = storage.NewMigrator(backend, localStore.Backend().Events, logger)
	}
	logger.WithField(log.FldBackend, backend.Kind).Info("Storage backend selected")

	sessionRepo := sessionrepo.New()
	defer sessionRepo.Close()

	var verifier identity.Verifier
	if conf.Auth.GoogleClientID != "" {
		verifier = identity.NewGoogleVerifier(conf.Auth.GoogleClientID)
	} else {
		logger.Info("No Google client ID configured - Google sign-in is disabled")
	}

	publisher := makePublisher(conf.Notifications.AMQPURL, conf.Notifications.Exchange, logger)
	defer publisher.Close()

	evSrv := enterate.NewEventService(backend, migrator, cs, logger)
	notifSrv := enterate.NewNotificationService(localStore.Notifications(), publisher, conf.Notifications, logger)
	services := enterate.Services{
		Events:        evSrv,
		Sessions:      enterate.NewSessionService(sessionRepo, backend.Users, localStore, verifier, conf.Auth, logger),
		Users:         enterate.NewUserService(backend.Users, backend.Points, notifSrv, logger),
		Notifications: notifSrv,
		Images:        enterate.NewImageService(localStore.Images(), conf.Images, logger),
		Device:        enterate.NewDeviceService(localStore, backend.Kind, logger),
	}

	// Initial load - fills an empty remote store
	if res, err := evSrv.Refresh(ctx); err != nil {
		logger.WithError(err).Error("Initial load of events failed")
	} else {
		logger.Infof("%d events available", len(res.Events))
		if res.Migration != nil {
			logger.WithFields(logrus.Fields{
				"source": res.Migration.Source,
				"failed": res.Migration.Failed,
			}).Infof("Copied %d events into the remote store", res.Migration.Copied)
		}
	}

	httpLogger := logger.WithField(log.FldTransport, "HTTP")
	h := enterate.MakeHTTPHandler(services, httpLogger)

	// Start listening
	errs := make(chan error)

	// Listen for stop signals that will end the service
	go func() {
		c := make(chan os.Signal, 2)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		err := fmt.Errorf("%s", <-c)
		logger.Info("Caught signal to stop. Shutting down.")
		errs <- err
	}()

	go func() {
		httpLogger.WithField("addr", conf.ListenAddress).Info("Starting listening port")
		errs <- http.ListenAndServe(conf.ListenAddress, h)
	}()

	// Watchdog for systemd
	go func() {
		interval, err := daemon.SdWatchdogEnabled(false)
		if err != nil || interval == 0 {
			return
		}
		logger.Info("Activating systemd watchdog goroutine")
		port := conf.ListenAddress[strings.LastIndex(conf.ListenAddress, ":")+1:]
		url := fmt.Sprintf("http://127.0.0.1:%s/alive", port)
		for {
			if resp, err := http.Get(url); err == nil {
				resp.Body.Close()
				daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
			time.Sleep(interval / 3)
		}
	}()

	// Notify systemd that we are ready to go (if available)
	daemon.SdNotify(false, daemon.SdNotifyReady)

	logger.WithError(<-errs).Error("Shutdown complete")
}
