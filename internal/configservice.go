package internal

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"golang.org/x/net/context"

	"github.com/1752rissy/enterate/internal/ctxhelper"
	"github.com/1752rissy/enterate/internal/log"
	"github.com/1752rissy/enterate/internal/models"
)

// Environment variables overriding values of the configuration file
const (
	EnvListen         = "ENTERATE_LISTEN"
	EnvDataDir        = "ENTERATE_DATA_DIR"
	EnvDBDriver       = "ENTERATE_DB_DRIVER"
	EnvDBDSN          = "ENTERATE_DB_DSN"
	EnvGoogleClientID = "ENTERATE_GOOGLE_CLIENT_ID"
	EnvAMQPURL        = "ENTERATE_AMQP_URL"
	EnvLogLevel       = "ENTERATE_LOG_LEVEL"
)

// ConfigService gives access to the application's configuration
type ConfigService interface {
	// Load loads the application config from its default file location
	Load(ctx context.Context) error
	// LoadFromFile loads the configuration from the given JSON file. A missing file leaves the defaults in place
	LoadFromFile(ctx context.Context, filename string) error
	// ApplyEnv overrides configuration values with the ENTERATE_* environment variables. Variables found in the
	// given .env files are added to the environment first, without replacing variables that are already set
	ApplyEnv(ctx context.Context, envFiles ...string) error
	// Write writes the current application configuration to the default file name
	Write(ctx context.Context) error
	// WriteToFile writes the current application configuration to a JSON file
	WriteToFile(ctx context.Context, filename string) error
	// GetConfig retuns the current application configuration
	GetConfig(ctx context.Context) models.AppConfig
	// Categories returns the categories events can be filed under
	Categories(ctx context.Context) []string
}

// -- ConfigService implementation -------------------------------------------------------------------------------------

type configService struct {
	configFilename string
	config         *models.AppConfig
}

// NewConfigService creates a new configuration service instance with the given default file name
func NewConfigService(configFilename string) ConfigService {
	return &configService{
		configFilename: configFilename,
	}
}

func (s *configService) ensureConfig() error {
	if s.config != nil {
		return nil
	}
	conf, err := models.GetDefaultConfig()
	if err != nil {
		return errors.Wrap(err, "Failed to create default config")
	}
	s.config = conf
	return nil
}

// Load loads the application config from its default file location
func (s *configService) Load(ctx context.Context) error {
	return s.LoadFromFile(ctx, s.configFilename)
}

// LoadFromFile loads the configuration from the given JSON file
func (s *configService) LoadFromFile(ctx context.Context, filename string) error {
	logger := ctxhelper.Logger(ctx)
	logger.WithField(log.FldFile, filename).Info("Loading configuration file")
	conf, err := models.GetDefaultConfig()
	if err != nil {
		return errors.Wrap(err, "LoadFromFile: Failed to create default config")
	}
	s.config = conf
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "LoadFromFile: cannot load configuration file")
	}
	defer f.Close()
	if err = json.NewDecoder(f).Decode(conf); err != nil {
		return errors.Wrap(err, "LoadFromFile: Failed to decode configuration file")
	}
	return nil
}

// ApplyEnv overrides configuration values with the ENTERATE_* environment variables
func (s *configService) ApplyEnv(ctx context.Context, envFiles ...string) error {
	logger := ctxhelper.Logger(ctx)
	if err := s.ensureConfig(); err != nil {
		return err
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		logger.WithField(log.FldFile, file).Info("Loading environment file")
		if err := godotenv.Load(file); err != nil {
			return errors.Wrapf(err, "ApplyEnv: Cannot read '%s'", file)
		}
	}
	overrides := map[string]*string{
		EnvListen:         &s.config.ListenAddress,
		EnvDataDir:        &s.config.DataDir,
		EnvDBDriver:       &s.config.Remote.Driver,
		EnvDBDSN:          &s.config.Remote.DSN,
		EnvGoogleClientID: &s.config.Auth.GoogleClientID,
		EnvAMQPURL:        &s.config.Notifications.AMQPURL,
		EnvLogLevel:       &s.config.LogLevel,
	}
	for name, target := range overrides {
		if val, ok := os.LookupEnv(name); ok && strings.TrimSpace(val) != "" {
			logger.Debugf("Configuration value overridden by %s", name)
			*target = strings.TrimSpace(val)
		}
	}
	return nil
}

// Write writes the current application configuration to the default file name
func (s *configService) Write(ctx context.Context) error {
	return s.WriteToFile(ctx, s.configFilename)
}

// WriteToFile writes the current application configuration to a JSON file
func (s *configService) WriteToFile(ctx context.Context, filename string) error {
	logger := ctxhelper.Logger(ctx)
	logger.WithField(log.FldFile, filename).Info("Writing configuration file")
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "WriteToFile: Cannot open configuration file '%s' to write to", filename)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	conf := s.GetConfig(ctx)
	if err := enc.Encode(&conf); err != nil {
		return errors.Wrap(err, "WriteToFile: Failed to serialize configuration data")
	}
	return nil
}

// GetConfig retuns the current application configuration
func (s *configService) GetConfig(ctx context.Context) models.AppConfig {
	var ret models.AppConfig
	if s.config != nil {
		ret = *s.config
	} else {
		if tmp, err := models.GetDefaultConfig(); err == nil {
			ret = *tmp
		}
	}
	return ret
}

// Categories returns the categories events can be filed under
func (s *configService) Categories(ctx context.Context) []string {
	return append([]string{}, s.GetConfig(ctx).Categories...)
}
