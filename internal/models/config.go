package models

import (
	"path"

	"github.com/kardianos/osext"
)

// AppConfig is the application's main configuration structure
type AppConfig struct {
	// The directory where Entérate stores the device-local data - defaults to the /data subdirectory of the folder
	// the executable resides in
	DataDir string `json:"dataDir"`
	// The IP address to listen at - including the port number
	ListenAddress string `json:"listenAddress"`
	// One of logrus' level names
	LogLevel string `json:"logLevel"`
	// Connection to the hosted database
	Remote RemoteConfig `json:"remote"`
	// Sign-in settings
	Auth AuthConfig `json:"auth"`
	// Role request e-mails and desktop alerts
	Notifications NotificationConfig `json:"notifications"`
	// Limits for uploaded images
	Images ImageConfig `json:"images"`
	// The categories an event can be filed under
	Categories []string `json:"categories"`
}

// RemoteConfig configures the remote store. An empty DSN disables it and the device store is used
type RemoteConfig struct {
	// Database driver name: "sqlite3" or "postgres"
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
	// Run the schema migrations before probing
	AutoMigrate bool `json:"autoMigrate"`
	// Timeout for the connectivity probe in seconds
	ProbeTimeout uint `json:"probeTimeout"`
}

// AuthConfig configures how users sign in
type AuthConfig struct {
	// OAuth client ID used when verifying Google ID tokens. Google sign-in is disabled when empty
	GoogleClientID string `json:"googleClientId"`
	// Minimum length of passwords chosen at registration
	MinPasswordLength int `json:"minPasswordLength"`
}

// NotificationConfig configures the simulated e-mail delivery and the desktop alert fan-out
type NotificationConfig struct {
	// Simulated delivery latency in milliseconds
	SimulatedDelay uint `json:"simulatedDelay"`
	// Broker URL for desktop alerts; alerts are only logged when empty
	AMQPURL  string `json:"amqpUrl"`
	Exchange string `json:"exchange"`
}

// ImageConfig limits uploaded images
type ImageConfig struct {
	MaxBytes  int `json:"maxBytes"`
	MaxWidth  int `json:"maxWidth"`
	MaxHeight int `json:"maxHeight"`
	// Upper bound for width x height of an upload before it is decoded
	MaxPixels int `json:"maxPixels"`
}

// GetDefaultConfig returns the default configuration values for the application
func GetDefaultConfig() (*AppConfig, error) {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		return nil, err
	}
	return &AppConfig{
		DataDir:       path.Join(execDir, "data"),
		ListenAddress: ":3000",
		LogLevel:      "info",
		Remote: RemoteConfig{
			Driver:       "sqlite3",
			AutoMigrate:  true,
			ProbeTimeout: 5,
		},
		Auth: AuthConfig{
			MinPasswordLength: 6,
		},
		Notifications: NotificationConfig{
			SimulatedDelay: 2000,
			Exchange:       "enterate.notifications",
		},
		Images: ImageConfig{
			MaxBytes:  5 * 1024 * 1024,
			MaxWidth:  1600,
			MaxHeight: 1600,
			MaxPixels: 40 * 1000 * 1000,
		},
		Categories: []string{
			"Música",
			"Gastronomía",
			"Turismo",
			"Arte",
			"Deportes",
			"Tecnología",
			"Educación",
			"Otros",
		},
	}, nil
}
