package constants

import "time"

const (
	AppName            = "daystreak"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/daystreak"
	DefaultConfigPath  = "~/.config/daystreak/config.yaml"
	DefaultDBPath      = "~/.config/daystreak/daystreak.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "daystreak-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.daystreak"
	TrayExecutablePrefix   = "daystreak-tray"

	// Environment variables
	EnvPrefix       = "DAYSTREAK_"
	EnvDBConnection = "DAYSTREAK_DB_CONNECTION"
)
