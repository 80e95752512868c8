package constants

const (
	// Config keys
	SettingDatabase       = "database"
	SettingUserID         = "user_id"
	SettingTimezone       = "timezone"
	SettingDebug          = "debug"
	SettingLogFormat      = "log_format"
	SettingServerAddr     = "server.addr"
	SettingNATSURL        = "nats.url"
	SettingNATSPrefix     = "nats.subject_prefix"
	SettingCountEmptyDays = "streak.count_empty_days"

	// Default Settings Values
	DefaultTimezone          = "Local" // Use system local timezone by default
	DefaultLogFormat         = "text"
	DefaultServerAddr        = ":8080"
	DefaultNATSSubjectPrefix = "daystreak.events"
	DefaultCountEmptyDays    = false

	// KeyringDatabase is the sentinel database value that reads the
	// connection string from the OS keyring.
	KeyringDatabase = "keyring"
)
