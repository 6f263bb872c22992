package constants

const (
	Version = "0.3.0"

	ISO8601DateFormat = "2006-01-02T15:04:05Z07:00"

	// prefix of stored notification ids, e.g. "NOTIFICATION-01D78XYFJ1PRM1WPBCBT3VHMNV"
	NotificationIDPrefix = "NOTIFICATION"
)

// process exit codes
const (
	SuccessCode = iota
	ConfigPathErr
	ConfigLoadErr
	ConfigGetErr
	LoggerErr
	ZRUClientErr
	NotificationDatabaseErr
	DeduplicationErr
	ServerErr
)
