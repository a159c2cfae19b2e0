package envvar

const (
	// XgenAudioEnv is the environment variable used to determine the environment
	XgenAudioEnv = "XGENAUDIO_ENV"

	// XgenAudioHTTPAddr is the environment variable used to determine the HTTP listen address
	XgenAudioHTTPAddr = "XGENAUDIO_HTTP_ADDR"

	// XgenAudioRedisAddr is the environment variable used to override the Redis address
	XgenAudioRedisAddr = "XGENAUDIO_REDIS_ADDR"

	// XgenAudioDatabaseURL is the environment variable used to override the database URL
	XgenAudioDatabaseURL = "XGENAUDIO_DATABASE_URL"
)
