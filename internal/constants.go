package internal

const (
	DotEnvPath       = "./.env"
	ConfigPath       = "config.yaml"
	OAuthStateCookie = "oauth_state"
	UserIDHeader     = "user-id"
	KeysDirPattern   = "gitbridge-keys-*"
)
