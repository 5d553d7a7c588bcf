package settings

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func NewSettings() *AppSettings {
	settings := AppSettings{
		Domain:           getEnvOrDefault("GITBRIDGE_DOMAIN", "localhost"),
		Port:             getEnvOrDefault("PORT", ":3001"),
		AllowedOrigins:   splitList(getEnvOrDefault("GITBRIDGE_ALLOWED_ORIGINS", "*")),
		DefaultUserID:    getEnvOrDefault("GITBRIDGE_DEFAULT_USER_ID", "default-user"),
		KeysDir:          getEnvOrDefault("GITBRIDGE_KEYS_DIR", os.TempDir()),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		StateCookieTTL:   10 * time.Minute,
		DBDriver:         getEnvOrDefault("DB_DRIVER", DriverSQLite),
		SQLiteDatabase:   getEnvOrDefault("DB_PATH", "file:.///gitbridge.sqlite"),
		DBHost:           getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:           getEnvOrDefault("DB_PORT", "5432"),
		DBUsername:       getEnvOrDefault("DB_USERNAME", "postgres"),
		DBPassword:       getEnvOrDefault("DB_PASSWORD", ""),
		DBName:           getEnvOrDefault("DB_NAME", "git_ssh_manager"),
		GitHub:           oauthClientFromEnv("GITHUB"),
		Bitbucket:        oauthClientFromEnv("BITBUCKET"),
		OAuthRedirectURI: getEnvOrDefault("OAUTH_REDIRECT_URI", "http://localhost:3000/git"),
		Airflow: OrchestratorSettings{
			BaseURL:  getEnvOrDefault("AIRFLOW_API_URL", "http://localhost:8080"),
			Username: getEnvOrDefault("AIRFLOW_USERNAME", ""),
			Password: getEnvOrDefault("AIRFLOW_PASSWORD", ""),
			CLI:      getEnvOrDefault("AIRFLOW_CLI", "airflow"),
		},
	}
	if !strings.HasPrefix(settings.Port, ":") {
		settings.Port = ":" + settings.Port
	}
	return &settings
}

func getEnvOrDefault(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return value
}

func oauthClientFromEnv(prefix string) OAuthClient {
	return OAuthClient{
		ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
		ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
	}
}

func splitList(s string) []string {
	values := make([]string, 0)
	for v := range strings.SplitSeq(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

type OAuthClient struct {
	ClientID     string
	ClientSecret string
}

func (oc OAuthClient) Configured() bool {
	return oc.ClientID != "" && oc.ClientSecret != ""
}

type OrchestratorSettings struct {
	BaseURL  string
	Username string
	Password string
	// Executable name or path of the orchestrator command-line tool
	CLI string
}

type AppSettings struct {
	Domain         string
	Port           string
	AllowedOrigins []string
	DefaultUserID  string
	KeysDir        string
	LogLevel       string
	StateCookieTTL time.Duration

	DBDriver       string
	SQLiteDatabase string
	DBHost         string
	DBPort         string
	DBUsername     string
	DBPassword     string
	DBName         string

	GitHub           OAuthClient
	Bitbucket        OAuthClient
	OAuthRedirectURI string

	Airflow OrchestratorSettings
}

func (as *AppSettings) BaseURL() string {
	if as.Domain == "localhost" {
		return fmt.Sprintf("http://%s%s", as.Domain, as.Port)
	} else {
		return fmt.Sprintf("https://%s", as.Domain)
	}
}

// DSN returns the data source name for the configured driver. The readonly
// flag only applies to SQLite, where reads and writes use separate handles.
func (as *AppSettings) DSN(readonly bool) string {
	if as.DBDriver == DriverPostgres {
		return as.PostgresDbString()
	}
	return as.SQLiteDbString(readonly)
}

func (as *AppSettings) SQLiteDbString(readonly bool) string {
	params := make(url.Values)
	params.Add("_journal_mode", "WAL")
	params.Add("_busy_timeout", "5000")
	params.Add("_synchronous", "NORMAL")
	params.Add("_cache_size", "-20000")
	if readonly {
		params.Add("mode", "ro")
	} else {
		params.Add("_txlock", "IMMEDIATE")
		params.Add("mode", "rwc")
	}

	return as.SQLiteDatabase + "?" + params.Encode()
}

func (as *AppSettings) PostgresDbString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(as.DBUsername, as.DBPassword),
		Host:   as.DBHost + ":" + as.DBPort,
		Path:   as.DBName,
	}
	q := u.Query()
	q.Set("sslmode", getEnvOrDefault("DB_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

// ReadDotenv loads KEY=value lines from path into the process environment.
// Variables that are already set are left untouched.
func ReadDotenv(path string) error {
	re := regexp.MustCompile(`^[^0-9][A-Z0-9_]+=.+$`)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) > 0 && line[0] != '#' && re.Match(line) {
			name, value, _ := strings.Cut(string(line), "=")
			name = strings.TrimSpace(name)
			value = strings.TrimSpace(value)
			value = strings.Trim(value, `"`)
			if _, exists := os.LookupEnv(name); exists {
				continue
			}
			os.Setenv(name, value)
		}
	}
	return scanner.Err()
}
