package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	APIConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	ServerConfig struct {
		Host                   string
		Address                string
		SessionCookie          string
		SessionExpirationDelta time.Duration
		ShutdownTimeout        time.Duration
	}

	PollConfig struct {
		Interval       time.Duration
		RefreshingTail time.Duration
	}

	RefreshConfig struct {
		Enabled     bool
		Interval    time.Duration
		WarningLead time.Duration
		CheckEvery  time.Duration
		ReloadDelay time.Duration
	}

	StorageConfig struct {
		Driver string // sqlite | postgres | memory
		DSN    string
	}

	Config struct {
		Env          string
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string

		API     APIConfig
		Server  ServerConfig
		Poll    PollConfig
		Refresh RefreshConfig
		Storage StorageConfig
	}
)

// NewConfig reads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
// ENV selects the environment: DEV (default), TEST, QA, PROD. Variables are prefixed with it, e.g. DEV_API_BASEURL.
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Masomo")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("api.baseURL", "http://localhost:8000")
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.sessionCookie", "masomo_session")
	v.SetDefault("server.sessionExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("poll.interval", 30*time.Second)
	v.SetDefault("poll.refreshingTail", time.Second)

	v.SetDefault("refresh.enabled", true)
	v.SetDefault("refresh.interval", 90*time.Second)
	v.SetDefault("refresh.warningLead", 5*time.Second)
	v.SetDefault("refresh.checkEvery", time.Second)
	v.SetDefault("refresh.reloadDelay", 500*time.Millisecond)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "masomo-portal.db")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("storage.driver", "memory")
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("api.baseURL"), "/"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Server: ServerConfig{
			Host:                   v.GetString("server.host"),
			Address:                v.GetString("server.address"),
			SessionCookie:          v.GetString("server.sessionCookie"),
			SessionExpirationDelta: v.GetDuration("server.sessionExpirationDelta"),
			ShutdownTimeout:        v.GetDuration("server.shutdownTimeout"),
		},
		Poll: PollConfig{
			Interval:       v.GetDuration("poll.interval"),
			RefreshingTail: v.GetDuration("poll.refreshingTail"),
		},
		Refresh: RefreshConfig{
			Enabled:     v.GetBool("refresh.enabled"),
			Interval:    v.GetDuration("refresh.interval"),
			WarningLead: v.GetDuration("refresh.warningLead"),
			CheckEvery:  v.GetDuration("refresh.checkEvery"),
			ReloadDelay: v.GetDuration("refresh.reloadDelay"),
		},
		Storage: StorageConfig{
			Driver: v.GetString("storage.driver"),
			DSN:    v.GetString("storage.dsn"),
		},
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	if c.Poll.Interval <= 0 {
		return NewValidationError(errors.New("invalid poll interval"), FieldError{Field: "poll.interval", Error: "must be positive"})
	}
	if c.Refresh.WarningLead >= c.Refresh.Interval {
		return NewValidationError(
			errors.New("invalid refresh warning lead"),
			FieldError{Field: "refresh.warningLead", Error: "must be shorter than refresh.interval"},
		)
	}
	return nil
}

// configDir returns $CONFIG_DIR, or the "config" directory under the working directory.
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "config"
	}
	return filepath.Join(wd, "config")
}
