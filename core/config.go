package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds the client settings. Values come from defaults, an optional
// `config/.env.<env>` file and environment variables prefixed with the env name
// (eg. DEV_APIBASEURL).
type Config struct {
	Env      string
	AppName  string
	Debug    bool
	TestMode bool
	Build    string

	APIBaseURL    string
	APITimeout    time.Duration
	RedirectDelay time.Duration
	PhoneRegion   string
	SessionFile   string
	RollbarToken  string

	// dev stub API
	StubAddress        string
	StubAdminPassword  string
	SecretKey          string
	JWTExpirationDelta time.Duration
	DefaultFromEmail   mail.Address
	SendgridAPIKey     string // console mailer when empty
}

// LoadConfig reads the configuration for the env named by $ENV (DEV by default).
// configDir may be empty, in which case "./config" is used.
func LoadConfig(configDir string) (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "TRACE")
	v.SetDefault("build", "dev")
	v.SetDefault("apiBaseURL", "http://localhost:8000")
	v.SetDefault("apiTimeout", 15*time.Second)
	v.SetDefault("redirectDelay", 3*time.Second)
	v.SetDefault("phoneRegion", "PH")
	v.SetDefault("sessionFile", defaultSessionFile())
	v.SetDefault("rollbarToken", "")
	v.SetDefault("stubAddress", ":8000")
	v.SetDefault("stubAdminPassword", "Admin#2024")
	v.SetDefault("secretKey", "x7#kd0-q9)trace!s3cr3t+dev(2m@p1")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("defaultFromEmail", "TRACE <noreply@trace.local>")
	v.SetDefault("sendgridAPIKey", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	if configDir == "" {
		configDir = "config"
	}
	dotEnvPath := filepath.Join(configDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing defaultFromEmail")
	}

	return &Config{
		Env:                env,
		AppName:            v.GetString("appName"),
		Debug:              v.GetBool("debug"),
		TestMode:           v.GetBool("testMode"),
		Build:              v.GetString("build"),
		APIBaseURL:         strings.TrimRight(v.GetString("apiBaseURL"), "/"),
		APITimeout:         v.GetDuration("apiTimeout"),
		RedirectDelay:      v.GetDuration("redirectDelay"),
		PhoneRegion:        v.GetString("phoneRegion"),
		SessionFile:        v.GetString("sessionFile"),
		RollbarToken:       v.GetString("rollbarToken"),
		StubAddress:        v.GetString("stubAddress"),
		StubAdminPassword:  v.GetString("stubAdminPassword"),
		SecretKey:          v.GetString("secretKey"),
		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		DefaultFromEmail:   *from,
		SendgridAPIKey:     v.GetString("sendgridAPIKey"),
	}, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "trace", "session.yaml")
}
