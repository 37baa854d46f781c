package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env      string // DEV (local; default), TEST, QA, PROD
		Debug    bool
		TestMode bool
		AppName  string
		// SecretKey signs the session cookie so a tampered cookie is
		// rejected before any store lookup.
		SecretKey []byte
		WorkDir   string
		Build     string

		// BaseURL is the public URL of this app; used in share-email links.
		BaseURL string

		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		Server   ServerConfig
		BancoAPI BancoAPIConfig
		Redis    RedisConfig
	}

	ServerConfig struct {
		Host            string
		Port            string
		SessionCookie   string
		SessionTTL      time.Duration
		ShutdownTimeout time.Duration
	}

	// BancoAPIConfig points at the external resource backend.
	BancoAPIConfig struct {
		BaseURL string
		Timeout time.Duration
		// UploadTimeout bounds multipart uploads; large files take a while
		// but must never hang indefinitely.
		UploadTimeout time.Duration
	}

	RedisConfig struct {
		Addr     string // empty -> in-memory stores
		Password string
		DB       int
	}
)

func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// NewConfig loads the app configuration from defaults, an optional
// config/.env.<env> file and environment variables (prefixed with <ENV>_).
func NewConfig(workDir string) *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Recursos")
	conf.SetDefault("secretKey", "x2m$7vp)3qz&wde#bancorecursos!(8uh^k5ag_4ty")
	conf.SetDefault("build", "dev")
	conf.SetDefault("baseURL", "http://localhost:8080")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("serverHost", "")
	conf.SetDefault("serverPort", "8080")
	conf.SetDefault("sessionCookie", "recursos_session")
	conf.SetDefault("sessionTTL", 7*24*time.Hour)
	conf.SetDefault("shutdownTimeout", 20*time.Second)
	conf.SetDefault("bancoAPIURL", "http://localhost:3001/api")
	conf.SetDefault("bancoAPITimeout", 30*time.Second)
	conf.SetDefault("bancoAPIUploadTimeout", 2*time.Minute)
	conf.SetDefault("redisAddr", "")
	conf.SetDefault("redisPassword", "")
	conf.SetDefault("redisDB", 0)

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:              env,
		Debug:            conf.GetBool("debug"),
		TestMode:         env == "TEST",
		AppName:          conf.GetString("appName"),
		SecretKey:        []byte(conf.GetString("secretKey")),
		WorkDir:          workDir,
		Build:            conf.GetString("build"),
		BaseURL:          strings.TrimRight(conf.GetString("baseURL"), "/"),
		DefaultFromEmail: mail.Address{Name: "Banco de Recursos", Address: conf.GetString("defaultFromEmail")},
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            conf.GetString("serverHost"),
			Port:            conf.GetString("serverPort"),
			SessionCookie:   conf.GetString("sessionCookie"),
			SessionTTL:      conf.GetDuration("sessionTTL"),
			ShutdownTimeout: conf.GetDuration("shutdownTimeout"),
		},
		BancoAPI: BancoAPIConfig{
			BaseURL: strings.TrimRight(conf.GetString("bancoAPIURL"), "/"),
			Timeout: conf.GetDuration("bancoAPITimeout"),
			UploadTimeout: conf.GetDuration("bancoAPIUploadTimeout"),
		},
		Redis: RedisConfig{
			Addr:     conf.GetString("redisAddr"),
			Password: conf.GetString("redisPassword"),
			DB:       conf.GetInt("redisDB"),
		},
	}
}

// NewTestConfig returns a Config suitable for unit tests.
func NewTestConfig() *Config {
	conf := NewConfig(Getwd())
	conf.Env = "TEST"
	conf.TestMode = true
	conf.Debug = false
	return conf
}
