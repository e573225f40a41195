package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	// MaxInFlight caps concurrent requests; 0 disables the limit.
	MaxInFlight    int
	AllowedOrigins []string
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

// Auth holds the single admin credential. PasswordHash (bcrypt) wins over the
// plain Password when both are set.
type Auth struct {
	Username        string
	Password        string
	PasswordHash    string
	SessionSecret   string
	SessionTTLMin   int
	CookieName      string
	CookieSecure    bool
	LoginRatePerMin int
	LoginBurst      int
}

func (a Auth) SessionTTL() time.Duration { return time.Duration(a.SessionTTLMin) * time.Minute }

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLSec   int    `mapstructure:"ttlsec"`
}

func (r Redis) Enabled() bool { return r.Addr != "" }

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Upload struct {
	Dir      string
	MaxBytes int64
}

type Proxy struct {
	TimeoutSec int
	MaxBytes   int64
}

type Export struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

func (e Export) Enabled() bool { return e.Bucket != "" }

type Events struct {
	URL      string
	Exchange string
}

func (e Events) Enabled() bool { return e.URL != "" }

type Config struct {
	App    App
	Log    Log
	Auth   Auth
	DB     DB
	Redis  Redis `mapstructure:"redis"`
	Upload Upload
	Proxy  Proxy
	Export Export
	Events Events
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "user-admin")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 15)
	v.SetDefault("app.http.writetimeoutsec", 30)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.maxinflight", 256)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.filename", "logs/admin.log")
	v.SetDefault("log.rotate.maxsizemb", 100)
	v.SetDefault("log.rotate.maxbackups", 7)
	v.SetDefault("log.rotate.maxagedays", 30)

	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.sessionttlmin", 480)
	v.SetDefault("auth.cookiename", "admin_session")
	v.SetDefault("auth.loginratepermin", 10)
	v.SetDefault("auth.loginburst", 5)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.ttlsec", 60)

	v.SetDefault("upload.dir", os.TempDir())
	v.SetDefault("upload.maxbytes", 5<<20)

	v.SetDefault("proxy.timeoutsec", 10)
	v.SetDefault("proxy.maxbytes", 1<<20)

	v.SetDefault("export.prefix", "exports")
	v.SetDefault("export.region", "us-east-1")

	v.SetDefault("events.exchange", "user-admin")

	// keys without a useful default still need registering so that
	// APP_* variables reach Unmarshal
	for k, zero := range map[string]any{
		"app.http.allowedorigins": []string{},
		"log.rotate.enable":       false,
		"log.rotate.compress":     false,
		"auth.password":           "",
		"auth.passwordhash":       "",
		"auth.sessionsecret":      "",
		"auth.cookiesecure":       false,
		"db.dsn":                  "",
		"db.username":             "",
		"db.password":             "",
		"redis.addr":              "",
		"redis.password":          "",
		"redis.db":                0,
		"export.bucket":           "",
		"export.endpoint":         "",
		"export.accesskey":        "",
		"export.secretkey":        "",
		"events.url":              "",
	} {
		v.SetDefault(k, zero)
	}
}

// Load reads the YAML file at path (CONFIG_PATH, then ./configs/config.local.yaml
// when empty). A missing file is fine: defaults plus APP_* variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.Upload.MaxBytes <= 0 {
		return errors.New("config: upload.maxbytes must be positive")
	}
	return nil
}

// ValidateAuth checks what the HTTP server needs on top of Load. The CLI runs
// without a login and skips it.
func (c *Config) ValidateAuth() error {
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return errors.New("config: auth.password or auth.passwordhash is required")
	}
	if len(c.Auth.SessionSecret) < 16 {
		return errors.New("config: auth.sessionsecret must be at least 16 bytes")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.App.HTTP.Host, c.App.HTTP.Port)
}
