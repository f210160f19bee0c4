// Package config carga la configuración: defaults, archivo YAML opcional,
// .env y por último variables de entorno.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSupabase = "supabase"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Server  Server  `yaml:"server"`
	Log     Log     `yaml:"log"`
	Backend Backend `yaml:"backend"`
	Auth    Auth    `yaml:"auth"`
	Session Session `yaml:"session"`
	Scanner Scanner `yaml:"scanner"`
}

type Server struct {
	Port            int           `yaml:"port"`
	PublicBaseURL   string        `yaml:"public_base_url"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Backend struct {
	// Driver vacío se deduce: SUPABASE_URL -> supabase, DB_DSN -> postgres, si no memory.
	Driver   string   `yaml:"driver"`
	Supabase Supabase `yaml:"supabase"`
	DSN      string   `yaml:"dsn"`
}

type Supabase struct {
	URL         string        `yaml:"url"`
	AnonKey     string        `yaml:"anon_key"`
	PhotoBucket string        `yaml:"photo_bucket"`
	MapBucket   string        `yaml:"map_bucket"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Auth configura el backend de autenticación local (drivers memory y postgres).
type Auth struct {
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	DevUsers    []DevUser     `yaml:"dev_users"`
}

type DevUser struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Session struct {
	CookieName     string        `yaml:"cookie_name"`
	Lifetime       time.Duration `yaml:"lifetime"`
	SecureCookie   bool          `yaml:"secure_cookie"`
	ResolveTimeout time.Duration `yaml:"resolve_timeout"`
	Revalidate     time.Duration `yaml:"revalidate"`
}

type Scanner struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	FrameInterval time.Duration `yaml:"frame_interval"`
}

func Default() Config {
	return Config{
		Server: Server{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Log: Log{Level: "info", Format: "console"},
		Backend: Backend{
			Supabase: Supabase{
				PhotoBucket: "animais.fotos",
				MapBucket:   "animais.mapas",
				Timeout:     10 * time.Second,
			},
		},
		Auth: Auth{
			TokenSecret: "dev-secret-change-me",
			TokenTTL:    time.Hour,
		},
		Session: Session{
			CookieName:     "animal_catalog",
			Lifetime:       12 * time.Hour,
			ResolveTimeout: 3 * time.Second,
			Revalidate:     time.Minute,
		},
		Scanner: Scanner{
			IdleTimeout:   2 * time.Minute,
			FrameInterval: 400 * time.Millisecond,
		},
	}
}

// Load arma la configuración. path vacío = sin archivo YAML.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// .env es opcional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		p, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: PORT %q", ErrInvalid, v)
		}
		c.Server.Port = p
	}
	str("PUBLIC_BASE_URL", &c.Server.PublicBaseURL)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("BACKEND_DRIVER", &c.Backend.Driver)
	str("DB_DSN", &c.Backend.DSN)
	str("SUPABASE_URL", &c.Backend.Supabase.URL)
	str("SUPABASE_ANON_KEY", &c.Backend.Supabase.AnonKey)
	str("AUTH_TOKEN_SECRET", &c.Auth.TokenSecret)

	if v, ok := lookup("SESSION_SECURE_COOKIE"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: SESSION_SECURE_COOKIE %q", ErrInvalid, v)
		}
		c.Session.SecureCookie = b
	}

	if v, ok := lookup("DEV_USERS"); ok && strings.TrimSpace(v) != "" {
		users, err := ParseDevUsers(v)
		if err != nil {
			return err
		}
		c.Auth.DevUsers = users
	}
	return nil
}

// ParseDevUsers lee "email:password,email2:password2".
func ParseDevUsers(raw string) ([]DevUser, error) {
	var out []DevUser
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		email, pw, ok := strings.Cut(item, ":")
		email = strings.TrimSpace(email)
		if !ok || email == "" || pw == "" {
			return nil, fmt.Errorf("%w: DEV_USERS entry %q", ErrInvalid, item)
		}
		out = append(out, DevUser{Email: email, Password: pw})
	}
	return out, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalid, c.Server.Port)
	}

	if c.Backend.Driver == "" {
		switch {
		case c.Backend.Supabase.URL != "":
			c.Backend.Driver = DriverSupabase
		case c.Backend.DSN != "":
			c.Backend.Driver = DriverPostgres
		default:
			c.Backend.Driver = DriverMemory
		}
	}

	switch c.Backend.Driver {
	case DriverSupabase:
		if c.Backend.Supabase.URL == "" || c.Backend.Supabase.AnonKey == "" {
			return fmt.Errorf("%w: supabase driver needs SUPABASE_URL and SUPABASE_ANON_KEY", ErrInvalid)
		}
	case DriverPostgres:
		if c.Backend.DSN == "" {
			return fmt.Errorf("%w: postgres driver needs DB_DSN", ErrInvalid)
		}
		fallthrough
	case DriverMemory:
		if c.Auth.TokenSecret == "" {
			return fmt.Errorf("%w: auth token secret is empty", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown backend driver %q", ErrInvalid, c.Backend.Driver)
	}

	if c.Session.ResolveTimeout <= 0 {
		return fmt.Errorf("%w: session resolve timeout must be positive", ErrInvalid)
	}
	return nil
}

func (s Server) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}
