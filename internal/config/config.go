package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

const (
	PathEnv   = "CONFIG_PATH"
	APIURLEnv = "DLINK_API_URL"
)

type Config struct {
	Env         string `yaml:"env"`
	APIURL      string `yaml:"api_url"`
	RedirectURL string `yaml:"redirect_url"`
	PageSize    int    `yaml:"page_size"`
	DefaultSort string `yaml:"default_sort"`
	Session     `yaml:"session"`
	Cache       `yaml:"cache"`
	Log         `yaml:"log"`
	Backend     `yaml:",inline"`
}

type Session struct {
	Path string `yaml:"path"`
	Key  string `yaml:"key"`
}

type Cache struct {
	Enabled  bool          `yaml:"enabled"`
	MaxPages int64         `yaml:"max_pages"`
	TTL      time.Duration `yaml:"ttl"`
}

var defaultCache = Cache{
	Enabled:  true,
	MaxPages: 64,
	TTL:      30 * time.Second,
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Backend holds the settings only the development server reads.
type Backend struct {
	Storage    string `yaml:"storage"`
	SlugLength int    `yaml:"slug_length"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
	JWT        `yaml:"jwt"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

var defaultHTTPServer = HTTPServer{
	Port:           3010,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
	AllowedOrigins: []string{"*"},
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type JWT struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

var defaultJWT = JWT{
	Secret: "dev-secret",
	TTL:    24 * time.Hour,
}

// Load reads the configuration at path on top of the defaults. An empty path
// yields the defaults. DLINK_API_URL, when set, overrides api_url.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
		}
	}

	if url := os.Getenv(APIURLEnv); url != "" {
		cfg.APIURL = url
	}

	return &cfg, nil
}

// LoadEnv loads .env from the working directory, if present, and then the
// file named by CONFIG_PATH.
func LoadEnv() (*Config, error) {
	const op = "config.LoadEnv"

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: failed to load .env file: %w", op, err)
	}

	return Load(os.Getenv(PathEnv))
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.RedirectURL = "http://localhost:3010/"
	cfg.PageSize = 6
	cfg.DefaultSort = "date"
	cfg.Session = Session{
		Path: defaultSessionPath(),
		Key:  "DLINK_ACCESS_TOKEN",
	}
	cfg.Cache = defaultCache
	cfg.Log = Log{Level: "info"}
	cfg.Storage = StorageMemory
	cfg.SlugLength = 5
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.JWT = defaultJWT
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "dlink", "session.yml")
}
