package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const configFileName = "signedplay"

var ErrNoCertificate = errors.New("no client certificate configured")

// Config holds the configuration options for the application.
type Config struct {
	Certificate *CertificateConfig `yaml:"certificate,omitempty"`
	Http        *HttpConfig        `yaml:"http,omitempty"`
	Playback    *PlaybackConfig    `yaml:"playback,omitempty"`
	Log         *LogConfig         `yaml:"log,omitempty"`
	Journal     *JournalConfig     `yaml:"journal,omitempty"`
}

// CertificateConfig locates the client certificate and optional server roots.
type CertificateConfig struct {
	File     string `yaml:"file,omitempty"`
	KeyFile  string `yaml:"keyFile,omitempty"`
	Password string `yaml:"password,omitempty"`
	CAFile   string `yaml:"caFile,omitempty"`
}

// HttpConfig holds transport options for range requests.
type HttpConfig struct {
	UserAgent           string        `yaml:"userAgent,omitempty"`
	ConnectTimeout      time.Duration `yaml:"connectTimeout,omitempty"`
	TLSHandshakeTimeout time.Duration `yaml:"tlsHandshakeTimeout,omitempty"`
	IdleTimeout         time.Duration `yaml:"idleTimeout,omitempty"`
	ReadBufferSize      int           `yaml:"readBufferSize,omitempty"`
	DefaultScheme       string        `yaml:"defaultScheme,omitempty"`
}

// PlaybackConfig holds options for the bundled player.
type PlaybackConfig struct {
	ChunkSize  int64 `yaml:"chunkSize,omitempty"`
	SniffLimit int   `yaml:"sniffLimit,omitempty"`
}

type LogConfig struct {
	Debug      bool   `yaml:"debug,omitempty"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"maxSizeMB,omitempty"`
	MaxBackups int    `yaml:"maxBackups,omitempty"`
}

type JournalConfig struct {
	Path   string `yaml:"path,omitempty"`
	Buffer int    `yaml:"buffer,omitempty"`
}

// Path returns the location of the configuration file.
func Path() string {
	return filepath.Join(xdg.ConfigHome, configFileName)
}

// GetConfig reads the configuration file and returns a Config struct.
// If the configuration file does not exist, it returns the default configuration.
func GetConfig() (*Config, error) {
	defaults := DefaultConfig()

	b, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &defaults, nil
		}

		return nil, err
	}

	if len(b) == 0 {
		return &defaults, nil
	}

	var cfg Config

	err = yaml.Unmarshal(b, &cfg)
	if err != nil {
		return nil, err
	}

	certCfg := zeroOr(cfg.Certificate, defaults.Certificate)
	httpCfg := zeroOr(cfg.Http, defaults.Http)
	playbackCfg := zeroOr(cfg.Playback, defaults.Playback)
	logCfg := zeroOr(cfg.Log, defaults.Log)
	journalCfg := zeroOr(cfg.Journal, defaults.Journal)

	return &Config{
		Certificate: &CertificateConfig{
			File:     certCfg.File,
			KeyFile:  certCfg.KeyFile,
			Password: certCfg.Password,
			CAFile:   certCfg.CAFile,
		},
		Http: &HttpConfig{
			UserAgent:           zeroOr(httpCfg.UserAgent, defaults.Http.UserAgent),
			ConnectTimeout:      zeroOr(httpCfg.ConnectTimeout, defaults.Http.ConnectTimeout),
			TLSHandshakeTimeout: zeroOr(httpCfg.TLSHandshakeTimeout, defaults.Http.TLSHandshakeTimeout),
			IdleTimeout:         zeroOr(httpCfg.IdleTimeout, defaults.Http.IdleTimeout),
			ReadBufferSize:      zeroOr(httpCfg.ReadBufferSize, defaults.Http.ReadBufferSize),
			DefaultScheme:       zeroOr(httpCfg.DefaultScheme, defaults.Http.DefaultScheme),
		},
		Playback: &PlaybackConfig{
			ChunkSize:  zeroOr(playbackCfg.ChunkSize, defaults.Playback.ChunkSize),
			SniffLimit: zeroOr(playbackCfg.SniffLimit, defaults.Playback.SniffLimit),
		},
		Log: &LogConfig{
			Debug:      logCfg.Debug,
			File:       zeroOr(logCfg.File, defaults.Log.File),
			MaxSizeMB:  zeroOr(logCfg.MaxSizeMB, defaults.Log.MaxSizeMB),
			MaxBackups: zeroOr(logCfg.MaxBackups, defaults.Log.MaxBackups),
		},
		Journal: &JournalConfig{
			Path:   zeroOr(journalCfg.Path, defaults.Journal.Path),
			Buffer: zeroOr(journalCfg.Buffer, defaults.Journal.Buffer),
		},
	}, nil
}

func DefaultConfig() Config {
	return Config{
		Certificate: &CertificateConfig{},
		Http: &HttpConfig{
			UserAgent:           userAgent,
			ConnectTimeout:      connectTimeout,
			TLSHandshakeTimeout: tlsHandshakeTimeout,
			IdleTimeout:         idleTimeout,
			ReadBufferSize:      readBufferSize,
			DefaultScheme:       defaultScheme,
		},
		Playback: &PlaybackConfig{
			ChunkSize:  chunkSize,
			SniffLimit: sniffLimit,
		},
		Log: &LogConfig{
			File:       logFile,
			MaxSizeMB:  logMaxSizeMB,
			MaxBackups: logMaxBackups,
		},
		Journal: &JournalConfig{
			Path:   journalPath,
			Buffer: journalBuffer,
		},
	}
}

// Validate reports configuration that cannot produce a working coordinator.
func (c *Config) Validate() error {
	if c.Certificate == nil || c.Certificate.File == "" {
		return ErrNoCertificate
	}

	return nil
}

// zeroOr returns def if v is the zero value for its type.
func zeroOr[T any](v, def T) T {
	if reflect.ValueOf(v).IsZero() {
		return def
	}

	return v
}
