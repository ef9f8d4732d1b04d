package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/adrg/xdg"

	cfg "github.com/NamanBalaji/signedplay/internal/config"
)

func withTempConfigHome(t *testing.T) (restore func(), dir string, file string) {
	t.Helper()
	orig := xdg.ConfigHome
	dir = t.TempDir()
	xdg.ConfigHome = dir
	restore = func() { xdg.ConfigHome = orig }
	file = filepath.Join(dir, "signedplay")
	return
}

func TestGetConfig_Table(t *testing.T) {
	restore, _, cfgFile := withTempConfigHome(t)
	defer restore()

	def := cfg.DefaultConfig()

	tests := []struct {
		name      string
		preWrite  bool
		contents  string
		expectErr bool
		check     func(t *testing.T, got *cfg.Config, def cfg.Config)
	}{
		{
			name:     "missing_file_returns_defaults",
			preWrite: false,
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if !reflect.DeepEqual(*got, def) {
					t.Fatalf("expected defaults\nwant: %#v\ngot:  %#v", def, *got)
				}
			},
		},
		{
			name:     "empty_file_returns_defaults",
			preWrite: true,
			contents: "",
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if !reflect.DeepEqual(*got, def) {
					t.Fatalf("expected defaults\nwant: %#v\ngot:  %#v", def, *got)
				}
			},
		},
		{
			name:      "invalid_yaml_returns_error",
			preWrite:  true,
			contents:  ": not yaml",
			expectErr: true,
			check:     func(t *testing.T, _ *cfg.Config, _ cfg.Config) {},
		},
		{
			name:     "certificate_only_uses_defaults_for_the_rest",
			preWrite: true,
			contents: "certificate:\n  file: /etc/signedplay/client.p12\n  password: hunter2\n",
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if got.Certificate.File != "/etc/signedplay/client.p12" || got.Certificate.Password != "hunter2" {
					t.Fatalf("certificate not applied, got %#v", *got.Certificate)
				}
				if !reflect.DeepEqual(*got.Http, *def.Http) {
					t.Fatalf("http defaults not applied\nwant: %#v\ngot:  %#v", *def.Http, *got.Http)
				}
				if !reflect.DeepEqual(*got.Playback, *def.Playback) {
					t.Fatalf("playback defaults not applied\nwant: %#v\ngot:  %#v", *def.Playback, *got.Playback)
				}
				if !reflect.DeepEqual(*got.Journal, *def.Journal) {
					t.Fatalf("journal defaults not applied\nwant: %#v\ngot:  %#v", *def.Journal, *got.Journal)
				}
			},
		},
		{
			name:     "partial_override_and_fallback",
			preWrite: true,
			contents: `
http:
  userAgent: player/2.0
  connectTimeout: 5s
  defaultScheme: http
playback:
  chunkSize: 65536
log:
  debug: true
`,
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if got.Http.UserAgent != "player/2.0" {
					t.Fatalf("want http.userAgent=player/2.0 got %q", got.Http.UserAgent)
				}
				if got.Http.ConnectTimeout != 5*time.Second {
					t.Fatalf("want http.connectTimeout=5s got %s", got.Http.ConnectTimeout)
				}
				if got.Http.DefaultScheme != "http" {
					t.Fatalf("want http.defaultScheme=http got %q", got.Http.DefaultScheme)
				}
				if got.Http.TLSHandshakeTimeout != def.Http.TLSHandshakeTimeout {
					t.Fatalf("want http.tlsHandshakeTimeout default %s got %s", def.Http.TLSHandshakeTimeout, got.Http.TLSHandshakeTimeout)
				}
				if got.Playback.ChunkSize != 65536 {
					t.Fatalf("want playback.chunkSize=65536 got %d", got.Playback.ChunkSize)
				}
				if got.Playback.SniffLimit != def.Playback.SniffLimit {
					t.Fatalf("want playback.sniffLimit default %d got %d", def.Playback.SniffLimit, got.Playback.SniffLimit)
				}
				if !got.Log.Debug {
					t.Fatalf("want log.debug=true")
				}
				if got.Log.File != def.Log.File {
					t.Fatalf("want log.file default %q got %q", def.Log.File, got.Log.File)
				}
			},
		},
		{
			name:     "explicit_zero_values_fall_back_to_defaults",
			preWrite: true,
			contents: `
http:
  readBufferSize: 0
  idleTimeout: 0s
  defaultScheme: ""
journal:
  buffer: 0
`,
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if got.Http.ReadBufferSize != def.Http.ReadBufferSize {
					t.Fatalf("http.readBufferSize zero should fallback. want %d got %d", def.Http.ReadBufferSize, got.Http.ReadBufferSize)
				}
				if got.Http.IdleTimeout != def.Http.IdleTimeout {
					t.Fatalf("http.idleTimeout zero should fallback. want %s got %s", def.Http.IdleTimeout, got.Http.IdleTimeout)
				}
				if got.Http.DefaultScheme != def.Http.DefaultScheme {
					t.Fatalf("http.defaultScheme empty should fallback. want %q got %q", def.Http.DefaultScheme, got.Http.DefaultScheme)
				}
				if got.Journal.Buffer != def.Journal.Buffer {
					t.Fatalf("journal.buffer zero should fallback. want %d got %d", def.Journal.Buffer, got.Journal.Buffer)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = os.Remove(cfgFile)
			if tt.preWrite {
				if err := os.WriteFile(cfgFile, []byte(tt.contents), 0o600); err != nil {
					t.Fatalf("write config: %v", err)
				}
			}

			got, err := cfg.GetConfig()
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			tt.check(t, got, def)
		})
	}
}

func TestValidate(t *testing.T) {
	def := cfg.DefaultConfig()
	if err := def.Validate(); err != cfg.ErrNoCertificate {
		t.Fatalf("expected ErrNoCertificate, got %v", err)
	}

	def.Certificate.File = "/tmp/client.p12"
	if err := def.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestPath(t *testing.T) {
	restore, dir, file := withTempConfigHome(t)
	defer restore()

	if got := cfg.Path(); got != file {
		t.Fatalf("want %q got %q (config home %q)", file, got, dir)
	}
}
