package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultRoot, cfg.Root)
	assert.Equal(t, DefaultTokenEnv, cfg.Source.TokenEnv)
	assert.Equal(t, DefaultTimeout, cfg.Source.Timeout)
	assert.Equal(t, "appstore", cfg.Decorations["Image"])

	// no source yet
	require.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menutree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9090
root: 0
log_level: debug
source:
  endpoint: https://menu.example.com/api/v1/menu/tree
  timeout: 3s
decorations:
  Image: appstore
  Folder: folder
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "0", cfg.Root)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://menu.example.com/api/v1/menu/tree", cfg.Source.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Source.Timeout)
	assert.Equal(t, DefaultTokenEnv, cfg.Source.TokenEnv, "unset keys keep defaults")
	assert.Equal(t, "folder", cfg.Decorations["Folder"])
}

func TestLoad_DecorationsReplaceDefaults(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	cfg, err := Load(write("replace.yaml", "decorations:\n  Folder: folder\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Folder": "folder"}, cfg.Decorations)

	cfg, err = Load(write("none.yaml", "decorations: {}\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Decorations)
	assert.NotNil(t, cfg.Decorations)

	cfg, err = Load(write("omitted.yaml", "port: 9090\n"))
	require.NoError(t, err)
	assert.Equal(t, Default().Decorations, cfg.Decorations)
}

func TestLoad_Server(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source:
  file: menu.json
server:
  read_timeout: 2s
  write_timeout: 4s
  idle_timeout: 30s
  shutdown_timeout: 1s
  max_header_bytes: 4096
  tls:
    cert_file: /etc/menutree/tls.crt
    key_file: /etc/menutree/tls.key
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 4*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 4096, cfg.Server.MaxHeaderBytes)
	assert.True(t, cfg.Server.TLSEnabled())
	assert.Equal(t, "/etc/menutree/tls.key", cfg.Server.TLS.KeyFile)
	assert.False(t, Default().Server.TLSEnabled())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [1"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		EnvFile:     "/tmp/menu.json",
		EnvPort:     "7000",
		EnvRoot:     "top",
		EnvLogLevel: "warn",
	})))

	assert.Equal(t, "/tmp/menu.json", cfg.Source.File)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "top", cfg.Root)
	assert.Equal(t, "warn", cfg.LogLevel)
	require.NoError(t, cfg.Validate())

	err := cfg.ApplyEnv(env(map[string]string{EnvPort: "http"}))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "endpoint", mutate: func(c *Config) { c.Source.Endpoint = "http://localhost/menu" }, ok: true},
		{name: "file", mutate: func(c *Config) { c.Source.File = "menu.json" }, ok: true},
		{name: "both", mutate: func(c *Config) {
			c.Source.Endpoint = "http://localhost/menu"
			c.Source.File = "menu.json"
		}},
		{name: "bad url", mutate: func(c *Config) { c.Source.Endpoint = "not a url" }},
		{name: "port", mutate: func(c *Config) {
			c.Source.File = "menu.json"
			c.Port = 70000
		}},
		{name: "root", mutate: func(c *Config) {
			c.Source.File = "menu.json"
			c.Root = ""
		}},
		{name: "log level", mutate: func(c *Config) {
			c.Source.File = "menu.json"
			c.LogLevel = "loud"
		}},
		{name: "timeout", mutate: func(c *Config) {
			c.Source.File = "menu.json"
			c.Source.Timeout = -time.Second
		}},
		{name: "server timeout", mutate: func(c *Config) {
			c.Source.File = "menu.json"
			c.Server.IdleTimeout = -time.Second
		}},
		{name: "tls cert without key", mutate: func(c *Config) {
			c.Source.File = "menu.json"
			c.Server.TLS.CertFile = "tls.crt"
		}},
		{name: "max header bytes", mutate: func(c *Config) {
			c.Source.File = "menu.json"
			c.Server.MaxHeaderBytes = -1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestToken(t *testing.T) {
	t.Setenv("MENUTREE_TEST_TOKEN", "secret")

	cfg := Default()
	cfg.Source.TokenEnv = "MENUTREE_TEST_TOKEN"
	assert.Equal(t, "secret", cfg.Token())

	cfg.Source.TokenEnv = ""
	assert.Empty(t, cfg.Token())
}
