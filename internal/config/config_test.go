package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env and no file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, DriverSQLite, cfg.Store.Driver)
				assert.Equal(t, "2017-2019", cfg.Pipeline.Years)
				assert.Equal(t, "All", cfg.Pipeline.LevelFilter)
				assert.Equal(t, '\t', cfg.Pipeline.Separator())
				assert.Equal(t, 10*time.Second, cfg.Model.Timeout)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name: "file values",
			file: `
server:
  port: 9090
store:
  driver: postgres
  dsn: postgres://ews@localhost/ews
pipeline:
  years: 2019-2021
  workers: 2
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, DriverPostgres, cfg.Store.Driver)
				assert.Equal(t, "postgres://ews@localhost/ews", cfg.Store.DSN)
				assert.Equal(t, "2019-2021", cfg.Pipeline.Years)
				assert.Equal(t, 2, cfg.Pipeline.Workers)
				assert.Equal(t, "All", cfg.Pipeline.LevelFilter, "unset file fields keep defaults")
			},
		},
		{
			name: "env overrides file",
			env: map[string]string{
				"EWS_SERVER_PORT":           "7070",
				"EWS_MODEL_URL":             "http://model:9000",
				"EWS_PIPELINE_WORKERS":      "8",
				"EWS_LOGGING_LEVEL":         "debug",
				"EWS_TELEMETRY_ENVIRONMENT": "test",
			},
			file: "server:\n  port: 9090\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "http://model:9000", cfg.Model.URL)
				assert.Equal(t, 8, cfg.Pipeline.Workers)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "test", cfg.Telemetry.Environment)
			},
		},
		{
			name:    "unknown store driver",
			env:     map[string]string{"EWS_STORE_DRIVER": "oracle"},
			wantErr: true,
		},
		{
			name:    "invalid port",
			file:    "server:\n  port: 70000\n",
			wantErr: true,
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"EWS_SERVER_PORT": "eighty"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o644))
			}

			cfg, err := LoadFile(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default is valid", func(*Config) {}, false},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, true},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, true},
		{"negative write timeout", func(c *Config) { c.Server.WriteTimeout = -time.Second }, true},
		{"bad driver", func(c *Config) { c.Store.Driver = "mysql" }, true},
		{"zero model timeout", func(c *Config) { c.Model.Timeout = 0 }, true},
		{"bad exporter", func(c *Config) { c.Telemetry.TraceExporter = "jaeger" }, true},
		{"workers are clamped", func(c *Config) { c.Pipeline.Workers = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, cfg.Pipeline.Workers, 1)
		})
	}
}

func TestValidateForcesJSON(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.FilePath = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "logs/ews.log", cfg.Logging.FilePath)
}

func TestPipelineSeparator(t *testing.T) {
	tests := []struct {
		in   string
		want rune
	}{
		{"", '\t'},
		{"tab", '\t'},
		{`\t`, '\t'},
		{"comma", ','},
		{";", ';'},
		{"|", '|'},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PipelineConfig{TextSeparator: tt.in}.Separator(), tt.in)
	}
}
