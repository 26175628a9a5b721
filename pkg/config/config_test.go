package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	previous := path
	FilePath(file)
	t.Cleanup(func() { path = previous })
}

const validYAML = `
database:
  host: "localhost"
  port: 5432
  user: "postgres"
  password: "secret"
  database: "orderflow"

rabbitmq:
  host: "localhost"
  port: 5672
  user: "guest"
  password: "guest"

lifecycle:
  min_markup_percent: 10.0

thresholds:
  orders:
    technical_review:
      max_dwell_hours: 48
      notify_groups: ["sales_management"]
  components:
    rfp_sent:
      max_dwell_hours: 72
      notify_groups: ["procurement"]
`

func TestParseYAML(t *testing.T) {
	writeConfig(t, validYAML)

	cfg, err := ParseYAML()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10.0, cfg.Lifecycle.MinMarkupPercent)

	order := cfg.Thresholds.Orders["technical_review"]
	assert.Equal(t, 48, order.MaxDwellHours)
	assert.Equal(t, []string{"sales_management"}, order.NotifyGroups)

	comp := cfg.Thresholds.Components["rfp_sent"]
	assert.Equal(t, 72, comp.MaxDwellHours)
}

func TestParseYAMLAppliesDefaults(t *testing.T) {
	writeConfig(t, validYAML)

	cfg, err := ParseYAML()
	require.NoError(t, err)

	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 60, cfg.Audit.SweepIntervalSeconds)
	assert.Equal(t, 10, cfg.Audit.DispatchTimeoutSeconds)
}

func TestParseYAMLValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing database host",
			yaml: `
database:
  port: 5432
  user: "postgres"
  password: "secret"
  database: "orderflow"
rabbitmq:
  host: "localhost"
  port: 5672
  user: "guest"
  password: "guest"
`,
			wantErr: "database.host",
		},
		{
			name: "database port out of range",
			yaml: `
database:
  host: "localhost"
  port: 99999
  user: "postgres"
  password: "secret"
  database: "orderflow"
rabbitmq:
  host: "localhost"
  port: 5672
  user: "guest"
  password: "guest"
`,
			wantErr: "database.port",
		},
		{
			name: "missing rabbitmq user",
			yaml: `
database:
  host: "localhost"
  port: 5432
  user: "postgres"
  password: "secret"
  database: "orderflow"
rabbitmq:
  host: "localhost"
  port: 5672
  password: "guest"
`,
			wantErr: "rabbitmq.user",
		},
		{
			name: "negative threshold",
			yaml: validYAML + `
    awarded:
      max_dwell_hours: -5
`,
			wantErr: "max_dwell_hours",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, tt.yaml)
			_, err := ParseYAML()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseYAMLMissingFile(t *testing.T) {
	previous := path
	FilePath(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	t.Cleanup(func() { path = previous })

	_, err := ParseYAML()
	assert.Error(t, err)
}
