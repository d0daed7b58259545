package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 16.0, cfg.BaseFontSize)
	assert.Equal(t, 10, cfg.MaxVariableIterations)
	assert.False(t, cfg.KeepDoctype)
	assert.False(t, cfg.KeepComments)
	assert.False(t, cfg.KeepEventHandlers)

	var zero Config
	zero.BaseFontSize = 16
	zero.MaxVariableIterations = 10
	zero.Logging.Level = "none"
	assert.NoError(t, zero.Validate(), "empty client means generic")
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("base_font_size: 10\nlogging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.BaseFontSize)
	assert.Equal(t, 10, cfg.MaxVariableIterations)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown field", "base_font_sizes: 10\n"},
		{"zero font size", "base_font_size: 0\n"},
		{"negative iterations", "max_variable_iterations: -1\n"},
		{"unknown client", "target_email_client: lotus\n"},
		{"bad log level", "logging:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadAndDump(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)

	path := filepath.Join(t.TempDir(), "inliner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target_email_client: gmail\n"), 0o644))

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gmail", cfg.TargetEmailClient)

	data, err := Dump(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "target_email_client: gmail")

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCompatibilityProfiles(t *testing.T) {
	assert.False(t, GetCompatibilityProfile("Outlook").SupportsMediaQueries)
	assert.True(t, GetCompatibilityProfile("gmail").SupportsPseudo(":hover"))
	assert.Equal(t, 32768, GetCompatibilityProfile("generic").MaxStylesheetSize)
	assert.True(t, IsKnownClient("APPLE_MAIL"))
	assert.False(t, IsKnownClient("lotus"))
}

func TestLoggingPrepare(t *testing.T) {
	for _, level := range []string{"none", "normal", "debug"} {
		log, err := LoggingConfig{Level: level}.Prepare()
		require.NoError(t, err, level)
		assert.NotNil(t, log)
	}
	_, err := LoggingConfig{Level: "verbose"}.Prepare()
	assert.Error(t, err)
}
