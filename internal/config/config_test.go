package config

import (
	"os"
	"path/filepath"
	"testing"

	"pawnest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
app:
  name: "pawnest"
paymob:
  api_key: "pm-key"
  integration_id: "int-1"
  iframe_id: "iframe-1"
database:
  path: "data/test.db"
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "pawnest", cfg.App.Name)
	assert.Equal(t, "pm-key", cfg.Paymob.APIKey)

	// Defaults
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "https://accept.paymob.com", cfg.Paymob.BaseURL)
	assert.Equal(t, models.DefaultProviderTimeoutSeconds, cfg.Paymob.TimeoutSeconds)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, "exports", cfg.Exports.Path)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_PAYMOB_KEY", "secret-from-env")

	content := `
paymob:
  api_key: "${TEST_PAYMOB_KEY}"
  iframe_id: "iframe-1"
database:
  path: "data/test.db"
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.Paymob.APIKey)
}

func TestLoadValidation(t *testing.T) {
	t.Run("MissingAPIKey", func(t *testing.T) {
		content := `
paymob:
  iframe_id: "iframe-1"
database:
  path: "data/test.db"
`
		_, err := Load(writeConfig(t, content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "paymob api key")
	})

	t.Run("MissingIframe", func(t *testing.T) {
		content := `
paymob:
  api_key: "pm-key"
database:
  path: "data/test.db"
`
		_, err := Load(writeConfig(t, content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "iframe")
	})

	t.Run("MissingDatabasePath", func(t *testing.T) {
		content := `
paymob:
  api_key: "pm-key"
  iframe_id: "iframe-1"
`
		_, err := Load(writeConfig(t, content))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database path")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidateShelters(t *testing.T) {
	assert.NoError(t, ValidateShelters(nil))
	assert.NoError(t, ValidateShelters([]models.Shelter{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
	}))

	err := ValidateShelters([]models.Shelter{{Name: "No ID"}})
	assert.Error(t, err)

	err = ValidateShelters([]models.Shelter{{ID: "a"}, {ID: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadInlineShelters(t *testing.T) {
	content := minimalConfig + `
shelters:
  - id: "nest-maadi"
    name: "PawNest Maadi"
    is_active: true
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.Len(t, cfg.Shelters, 1)
	assert.Equal(t, "nest-maadi", cfg.Shelters[0].ID)
}
