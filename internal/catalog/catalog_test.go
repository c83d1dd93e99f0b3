package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/logging"
	"fintrack/internal/models"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	content := `categories:
  - name: Groceries
    keywords: [carrefour, lidl]
  - name: Transport
    keywords: [sncf, uber]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := Load(path, logging.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"Groceries", "Transport"}, c.Names())
	assert.True(t, c.Has("Transport"))
	assert.False(t, c.Has("Casino"))
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	logger := logging.NewMockLogger()
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), logger)
	require.NoError(t, err)
	assert.Empty(t, c.Names())
	assert.Equal(t, 1, logger.CountLevel("warn"))
}

func TestEmptyCatalogAcceptsAnyName(t *testing.T) {
	c := NewFromConfigs(nil, logging.NewMockLogger())
	assert.True(t, c.Has("Anything"))
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [unclosed"), 0o600))

	_, err := Load(path, logging.NewMockLogger())
	assert.Error(t, err)
}

func TestNewFromConfigs(t *testing.T) {
	c := NewFromConfigs([]models.CategoryConfig{{Name: "Income"}}, logging.NewMockLogger())
	assert.Equal(t, []string{"Income"}, c.Names())
	assert.True(t, c.Has("Income"))
}
