// Package catalog loads the category catalog from a YAML file. The catalog
// supplies the known-category list handed to the external classifier and
// validates rule targets.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fintrack/internal/logging"
	"fintrack/internal/models"
)

// Catalog holds the loaded category configuration.
type Catalog struct {
	categories []models.CategoryConfig
	logger     logging.Logger
}

// Load reads the categories YAML file. A missing file is not an error: the
// classifier then runs with an open category set.
func Load(path string, logger logging.Logger) (*Catalog, error) {
	c := &Catalog{logger: logger}

	resolved, err := findConfigFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.WithField(logging.FieldFile, path).Warn("Categories file not found, classifier runs without a fixed category list")
			return c, nil
		}
		return nil, fmt.Errorf("resolving categories file: %w", err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading categories file: %w", err)
	}

	var cfg models.CategoriesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing categories file: %w", err)
	}
	c.categories = cfg.Categories

	logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: resolved},
		logging.Field{Key: logging.FieldCount, Value: len(c.categories)},
	).Debug("Loaded category catalog")
	return c, nil
}

// NewFromConfigs builds a catalog directly from category configs, used by
// tests and embedded defaults.
func NewFromConfigs(categories []models.CategoryConfig, logger logging.Logger) *Catalog {
	return &Catalog{categories: categories, logger: logger}
}

// Names returns the category names in file order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		names = append(names, cat.Name)
	}
	return names
}

// Has reports whether the catalog contains the named category. An empty
// catalog accepts any name.
func (c *Catalog) Has(name string) bool {
	if len(c.categories) == 0 {
		return true
	}
	for _, cat := range c.categories {
		if cat.Name == name {
			return true
		}
	}
	return false
}

// findConfigFile checks the usual locations for a config file: the path as
// given, ./config/ and the user config directory.
func findConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "fintrack", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}
