package models

// Category constants shared across categorization and validation.
const (
	// CategoryUncategorized marks transactions no rule or classifier could place.
	CategoryUncategorized = "Uncategorized"
	// CategoryIncome is the income category; negative amounts can never land here.
	CategoryIncome = "Income"
)

// CategoryConfig is one category entry in the categories YAML file.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords,omitempty"`
}

// CategoriesConfig is the top-level structure of the categories YAML file.
type CategoriesConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
}
