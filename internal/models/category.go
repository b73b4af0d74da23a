package models

const DefaultMaxResults = 50

// CategoryConfig is one monitored arXiv category. The collection is an
// ordered list; uniqueness by category code is expected but not enforced.
type CategoryConfig struct {
	Category   string `json:"category"`
	Enabled    bool   `json:"enabled"`
	MaxResults int    `json:"max_results"`
}

// DefaultCategories is the category list used when no config snapshot
// exists yet.
func DefaultCategories() []CategoryConfig {
	codes := []string{"cs.CV", "cs.LG", "cs.AI", "cs.CL"}
	configs := make([]CategoryConfig, 0, len(codes))
	for _, code := range codes {
		configs = append(configs, CategoryConfig{
			Category:   code,
			Enabled:    true,
			MaxResults: DefaultMaxResults,
		})
	}
	return configs
}
