package domain

// Company describes one configured search target. It is loaded once per run
// and never mutated afterwards, so it is shared freely between tasks.
type Company struct {
	Name    string            `yaml:"name" json:"name"`
	Adapter string            `yaml:"adapter" json:"adapter"` // greenhouse/lever/smartrecruiters/workday/careers
	Slug    string            `yaml:"slug,omitempty" json:"slug,omitempty"`
	BaseURL string            `yaml:"url,omitempty" json:"url,omitempty"`
	Options map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
}

// Option returns an adapter option or def when it is unset.
func (c Company) Option(key, def string) string {
	if v, ok := c.Options[key]; ok && v != "" {
		return v
	}
	return def
}
