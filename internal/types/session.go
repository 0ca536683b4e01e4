package types

import "time"

// Session is a saved dashboard configuration: the active filters plus
// per-chart display preferences.
type Session struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" yaml:"updated_at"`
	Filters     Filter            `json:"filters" yaml:"filters"`
	ChartPrefs  map[string]string `json:"chart_prefs,omitempty" yaml:"chart_prefs,omitempty"`
}
