package types

// Leak is a single weakness the coaching service identified.
type Leak struct {
	Stat     string `json:"stat"`
	Severity string `json:"severity"`
	Advice   string `json:"advice"`
}

// Coaching is the commentary returned by the analysis service for a report.
type Coaching struct {
	Summary    string  `json:"summary"`
	Leaks      []Leak  `json:"leaks,omitempty"`
	Confidence float64 `json:"confidence"`
}
