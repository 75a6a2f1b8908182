package dto

// ImportReport summarises one file import run.
type ImportReport struct {
	Total    int           `json:"total"`
	Applied  int           `json:"applied"`
	Skipped  int           `json:"skipped"`
	Failures []ImportError `json:"failures,omitempty"`
}

// ImportError records a row the import could not apply.
type ImportError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// CustomTargetReport classifies imported employee numbers.
type CustomTargetReport struct {
	Resolved   []string `json:"resolved"`
	Unresolved []string `json:"unresolved"`
}
