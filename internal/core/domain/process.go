package domain

// ProcessResult summarizes one run of the scoring pipeline.
type ProcessResult struct {
	Models []string          `json:"models"`
	Failed map[string]string `json:"failed,omitempty"`
}
