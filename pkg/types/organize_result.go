package types

// OrganizeResult holds the outcome of moving a single tagged file
type OrganizeResult struct {
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
	Moved           bool   `json:"moved"`
	Error           error  `json:"error,omitempty"`
}
