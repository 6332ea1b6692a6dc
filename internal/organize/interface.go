package organize

import (
	"imgsort/internal/config"
	"imgsort/pkg/types"
)

// Organizer defines the file moving operations the session depends on.
// This allows for dependency injection in tests
type Organizer interface {
	// SetDryRun sets whether operations should be performed or just simulated
	SetDryRun(dryRun bool)

	// MoveFile moves a file from source to destination with collision handling
	MoveFile(src, dest string) (string, error)

	// OrganizeTagged moves files into a destination directory
	OrganizeTagged(files []string, destDir string) ([]types.OrganizeResult, error)
}

// Ensure Engine implements the Organizer interface
var _ Organizer = (*Engine)(nil)

// OrganizerFactory creates an Organizer from configuration
type OrganizerFactory func(cfg *config.Config) Organizer

// DefaultOrganizerFactory creates a real engine
var DefaultOrganizerFactory OrganizerFactory = func(cfg *config.Config) Organizer {
	return NewWithConfig(cfg)
}

// CurrentOrganizerFactory is the currently active factory
// This can be swapped in tests
var CurrentOrganizerFactory = DefaultOrganizerFactory

// SetOrganizerFactory sets a custom organizer factory for dependency injection
func SetOrganizerFactory(factory OrganizerFactory) {
	CurrentOrganizerFactory = factory
}

// ResetOrganizerFactory resets to the default organizer factory
func ResetOrganizerFactory() {
	CurrentOrganizerFactory = DefaultOrganizerFactory
}
