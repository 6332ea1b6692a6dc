//go:build nogui
// +build nogui

package gui

import (
	"fmt"

	"imgsort/internal/config"
)

// StartGUI is a stub implementation for builds with GUI disabled
func StartGUI(src Source, cfg *config.Config) error {
	fmt.Println("GUI is disabled in this build. Please use the terminal viewer.")
	return fmt.Errorf("GUI not available in this build")
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return false
}
