package main

import (
	"imgsort/internal/gui"

	"github.com/spf13/cobra"
)

func newGUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gui [directory]",
		Short: "Browse a directory in a desktop window",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !gui.IsGUIAvailable() {
				return gui.StartGUI(nil, cfg)
			}

			s, err := openSession(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer s.Close()

			return gui.StartGUI(s, cfg)
		},
	}
}
