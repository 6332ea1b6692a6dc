package main

import (
	"io"

	"imgsort/internal/tui"

	"github.com/spf13/cobra"
)

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view [directory]",
		Short: "Browse a directory in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runView,
	}
}

func runView(cmd *cobra.Command, args []string) error {
	// Log lines would tear the alternate screen
	if cfg.Log.File == "" {
		configureLogging(io.Discard)
	}

	s, err := openSession(cmd.Context(), args)
	if err != nil {
		return err
	}
	defer s.Close()

	return tui.Run(s, cfg)
}
