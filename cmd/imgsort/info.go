package main

import (
	"fmt"

	"imgsort/internal/analysis"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Show the type, dimensions and EXIF data of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := analysis.New().Analyze(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				fmt.Fprintln(out, info.ToJSON())
				return nil
			}
			fmt.Fprintln(out, primaryText("Image Analysis:"))
			fmt.Fprint(out, info.String())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output results in JSON format")
	return cmd
}
