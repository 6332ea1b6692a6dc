package main

import (
	"context"
	"fmt"
	"time"

	"imgsort/pkg/types"

	"github.com/spf13/cobra"
)

func newPrefetchCmd() *cobra.Command {
	var (
		index   int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "prefetch [directory]",
		Short: "Load the window around an image and report each entry's state",
		Long: `prefetch opens the directory without a viewer, moves to --index and
waits until every image in the preload window has been loaded or has
failed. Failed images are reported but do not make the command fail.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			s, err := openSession(ctx, args)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			if s.Len() == 0 {
				fmt.Fprintln(out, mutedText("No images in "+s.Dir()))
				return nil
			}
			if err := s.MoveTo(index); err != nil {
				return err
			}
			if err := s.Wait(ctx); err != nil {
				return fmt.Errorf("waiting for preload: %w", err)
			}

			f := s.Frame()
			for _, v := range f.Thumbnails {
				marker := " "
				if v.Index == index {
					marker = ">"
				}
				line := fmt.Sprintf("%s%5d  %-40s %-10s", marker, v.Index, v.Name, v.State)
				if !v.Dim.IsZero() {
					line += " " + v.Dim.String()
				}
				if v.State == types.Failed {
					line += "  " + errorText(v.Reason)
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, primaryText(f.Status))
			return nil
		},
	}

	cmd.Flags().IntVarP(&index, "index", "i", 0, "Index to center the preload window on")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Give up waiting after this long")
	return cmd
}
