package main

import (
	"encoding/json"
	"fmt"
	"time"

	"imgsort/internal/catalog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type scanEntry struct {
	Index   int       `json:"index"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

func newScanCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "List the images a directory would show",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := catalog.NewGlobMatcher(cfg.Catalog.Patterns...)
			if err != nil {
				return err
			}
			cat, err := catalog.Scan(targetDir(args), m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			entries := cat.Entries()
			if jsonOutput {
				list := make([]scanEntry, 0, len(entries))
				for _, e := range entries {
					list = append(list, scanEntry{Index: e.Index, Path: e.Path, Size: e.Size, ModTime: e.ModTime})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			fmt.Fprintln(out, primaryText(fmt.Sprintf("%d images in %s", cat.Len(), cat.Dir())))
			for _, e := range entries {
				fmt.Fprintf(out, "%5d  %-40s %10s  %s\n", e.Index, e.Name(), humanize.Bytes(uint64(e.Size)), mutedText(humanize.Time(e.ModTime)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output results in JSON format")
	return cmd
}
