package main

import (
	"context"
	"io"
	"os"

	"imgsort/internal/config"
	"imgsort/internal/log"
	"imgsort/internal/session"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	debug       bool
	workers     int
	radius      int
	thumbRadius int
	cfg         *config.Config
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "imgsort [directory]",
		Short: "Browse and sort a directory of images",
		Long: `imgsort shows the images of a directory one at a time, preloading the
neighbours of the current image in the background so that stepping
through the collection never waits on a decode. Images can be tagged
and moved into per-tag folders.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runView(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/imgsort/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "number of decode workers")
	rootCmd.PersistentFlags().IntVar(&radius, "radius", 0, "full images kept loaded on each side of the cursor")
	rootCmd.PersistentFlags().IntVar(&thumbRadius, "thumb-radius", 0, "thumbnails kept loaded on each side of the cursor")

	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newGUICmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newPrefetchCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadConfig reads the config file, applies flag overrides and sets up
// logging. A missing file yields the defaults.
func loadConfig(cmd *cobra.Command) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadConfigFile(cfgFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Preload.Workers = workers
	}
	if flags.Changed("radius") {
		cfg.Preload.Radius = radius
		if !flags.Changed("thumb-radius") && cfg.Preload.ThumbnailRadius < radius {
			cfg.Preload.ThumbnailRadius = radius
		}
	}
	if flags.Changed("thumb-radius") {
		cfg.Preload.ThumbnailRadius = thumbRadius
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	configureLogging(cmd.ErrOrStderr())
	return nil
}

func configureLogging(out io.Writer) {
	log.SetDebug(debug || cfg.Log.Debug)

	opts := []log.Option{log.WithOutput(out)}
	if cfg.Log.JSON {
		opts = append(opts, log.WithJSON())
	}
	if cfg.Log.File != "" {
		opts = append(opts, log.WithFile(cfg.Log.File))
	}
	log.Configure(opts...)
}

// targetDir returns the directory argument, falling back to the
// configured default.
func targetDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if cfg.Directories.Default != "" {
		return cfg.Directories.Default
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

func openSession(ctx context.Context, args []string) (*session.Session, error) {
	return session.Open(ctx, targetDir(args), cfg)
}
