package organize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"imgsort/internal/config"
	serr "imgsort/internal/errors"
	"imgsort/internal/log"
	"imgsort/pkg/types"
)

// Engine moves tagged images into their destination folders
type Engine struct {
	mu         sync.Mutex // Serializes collision checks and renames
	dryRun     bool
	createDirs bool
	collision  string
}

// New creates an Engine with the default settings
func New() *Engine {
	return NewWithConfig(config.New())
}

// NewWithConfig creates an Engine from the move settings in cfg
func NewWithConfig(cfg *config.Config) *Engine {
	e := &Engine{}
	e.SetConfig(cfg)
	return e
}

// SetConfig applies the move settings in cfg
func (e *Engine) SetConfig(cfg *config.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dryRun = cfg.Settings.DryRun
	e.createDirs = cfg.Settings.CreateDirs
	e.collision = cfg.Settings.Collision
}

// SetDryRun sets whether moves are performed or just simulated
func (e *Engine) SetDryRun(dryRun bool) {
	e.mu.Lock()
	e.dryRun = dryRun
	e.mu.Unlock()
}

// IsDryRun returns whether the engine is in dry run mode
func (e *Engine) IsDryRun() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dryRun
}

// MoveFile moves src to dest, resolving an existing dest with the
// collision strategy. It returns the final destination, or "" when the
// move was skipped.
func (e *Engine) MoveFile(src, dest string) (string, error) {
	cleanSrc := filepath.Clean(src)
	cleanDest := filepath.Clean(dest)
	logger := log.LogWithFields(log.F("source", cleanSrc), log.F("destination", cleanDest))

	if cleanSrc == cleanDest {
		logger.Debug("Source and destination are the same, skipping")
		return "", nil
	}

	srcInfo, err := os.Stat(cleanSrc)
	if err != nil {
		if os.IsNotExist(err) {
			return "", serr.NewFileError("source file not found", cleanSrc, serr.FileNotFound, err)
		}
		return "", serr.NewIOError(cleanSrc, err)
	}
	if srcInfo.IsDir() {
		return "", serr.NewFileError("cannot move directory as file", cleanSrc, serr.InvalidOperation, nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	destDir := filepath.Dir(cleanDest)
	if _, err := os.Stat(destDir); os.IsNotExist(err) {
		if !e.createDirs {
			return "", serr.NewFileError("destination directory does not exist", destDir, serr.FileOperationFailed, err)
		}
		if !e.dryRun {
			if err := os.MkdirAll(destDir, 0755); err != nil {
				return "", serr.NewFileError("failed to create destination directory", destDir, serr.FileOperationFailed, err)
			}
		}
	}

	finalDest, err := e.handleCollision(cleanSrc, cleanDest)
	if err != nil {
		return "", err
	}
	if finalDest == "" {
		return "", nil
	}

	if e.dryRun {
		logger.Infof("Would move %s -> %s", cleanSrc, finalDest)
		return finalDest, nil
	}

	if err := rename(cleanSrc, finalDest); err != nil {
		return "", serr.NewFileError("failed to move file", cleanSrc, serr.FileOperationFailed, err)
	}

	logger.Infof("Moved %s -> %s", cleanSrc, finalDest)
	return finalDest, nil
}

// handleCollision implements collision resolution strategies.
// If the file should be skipped, it returns an empty string and nil error.
func (e *Engine) handleCollision(src, dest string) (string, error) {
	_, err := os.Stat(dest)
	if os.IsNotExist(err) {
		return dest, nil
	}
	if err != nil {
		return "", serr.NewIOError(dest, err)
	}

	logger := log.LogWithFields(log.F("destination", dest), log.F("strategy", e.collision))
	switch e.collision {
	case "skip":
		logger.Infof("Skipping move for %s due to collision", src)
		return "", nil
	case "overwrite":
		logger.Warn("Overwriting existing file")
		return dest, nil
	case "rename", "":
		return findUniqueDestName(dest)
	default:
		return "", serr.NewConfigError("unknown collision strategy", "settings.collision", serr.InvalidConfig, fmt.Errorf("%q", e.collision))
	}
}

// findUniqueDestName finds a unique filename by adding counter to the basename
func findUniqueDestName(originalPath string) (string, error) {
	ext := filepath.Ext(originalPath)
	base := strings.TrimSuffix(originalPath, ext)

	for counter := 1; counter <= 1000; counter++ {
		newName := fmt.Sprintf("%s_(%d)%s", base, counter, ext)
		if _, err := os.Stat(newName); os.IsNotExist(err) {
			return newName, nil
		}
	}

	return "", serr.NewFileError("no free name after 1000 attempts", originalPath, serr.FileOperationFailed, nil)
}

// rename moves a file, copying across filesystems when a plain rename is
// not possible.
func rename(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// OrganizeTagged moves files into destDir. A failed move is recorded in
// its result and does not stop the others; the first error is returned.
func (e *Engine) OrganizeTagged(files []string, destDir string) ([]types.OrganizeResult, error) {
	log.LogWithFields(log.F("files", len(files)), log.F("destination", destDir)).Info("Moving tagged files")

	var firstErr error
	results := make([]types.OrganizeResult, 0, len(files))
	for _, file := range files {
		dest := filepath.Join(destDir, filepath.Base(file))
		result := types.OrganizeResult{SourcePath: file, DestinationPath: dest}

		final, err := e.MoveFile(file, dest)
		switch {
		case err != nil:
			result.Error = err
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to move %s: %w", file, err)
			}
		case final != "":
			result.DestinationPath = final
			result.Moved = !e.IsDryRun()
		}
		results = append(results, result)
	}
	return results, firstErr
}
