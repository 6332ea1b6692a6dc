package analysis

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	serr "imgsort/internal/errors"
	log "imgsort/internal/log"
	"imgsort/pkg/types"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// Analyzer defines the interface for content type specific analyzers
type Analyzer interface {
	// CanHandle checks if this analyzer is suitable for the given content type
	CanHandle(contentType string) bool
	// Analyze performs the specific analysis and updates FileInfo
	Analyze(path string, info *types.FileInfo) (*types.FileInfo, error)
}

// ExifAnalyzer reads EXIF metadata from images that carry it
type ExifAnalyzer struct{}

// CanHandle accepts the formats that embed EXIF blocks
func (a *ExifAnalyzer) CanHandle(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/tiff", "image/webp":
		return true
	}
	return false
}

// Analyze extracts EXIF metadata from image files
func (a *ExifAnalyzer) Analyze(path string, info *types.FileInfo) (*types.FileInfo, error) {
	logger := log.LogWithFields(log.F("path", path))

	if info.Metadata == nil {
		info.Metadata = make(map[string]string)
	}

	file, err := os.Open(path)
	if err != nil {
		return info, fmt.Errorf("failed to open image file for exif: %w", err)
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil {
		logger.Debugf("No EXIF data found for %s: %v", path, err)
		return info, nil // Not an error if no EXIF data
	}

	fields := []struct {
		name exif.FieldName
		key  string
	}{
		{exif.DateTimeOriginal, "DateTimeOriginal"},
		{exif.Make, "CameraMake"},
		{exif.Model, "CameraModel"},
	}
	for _, f := range fields {
		tag, err := x.Get(f.name)
		if err != nil {
			continue
		}
		if s, _ := tag.StringVal(); s != "" {
			info.Metadata[f.key] = strings.TrimSpace(s)
		}
	}

	info.Orientation = orientationOf(x)
	if info.Orientation >= 5 {
		info.Dim = types.Dim{Width: info.Dim.Height, Height: info.Dim.Width}
	}
	return info, nil
}

// Engine runs content detection and the registered analyzers
type Engine struct {
	analyzers []Analyzer
}

// registerAnalyzer adds an analyzer to the engine's list
func (e *Engine) registerAnalyzer(analyzer Analyzer) {
	e.analyzers = append(e.analyzers, analyzer)
}

// New creates an Engine with the default analyzers
func New() *Engine {
	engine := &Engine{}
	engine.registerAnalyzer(&ExifAnalyzer{})
	return engine
}

// Scan performs basic file analysis: size, content type and, for images,
// format and dimensions from the header.
func (e *Engine) Scan(path string) (*types.FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serr.NewFileError("failed to stat file", path, serr.FileNotFound, err)
		}
		return nil, serr.NewIOError(path, err)
	}
	if stat.IsDir() {
		return nil, serr.NewFileError("is a directory", path, serr.InvalidOperation, nil)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, serr.NewIOError(path, err)
	}

	info := &types.FileInfo{
		Path:        path,
		ContentType: mtype.String(),
		Size:        stat.Size(),
	}

	if strings.HasPrefix(info.ContentType, "image/") {
		file, err := os.Open(path)
		if err != nil {
			return nil, serr.NewIOError(path, err)
		}
		defer file.Close()
		cfg, format, err := image.DecodeConfig(file)
		if err != nil {
			log.LogWithFields(log.F("path", path), log.F("error", err.Error())).Debug("Cannot read image header")
		} else {
			info.Format = format
			info.Dim = types.Dim{Width: cfg.Width, Height: cfg.Height}
		}
	}

	return info, nil
}

// Analyze scans path and lets the first matching analyzer add metadata.
// Analyzer failures are logged and the partial result is returned.
func (e *Engine) Analyze(path string) (*types.FileInfo, error) {
	logger := log.LogWithFields(log.F("path", path))
	info, err := e.Scan(path)
	if err != nil {
		return nil, err
	}

	for _, analyzer := range e.analyzers {
		if !analyzer.CanHandle(info.ContentType) {
			continue
		}
		logger.Debugf("Using analyzer %T for content type %s", analyzer, info.ContentType)
		res, err := analyzer.Analyze(path, info)
		if err != nil {
			logger.With(log.F("analyzer", fmt.Sprintf("%T", analyzer)), log.F("error", err.Error())).Warn("Analyzer failed, returning partial info")
			return info, nil
		}
		info = res
		break
	}

	return info, nil
}

// ReadOrientation returns the EXIF orientation (1..8) of the encoded image
// in r, or 1 when there is none.
func ReadOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	return orientationOf(x)
}

// Orientation is ReadOrientation over an in-memory file.
func Orientation(data []byte) int {
	return ReadOrientation(bytes.NewReader(data))
}

func orientationOf(x *exif.Exif) int {
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}
