package types

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// FileInfo represents analyzed image file information
type FileInfo struct {
	Path        string            `json:"path"`
	ContentType string            `json:"type"`
	Size        int64             `json:"size"`
	Dim         Dim               `json:"dimensions"`
	Format      string            `json:"format,omitempty"`
	Orientation int               `json:"orientation,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Name returns the base name of the file
func (f *FileInfo) Name() string {
	return filepath.Base(f.Path)
}

// ToJSON converts FileInfo to JSON string
func (f *FileInfo) ToJSON() string {
	jsonBytes, _ := json.Marshal(f)
	return string(jsonBytes)
}

// String returns a human-readable representation
func (f *FileInfo) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File: %s\n", f.Path))
	sb.WriteString(fmt.Sprintf("Type: %s\n", f.ContentType))
	sb.WriteString(fmt.Sprintf("Size: %s\n", humanize.Bytes(uint64(f.Size))))
	if !f.Dim.IsZero() {
		sb.WriteString(fmt.Sprintf("Dimensions: %s\n", f.Dim))
	}
	if f.Orientation > 1 {
		sb.WriteString(fmt.Sprintf("Orientation: %d\n", f.Orientation))
	}
	keys := make([]string, 0, len(f.Metadata))
	for k := range f.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("%s: %s\n", k, f.Metadata[k]))
	}
	return sb.String()
}
