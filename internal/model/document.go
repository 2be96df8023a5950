package model

import (
	"path/filepath"
	"strings"
	"time"
)

// Document represents an uploaded PDF staged in its own workspace.
// This is a pure domain model with no storage-specific dependencies.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"storage_path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// BaseName is the uploaded filename without its last extension ("report.pdf" -> "report").
func (d Document) BaseName() string {
	return BaseName(d.Filename)
}

// BaseName strips the last extension from name. A name that is only an
// extension (".pdf") yields "document".
func BaseName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		return "document"
	}
	return base
}
