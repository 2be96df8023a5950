// Package testutil builds fixture documents for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf/v2"
)

// WritePDF renders one A4 page per entry of pages, each carrying that text,
// and saves the document as dir/name.
func WritePDF(t testing.TB, dir, name string, pages ...string) string {
	t.Helper()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetFont("Helvetica", "", 14)
	for _, text := range pages {
		pdf.AddPage()
		pdf.Cell(0, 10, text)
	}

	path := filepath.Join(dir, name)
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("write fixture pdf: %v", err)
	}
	return path
}

// WriteFile saves arbitrary bytes as dir/name, e.g. a corrupted upload.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
