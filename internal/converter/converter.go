// Package converter wraps the external capabilities that do the actual PDF work:
// layout reconstruction to DOCX, page rasterization and text extraction.
// Each one has the contract "(input path) -> (output path) or error".
package converter

import (
	"context"
	"fmt"

	"pdfconv/internal/config"
)

// DocxConverter reconstructs an editable word-processing document from a PDF.
type DocxConverter interface {
	// ToDocx writes the converted document to outPath. On error nothing usable is left at outPath.
	ToDocx(ctx context.Context, pdfPath, outPath string) error
}

// ImageRenderer rasterizes every page of a PDF.
type ImageRenderer interface {
	// RenderPages writes page_1.jpg ... page_N.jpg into outDir and returns their paths in page order.
	RenderPages(ctx context.Context, pdfPath, outDir string) ([]string, error)
}

// TextExtractor pulls the text layer out of a PDF.
type TextExtractor interface {
	// ExtractText writes the UTF-8 text of every page, concatenated in order, to outPath.
	ExtractText(ctx context.Context, pdfPath, outPath string) error
}

// Set bundles one implementation of each capability.
type Set struct {
	Docx   DocxConverter
	Images ImageRenderer
	Text   TextExtractor

	binaries []string
	exec     executor
}

// New builds the production converters from cfg.
func New(cfg config.ConverterConfig) *Set {
	ex := osExecutor{}
	return &Set{
		Docx:     &LibreOfficeConverter{bin: cfg.SofficePath, exec: ex},
		Images:   &PopplerRenderer{bin: cfg.PdftoppmPath, dpi: DefaultDPI, exec: ex},
		Text:     NewTextExtractor(),
		binaries: []string{cfg.SofficePath, cfg.PdftoppmPath},
		exec:     ex,
	}
}

// Check reports whether every external binary the set depends on can be found.
func (s *Set) Check(ctx context.Context) error {
	if s.exec == nil {
		return nil
	}
	for _, bin := range s.binaries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.exec.LookPath(bin); err != nil {
			return fmt.Errorf("converter binary %q unavailable: %w", bin, err)
		}
	}
	return nil
}
