package service

import (
	"errors"
	"fmt"

	"pdfconv/internal/model"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNotFound        = errors.New("document not found")
	ErrReaderNil       = errors.New("reader is nil")
	ErrInvalidFilename = errors.New("invalid filename")
	ErrNotPDF          = errors.New("only PDF files are accepted")
	ErrUnknownFormat   = errors.New("unknown conversion format")
)

// ConversionError is the single failure class of a conversion. It carries the
// underlying converter's message as free text.
type ConversionError struct {
	Format model.Format
	Err    error
}

func (e *ConversionError) Error() string {
	switch e.Format {
	case model.FormatDocx:
		return fmt.Sprintf("error converting to DOCX: %v", e.Err)
	case model.FormatImages:
		return fmt.Sprintf("error converting to images: %v", e.Err)
	case model.FormatText:
		return fmt.Sprintf("error extracting text: %v", e.Err)
	}
	return fmt.Sprintf("error converting to %s: %v", e.Format, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
