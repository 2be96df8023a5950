package model

import "strings"

// Format selects one of the three conversions.
type Format string

const (
	FormatDocx   Format = "docx"
	FormatImages Format = "images"
	FormatText   Format = "text"
)

// Download content types for each artifact kind.
const (
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEZip  = "application/zip"
	MIMEText = "text/plain"
)

// ImagesArchiveName is the fixed download name of the page image archive.
const ImagesArchiveName = "converted_images.zip"

// Formats lists the supported conversions in display order.
var Formats = []Format{FormatDocx, FormatImages, FormatText}

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatDocx, FormatImages, FormatText:
		return f, true
	}
	return "", false
}

// Artifact is a file produced by a successful conversion and offered for download.
type Artifact struct {
	DocumentID  string `json:"document_id"`
	Format      Format `json:"format"`
	Key         string `json:"key"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Pages       int    `json:"pages,omitempty"`
}
