package converter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageSource is the slice of a PDF reader the text extractor needs. Pages are 1-based.
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

// pdfPages adapts a ledongthuc/pdf reader to pageSource.
type pdfPages struct {
	r *pdf.Reader
}

func (p pdfPages) NumPage() int { return p.r.NumPage() }

func (p pdfPages) PageText(i int) (string, error) {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// openPDF opens path with ledongthuc/pdf. The parser panics on some malformed
// input; those panics come back as errors.
func openPDF(path string) (src pageSource, closer io.Closer, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			f.Close()
			src, closer, err = nil, nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	r, err := pdf.NewReader(f, st.Size())
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return pdfPages{r: r}, f, nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (n int, err error) {
	src, closer, err := openPDF(path)
	if err != nil {
		return 0, err
	}
	defer closer.Close()

	defer func() {
		if rec := recover(); rec != nil {
			n, err = 0, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return src.NumPage(), nil
}

// PDFTextExtractor implements TextExtractor on top of ledongthuc/pdf.
type PDFTextExtractor struct {
	open func(path string) (pageSource, io.Closer, error)
}

// NewTextExtractor returns the pure-Go text extractor.
func NewTextExtractor() *PDFTextExtractor {
	return &PDFTextExtractor{open: openPDF}
}

// ExtractText reads every page in order and writes the concatenation to outPath.
// The output is only written once every page has been read.
func (e *PDFTextExtractor) ExtractText(ctx context.Context, pdfPath, outPath string) error {
	src, closer, err := e.open(pdfPath)
	if err != nil {
		return err
	}
	defer closer.Close()

	text, err := collectText(ctx, src)
	if err != nil {
		return err
	}
	return writeFileAtomic(outPath, []byte(text))
}

// collectText joins page texts with no separator. Pages without text contribute nothing.
func collectText(ctx context.Context, src pageSource) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	var b strings.Builder
	n := src.NumPage()
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		t, err := src.PageText(i)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(t)
	}
	return strings.ToValidUTF8(b.String(), "\uFFFD"), nil
}
