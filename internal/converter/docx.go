package converter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LibreOfficeConverter implements DocxConverter with headless LibreOffice and
// its PDF import filter.
type LibreOfficeConverter struct {
	bin  string
	exec executor
}

// ToDocx runs soffice in a private scratch directory with its own user profile,
// so concurrent conversions do not fight over the default profile lock, then
// moves the result to outPath.
func (c *LibreOfficeConverter) ToDocx(ctx context.Context, pdfPath, outPath string) error {
	work, err := os.MkdirTemp("", "pdfconv-soffice-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(work)

	outDir := filepath.Join(work, "out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	profile := (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(work, "profile"))}).String()

	args := []string{
		"-env:UserInstallation=" + profile,
		"--headless",
		"--norestore",
		"--infilter=writer_pdf_import",
		"--convert-to", "docx:MS Word 2007 XML",
		"--outdir", outDir,
		pdfPath,
	}
	if err := runTool(ctx, c.exec, c.bin, args...); err != nil {
		return err
	}

	// soffice exits 0 on some import failures, so the output itself is the success signal.
	produced := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))+".docx")
	st, err := os.Stat(produced)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("converter produced no output")
		}
		return err
	}
	if st.Size() == 0 {
		return fmt.Errorf("converter produced an empty document")
	}
	return moveFile(produced, outPath)
}
