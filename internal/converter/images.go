package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// DefaultDPI is the fixed rendering resolution for page images.
const DefaultDPI = 200

var (
	renderedPage = regexp.MustCompile(`^page-0*(\d+)\.jpg$`)
	finalPage    = regexp.MustCompile(`^page_\d+\.jpg$`)
)

// PageImageName is the output name of page n (1-based).
func PageImageName(n int) string {
	return fmt.Sprintf("page_%d.jpg", n)
}

// PopplerRenderer implements ImageRenderer with poppler's pdftoppm.
type PopplerRenderer struct {
	bin  string
	dpi  int
	exec executor
}

// RenderPages renders all pages as JPEG. pdftoppm names its outputs page-1.jpg
// or page-01.jpg depending on the page count; they are renamed to page_<n>.jpg.
func (r *PopplerRenderer) RenderPages(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	if err := clearPages(outDir); err != nil {
		return nil, fmt.Errorf("clear previous renders: %w", err)
	}

	args := []string{"-jpeg", "-r", strconv.Itoa(r.dpi), pdfPath, filepath.Join(outDir, "page")}
	if err := runTool(ctx, r.exec, r.bin, args...); err != nil {
		_ = clearPages(outDir)
		return nil, err
	}

	pages, err := collectPages(outDir)
	if err != nil {
		_ = clearPages(outDir)
		return nil, err
	}
	return pages, nil
}

// collectPages renames raw renderer outputs and returns them ordered by page number.
// Page numbers must run 1..N without gaps.
func collectPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	nums := make([]int, 0, len(entries))
	for _, e := range entries {
		m := renderedPage.FindStringSubmatch(e.Name())
		if m == nil || e.IsDir() {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		if err := os.Rename(filepath.Join(dir, e.Name()), filepath.Join(dir, PageImageName(n))); err != nil {
			return nil, err
		}
		nums = append(nums, n)
	}
	if len(nums) == 0 {
		return nil, fmt.Errorf("renderer produced no pages")
	}

	sort.Ints(nums)
	pages := make([]string, len(nums))
	for i, n := range nums {
		if n != i+1 {
			return nil, fmt.Errorf("renderer output is missing page %d", i+1)
		}
		pages[i] = filepath.Join(dir, PageImageName(n))
	}
	return pages, nil
}

// clearPages removes page images left by an earlier run.
func clearPages(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if finalPage.MatchString(e.Name()) || renderedPage.MatchString(e.Name()) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
