package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"pdfconv/internal/model"
	"pdfconv/internal/repository"
)

// ManifestName is the file holding a document record inside its workspace.
const ManifestName = "document.json"

// DocumentFS is a filesystem implementation of repository.DocumentRepository.
// Each record lives as <root>/<id>/document.json next to the upload it describes,
// so removing a workspace removes its record too.
type DocumentFS struct {
	root string
}

// NewDocumentFS creates a repository over the working directory root.
func NewDocumentFS(root string) *DocumentFS {
	return &DocumentFS{root: root}
}

var _ repository.DocumentRepository = (*DocumentFS)(nil)

// Create writes the manifest through a temp file and returns the stored record.
func (r *DocumentFS) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil || doc.ID == "" || filepath.Base(doc.ID) != doc.ID || doc.ID == "." || doc.ID == ".." {
		return nil, fmt.Errorf("invalid document id")
	}

	dir := filepath.Join(r.root, doc.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return nil, err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, ManifestName)); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}

	out := *doc
	return &out, nil
}

// FindByID reads a single manifest.
func (r *DocumentFS) FindByID(ctx context.Context, id string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" || filepath.Base(id) != id || id == "." || id == ".." {
		return nil, repository.ErrNoRows
	}
	return r.read(filepath.Join(r.root, id, ManifestName))
}

// List returns documents ordered by created_at DESC, id DESC.
func (r *DocumentFS) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, err
	}

	total := len(all)
	start := pq.Offset
	if start > total {
		start = total
	}
	end := total
	if pq.Limit > 0 && start+pq.Limit < total {
		end = start + pq.Limit
	}

	items := make([]model.Document, 0, end-start)
	items = append(items, all[start:end]...)
	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

// ListCreatedBefore returns documents older than t.
func (r *DocumentFS) ListCreatedBefore(ctx context.Context, t time.Time) ([]model.Document, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Document, 0)
	for _, d := range all {
		if d.CreatedAt.Before(t) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Delete removes the manifest only; the workspace itself belongs to storage.
func (r *DocumentFS) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" || filepath.Base(id) != id || id == "." || id == ".." {
		return nil
	}
	err := os.Remove(filepath.Join(r.root, id, ManifestName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (r *DocumentFS) all(ctx context.Context) ([]model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Document{}, nil
		}
		return nil, err
	}

	docs := make([]model.Document, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		d, err := r.read(filepath.Join(r.root, e.Name(), ManifestName))
		if err != nil {
			// workspaces without a manifest are half-created uploads
			if errors.Is(err, repository.ErrNoRows) {
				continue
			}
			return nil, err
		}
		docs = append(docs, *d)
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

func (r *DocumentFS) read(p string) (*model.Document, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repository.ErrNoRows
		}
		return nil, err
	}
	var d model.Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", p, err)
	}
	return &d, nil
}
