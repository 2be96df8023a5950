package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pdfconv/internal/converter"
	"pdfconv/internal/logging"
	"pdfconv/internal/model"
	"pdfconv/internal/repository"
	"pdfconv/internal/storage"
)

const (
	imagesDir   = "images"
	imagesZip   = "images.zip"
	tracerName  = "pdfconv/internal/service"
	pdfMIMEType = "application/pdf"
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// ConversionService defines the use cases of the converter: staging an upload
// and turning it into one of the three artifact kinds.
type ConversionService interface {
	// Upload stores the PDF in a fresh workspace under its original base name and records it.
	// The stored file is rolled back if the record cannot be saved.
	Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error)

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Delete removes a document's workspace and record.
	Delete(ctx context.Context, id string) error

	// Convert runs one conversion from scratch, replacing any earlier artifact of the same kind.
	// On success it returns the artifact together with an open reader over it; the caller
	// must close the reader. Artifact.Size is the size of the opened file, so a later run on
	// the same document cannot change what the reader delivers.
	// Failures are returned as *ConversionError and leave no artifact behind.
	Convert(ctx context.Context, id string, format model.Format) (*model.Artifact, io.ReadCloser, error)

	// Sweep deletes every workspace created before olderThan and reports how many went.
	Sweep(ctx context.Context, olderThan time.Time) (int, error)
}

// Options tune a ConversionService. The zero value is usable.
type Options struct {
	// Timeout bounds a single conversion. Zero means no deadline.
	Timeout time.Duration
	Metrics *Metrics
	Logger  *logging.Logger
	Now     func() time.Time
}

// conversionService is a concrete implementation of ConversionService.
type conversionService struct {
	store  storage.Storage
	repo   repository.DocumentRepository
	conv   *converter.Set
	opts   Options
	log    *logging.Logger
	locks  *keyedMutex
	tracer trace.Tracer
}

// NewConversionService constructs a new ConversionService.
func NewConversionService(store storage.Storage, repo repository.DocumentRepository, conv *converter.Set, opts Options) ConversionService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}
	return &conversionService{
		store:  store,
		repo:   repo,
		conv:   conv,
		opts:   opts,
		log:    log,
		locks:  newKeyedMutex(),
		tracer: otel.Tracer(tracerName),
	}
}

func (s *conversionService) Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	name, err := sanitizeFilename(originalFilename)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return nil, ErrNotPDF
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = pdfMIMEType
	}

	// Each upload gets its own workspace so identical filenames never collide.
	id := uuid.New().String()
	key := path.Join(id, name)

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:          id,
		Filename:    name,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: objInfo.ContentType,
		CreatedAt:   s.opts.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: drop the whole workspace
		if delErr := s.store.Delete(ctx, id); delErr != nil {
			return nil, fmt.Errorf("save manifest failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("save manifest failed: %w", err)
	}

	s.log.Info("document_uploaded", map[string]any{
		"document_id": stored.ID,
		"filename":    stored.Filename,
		"size":        stored.Size,
	})
	return stored, nil
}

// List returns paginated documents without exposing repository types.
func (s *conversionService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *conversionService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Delete removes the workspace first, then the record.
func (s *conversionService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(doc.ID)
	defer unlock()

	if err := s.store.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, doc.ID)
}

func (s *conversionService) Convert(ctx context.Context, id string, format model.Format) (*model.Artifact, io.ReadCloser, error) {
	format, ok := model.ParseFormat(string(format))
	if !ok {
		return nil, nil, ErrUnknownFormat
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.Lock(doc.ID)
	defer unlock()

	ctx, span := s.tracer.Start(ctx, "conversion."+string(format), trace.WithAttributes(
		attribute.String("document.id", doc.ID),
		attribute.String("conversion.format", string(format)),
	))
	defer span.End()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	art, err := s.run(ctx, doc, format)
	var body io.ReadCloser
	if err == nil {
		body, err = s.open(ctx, art)
	}
	elapsed := time.Since(start)
	s.opts.Metrics.observe(string(format), err == nil, elapsed.Seconds())

	fields := map[string]any{
		"document_id": doc.ID,
		"format":      string(format),
		"duration_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		cerr := &ConversionError{Format: format, Err: err}
		span.RecordError(cerr)
		span.SetStatus(codes.Error, cerr.Error())
		s.log.Error("conversion_failed", cerr, fields)
		return nil, nil, cerr
	}

	span.SetAttributes(attribute.Int64("artifact.size", art.Size))
	fields["artifact"] = art.Key
	fields["size"] = art.Size
	s.log.Info("conversion_succeeded", fields)
	return art, body, nil
}

// open hands out the artifact while the document lock is still held. The open
// file outlives a later run replacing or discarding the key.
func (s *conversionService) open(ctx context.Context, art *model.Artifact) (io.ReadCloser, error) {
	rc, info, err := s.store.Get(ctx, art.Key)
	if err != nil {
		s.discard(art.Key)
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	art.Size = info.Size
	return rc, nil
}

func (s *conversionService) run(ctx context.Context, doc *model.Document, format model.Format) (*model.Artifact, error) {
	src, err := s.store.Path(doc.StoragePath)
	if err != nil {
		return nil, err
	}
	switch format {
	case model.FormatDocx:
		return s.toDocx(ctx, doc, src)
	case model.FormatImages:
		return s.toImages(ctx, doc, src)
	case model.FormatText:
		return s.toText(ctx, doc, src)
	}
	return nil, ErrUnknownFormat
}

func (s *conversionService) toDocx(ctx context.Context, doc *model.Document, src string) (*model.Artifact, error) {
	filename := doc.BaseName() + ".docx"
	key := path.Join(doc.ID, filename)
	out, err := s.store.Path(key)
	if err != nil {
		return nil, err
	}

	if err := s.conv.Docx.ToDocx(ctx, src, out); err != nil {
		s.discard(key)
		return nil, err
	}
	size, err := fileSize(out)
	if err != nil {
		s.discard(key)
		return nil, err
	}
	if size == 0 {
		s.discard(key)
		return nil, errors.New("converter produced an empty document")
	}
	return &model.Artifact{
		DocumentID:  doc.ID,
		Format:      model.FormatDocx,
		Key:         key,
		Filename:    filename,
		ContentType: model.MIMEDocx,
		Size:        size,
	}, nil
}

func (s *conversionService) toImages(ctx context.Context, doc *model.Document, src string) (*model.Artifact, error) {
	zipKey := path.Join(doc.ID, imagesZip)
	dir, err := s.store.Path(path.Join(doc.ID, imagesDir))
	if err != nil {
		return nil, err
	}
	zipPath, err := s.store.Path(zipKey)
	if err != nil {
		return nil, err
	}

	pages, err := s.conv.Images.RenderPages(ctx, src, dir)
	if err != nil {
		s.discard(zipKey)
		return nil, err
	}
	if len(pages) == 0 {
		s.discard(zipKey)
		return nil, errors.New("renderer produced no pages")
	}
	// Files poppler renders but ledongthuc/pdf cannot parse go through unchecked.
	if n, err := converter.PageCount(src); err != nil {
		s.log.Error("page_count_unavailable", err, map[string]any{"document_id": doc.ID})
	} else if n != len(pages) {
		s.discard(zipKey)
		return nil, fmt.Errorf("renderer produced %d pages, document has %d", len(pages), n)
	}
	if err := converter.ZipFiles(pages, zipPath); err != nil {
		s.discard(zipKey)
		return nil, fmt.Errorf("create archive: %w", err)
	}

	size, err := fileSize(zipPath)
	if err != nil {
		s.discard(zipKey)
		return nil, err
	}
	return &model.Artifact{
		DocumentID:  doc.ID,
		Format:      model.FormatImages,
		Key:         zipKey,
		Filename:    model.ImagesArchiveName,
		ContentType: model.MIMEZip,
		Size:        size,
		Pages:       len(pages),
	}, nil
}

func (s *conversionService) toText(ctx context.Context, doc *model.Document, src string) (*model.Artifact, error) {
	filename := doc.BaseName() + ".txt"
	key := path.Join(doc.ID, filename)
	out, err := s.store.Path(key)
	if err != nil {
		return nil, err
	}

	if err := s.conv.Text.ExtractText(ctx, src, out); err != nil {
		s.discard(key)
		return nil, err
	}
	size, err := fileSize(out)
	if err != nil {
		s.discard(key)
		return nil, err
	}
	return &model.Artifact{
		DocumentID:  doc.ID,
		Format:      model.FormatText,
		Key:         key,
		Filename:    filename,
		ContentType: model.MIMEText,
		Size:        size,
	}, nil
}

func (s *conversionService) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	docs, err := s.repo.ListCreatedBefore(ctx, olderThan)
	if err != nil {
		return 0, err
	}

	var (
		removed int
		errs    []error
	)
	for _, d := range docs {
		if err := s.Delete(ctx, d.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("sweep %s: %w", d.ID, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// discard removes a stale or partial artifact. It runs on a fresh context
// because the conversion context may already be cancelled.
func (s *conversionService) discard(key string) {
	_ = s.store.Delete(context.Background(), key)
}

// sanitizeFilename keeps only the base name of a client-supplied filename.
func sanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return "", ErrInvalidFilename
	}
	name = path.Base(name)
	if name == "." || name == ".." || name == "/" {
		return "", ErrInvalidFilename
	}
	return name, nil
}

func fileSize(p string) (int64, error) {
	st, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}
