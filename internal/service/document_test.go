package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"pdfconv/internal/converter"
	convMocks "pdfconv/internal/converter/mocks"
	"pdfconv/internal/logging"
	"pdfconv/internal/model"
	"pdfconv/internal/repository"
	"pdfconv/internal/repository/filesystem"
	repoMocks "pdfconv/internal/repository/mocks"
	"pdfconv/internal/storage"
	storeMocks "pdfconv/internal/storage/mocks"
	pdftest "pdfconv/internal/testutil"

	"github.com/klauspost/compress/zip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logging.Logger {
	return logging.New(io.Discard, time.UTC)
}

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name             string
		originalFilename string
		contentType      string
		size             int64
		setupMocks       func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader
		wantErr          error
		wantErrMsg       string
	}{
		{
			name:             "happy path",
			originalFilename: "report.pdf",
			contentType:      "application/pdf",
			size:             11,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("%PDF-1.4 xx")
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasSuffix(key, "/report.pdf") && len(key) == 36+len("/report.pdf")
				}), r, storage.PutObjectOptions{
					Size:        11,
					ContentType: "application/pdf",
				}).Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
					return storage.ObjectInfo{Key: key, Size: 11, ContentType: "application/pdf"}
				}, nil)

				mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.Filename == "report.pdf" && doc.StoragePath == doc.ID+"/report.pdf"
				})).Return(&model.Document{ID: "gen-id"}, nil)

				return r
			},
		},
		{
			name:             "directory components are stripped",
			originalFilename: `C:\Users\me\..\report.PDF`,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("x")
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasSuffix(key, "/report.PDF") && !strings.Contains(key, "..")
				}), r, storage.PutObjectOptions{ContentType: "application/pdf"}).
					Return(storage.ObjectInfo{Key: "id/report.PDF"}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(&model.Document{ID: "gen-id"}, nil)
				return r
			},
		},
		{
			name:             "validation error - nil reader",
			originalFilename: "report.pdf",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return nil
			},
			wantErr: ErrReaderNil,
		},
		{
			name:             "validation error - not a pdf",
			originalFilename: "notes.txt",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return strings.NewReader("hello")
			},
			wantErr: ErrNotPDF,
		},
		{
			name:             "validation error - empty filename",
			originalFilename: "  ",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return strings.NewReader("hello")
			},
			wantErr: ErrInvalidFilename,
		},
		{
			name:             "storage error",
			originalFilename: "report.pdf",
			size:             5,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("disk full"))
				return r
			},
			wantErrMsg: "upload to storage: disk full",
		},
		{
			name:             "repository error with successful rollback",
			originalFilename: "report.pdf",
			size:             5,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("manifest fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
				return r
			},
			wantErrMsg: "save manifest failed: manifest fail",
		},
		{
			name:             "repository error with failed rollback",
			originalFilename: "report.pdf",
			size:             5,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, mock.Anything, r, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("manifest fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
				return r
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewConversionService(mStore, mRepo, &converter.Set{}, Options{Logger: quietLogger()})

			r := tt.setupMocks(mStore, mRepo)
			doc, err := svc.Upload(ctx, r, tt.originalFilename, tt.contentType, tt.size)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			case tt.wantErrMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				assert.Nil(t, doc)
			default:
				assert.NoError(t, err)
				assert.NotNil(t, doc)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewConversionService(new(storeMocks.MockStorage), mRepo, &converter.Set{}, Options{Logger: quietLogger()})

	t.Run("defaults applied", func(t *testing.T) {
		mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
			Return(&repository.PageResult[model.Document]{Items: []model.Document{{ID: "1"}}, Total: 1}, nil).Once()

		res, err := svc.List(ctx, 0, -5)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo.On("List", ctx, repository.PageQuery{Limit: 5, Offset: 5}).Return(nil, errors.New("io error")).Once()

		_, err := svc.List(ctx, 5, 5)
		assert.EqualError(t, err, "io error")
	})
	mRepo.AssertExpectations(t)
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewConversionService(new(storeMocks.MockStorage), mRepo, &converter.Set{}, Options{Logger: quietLogger()})

	_, err := svc.Get(ctx, "")
	assert.ErrorIs(t, err, ErrIDRequired)

	mRepo.On("FindByID", ctx, "missing").Return(nil, repository.ErrNoRows).Once()
	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	mRepo.On("FindByID", ctx, "broken").Return(nil, errors.New("io error")).Once()
	_, err = svc.Get(ctx, "broken")
	assert.EqualError(t, err, "io error")
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewConversionService(mStore, mRepo, &converter.Set{}, Options{Logger: quietLogger()})

		mRepo.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil)
		mStore.On("Delete", ctx, "doc-1").Return(nil)
		mRepo.On("Delete", ctx, "doc-1").Return(nil)

		assert.NoError(t, svc.Delete(ctx, "doc-1"))
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("storage failure keeps record", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewConversionService(mStore, mRepo, &converter.Set{}, Options{Logger: quietLogger()})

		mRepo.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil)
		mStore.On("Delete", ctx, "doc-1").Return(errors.New("busy"))

		assert.EqualError(t, svc.Delete(ctx, "doc-1"), "delete storage: busy")
		mRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewConversionService(new(storeMocks.MockStorage), mRepo, &converter.Set{}, Options{Logger: quietLogger()})
		mRepo.On("FindByID", ctx, "nope").Return(nil, repository.ErrNoRows)

		assert.ErrorIs(t, svc.Delete(ctx, "nope"), ErrNotFound)
	})
}

// workspace wires the service to a real working directory with mocked converters.
type workspace struct {
	root   string
	svc    ConversionService
	docx   *convMocks.MockDocxConverter
	images *convMocks.MockImageRenderer
	text   *convMocks.MockTextExtractor
	reg    *prometheus.Registry
	m      *Metrics
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewLocal(root)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	w := &workspace{
		root:   root,
		docx:   new(convMocks.MockDocxConverter),
		images: new(convMocks.MockImageRenderer),
		text:   new(convMocks.MockTextExtractor),
		reg:    reg,
		m:      m,
	}
	set := &converter.Set{Docx: w.docx, Images: w.images, Text: w.text}
	w.svc = NewConversionService(store, filesystem.NewDocumentFS(root), set, Options{
		Timeout: time.Minute,
		Metrics: m,
		Logger:  quietLogger(),
	})
	return w
}

func (w *workspace) upload(t *testing.T, name, body string) *model.Document {
	t.Helper()
	doc, err := w.svc.Upload(context.Background(), strings.NewReader(body), name, "application/pdf", int64(len(body)))
	require.NoError(t, err)
	return doc
}

// uploadPDF stores a real document with one page per entry of pages.
func (w *workspace) uploadPDF(t *testing.T, name string, pages ...string) *model.Document {
	t.Helper()
	raw, err := os.ReadFile(pdftest.WritePDF(t, t.TempDir(), name, pages...))
	require.NoError(t, err)
	return w.upload(t, name, string(raw))
}

// convert runs one conversion and drains the returned body.
func (w *workspace) convert(t *testing.T, id string, format model.Format) (*model.Artifact, []byte, error) {
	t.Helper()
	art, rc, err := w.svc.Convert(context.Background(), id, format)
	if err != nil {
		assert.Nil(t, rc)
		return art, nil, err
	}
	defer rc.Close()
	body, rerr := io.ReadAll(rc)
	assert.NoError(t, rerr)
	return art, body, nil
}

func renderPages(n int) func(context.Context, string, string) ([]string, error) {
	return func(_ context.Context, _ string, outDir string) ([]string, error) {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, err
		}
		pages := make([]string, n)
		for i := range pages {
			pages[i] = filepath.Join(outDir, converter.PageImageName(i+1))
			if err := os.WriteFile(pages[i], []byte(fmt.Sprintf("jpeg %d", i+1)), 0o644); err != nil {
				return nil, err
			}
		}
		return pages, nil
	}
}

func writeOutput(body string) func(context.Context, string, string) error {
	return func(_ context.Context, _ string, outPath string) error {
		return os.WriteFile(outPath, []byte(body), 0o644)
	}
}

func TestConvert_UploadLayout(t *testing.T) {
	w := newWorkspace(t)
	doc := w.upload(t, "report.pdf", "%PDF-1.4")

	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Equal(t, doc.ID+"/report.pdf", doc.StoragePath)
	assert.Equal(t, int64(8), doc.Size)

	body, err := os.ReadFile(filepath.Join(w.root, doc.ID, "report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))

	// same filename twice goes to isolated workspaces
	other := w.upload(t, "report.pdf", "%PDF-1.7")
	assert.NotEqual(t, doc.ID, other.ID)
	body, err = os.ReadFile(filepath.Join(w.root, doc.ID, "report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
}

func TestConvert_ImagesEndToEnd(t *testing.T) {
	w := newWorkspace(t)
	doc := w.uploadPDF(t, "report.pdf", "one", "two", "three")
	src := filepath.Join(w.root, doc.ID, "report.pdf")
	imgDir := filepath.Join(w.root, doc.ID, "images")

	w.images.On("RenderPages", mock.Anything, src, imgDir).Return(renderPages(3))

	art, raw, err := w.convert(t, doc.ID, model.FormatImages)
	require.NoError(t, err)
	assert.Equal(t, "converted_images.zip", art.Filename)
	assert.Equal(t, model.MIMEZip, art.ContentType)
	assert.Equal(t, doc.ID+"/images.zip", art.Key)
	assert.Equal(t, 3, art.Pages)
	assert.Equal(t, art.Size, int64(len(raw)))

	zr, err := zip.OpenReader(filepath.Join(w.root, doc.ID, "images.zip"))
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"page_1.jpg", "page_2.jpg", "page_3.jpg"}, names)

	assert.Equal(t, 1.0, testutil.ToFloat64(w.m.conversions.WithLabelValues("images", "success")))
}

func TestConvert_ImagesPageCountMismatch(t *testing.T) {
	w := newWorkspace(t)
	doc := w.uploadPDF(t, "report.pdf", "one", "two", "three")

	w.images.On("RenderPages", mock.Anything, mock.Anything, mock.Anything).Return(renderPages(2)).Once()

	art, _, err := w.convert(t, doc.ID, model.FormatImages)
	assert.Nil(t, art)
	var cerr *ConversionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "error converting to images: renderer produced 2 pages, document has 3", err.Error())

	_, statErr := os.Stat(filepath.Join(w.root, doc.ID, "images.zip"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvert_Docx(t *testing.T) {
	w := newWorkspace(t)
	doc := w.upload(t, "annual.report.pdf", "%PDF-1.4")
	out := filepath.Join(w.root, doc.ID, "annual.report.docx")

	w.docx.On("ToDocx", mock.Anything, mock.Anything, out).Return(writeOutput("PK docx body")).Once()

	art, body, err := w.convert(t, doc.ID, model.FormatDocx)
	require.NoError(t, err)
	assert.Equal(t, "annual.report.docx", art.Filename)
	assert.Equal(t, model.MIMEDocx, art.ContentType)
	assert.Equal(t, int64(len("PK docx body")), art.Size)
	assert.Equal(t, "PK docx body", string(body))
}

func TestConvert_DocxEmptyOutputIsFailure(t *testing.T) {
	w := newWorkspace(t)
	doc := w.upload(t, "report.pdf", "%PDF-1.4")
	out := filepath.Join(w.root, doc.ID, "report.docx")

	w.docx.On("ToDocx", mock.Anything, mock.Anything, out).Return(writeOutput("")).Once()

	art, _, err := w.convert(t, doc.ID, model.FormatDocx)
	assert.Nil(t, art)
	var cerr *ConversionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "error converting to DOCX: converter produced an empty document", err.Error())

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvert_Text(t *testing.T) {
	w := newWorkspace(t)
	doc := w.upload(t, "report.pdf", "%PDF-1.4")
	out := filepath.Join(w.root, doc.ID, "report.txt")

	w.text.On("ExtractText", mock.Anything, mock.Anything, out).Return(writeOutput("")).Once()

	art, body, err := w.convert(t, doc.ID, model.FormatText)
	require.NoError(t, err)
	assert.Equal(t, "report.txt", art.Filename)
	assert.Equal(t, model.MIMEText, art.ContentType)
	assert.Equal(t, int64(0), art.Size)
	assert.Empty(t, body)
}

func TestConvert_UnreadableOutputIsDiscarded(t *testing.T) {
	w := newWorkspace(t)
	doc := w.upload(t, "report.pdf", "%PDF-1.4")
	out := filepath.Join(w.root, doc.ID, "report.txt")

	// the extractor reports success but leaves a dangling link behind
	w.text.On("ExtractText", mock.Anything, mock.Anything, out).Return(func(_ context.Context, _, outPath string) error {
		return os.Symlink(filepath.Join(w.root, "nowhere"), outPath)
	}).Once()

	art, _, err := w.convert(t, doc.ID, model.FormatText)
	assert.Nil(t, art)
	var cerr *ConversionError
	require.ErrorAs(t, err, &cerr)

	_, statErr := os.Lstat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvert_FailureRemovesPreviousArtifact(t *testing.T) {
	w := newWorkspace(t)
	doc := w.upload(t, "report.pdf", "%PDF-1.4")
	out := filepath.Join(w.root, doc.ID, "report.txt")

	w.text.On("ExtractText", mock.Anything, mock.Anything, out).Return(writeOutput("hello")).Once()
	_, _, err := w.convert(t, doc.ID, model.FormatText)
	require.NoError(t, err)

	w.text.On("ExtractText", mock.Anything, mock.Anything, out).Return(errors.New("not a PDF file: invalid header")).Once()
	art, _, err := w.convert(t, doc.ID, model.FormatText)
	assert.Nil(t, art)
	assert.EqualError(t, err, "error extracting text: not a PDF file: invalid header")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, 1.0, testutil.ToFloat64(w.m.conversions.WithLabelValues("text", "failure")))
}

func TestConvert_BodySurvivesLaterRuns(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t)
	doc := w.upload(t, "report.pdf", "%PDF-1.4")

	w.text.On("ExtractText", mock.Anything, mock.Anything, mock.Anything).Return(writeOutput("hello")).Once()
	first, firstBody, err := w.svc.Convert(ctx, doc.ID, model.FormatText)
	require.NoError(t, err)
	defer firstBody.Close()

	t.Run("failed rerun", func(t *testing.T) {
		w.text.On("ExtractText", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("boom")).Once()
		_, _, err := w.convert(t, doc.ID, model.FormatText)
		require.Error(t, err)
		_, statErr := os.Stat(filepath.Join(w.root, first.Key))
		require.True(t, os.IsNotExist(statErr))
	})

	w.text.On("ExtractText", mock.Anything, mock.Anything, mock.Anything).Return(writeOutput("hello again")).Once()
	second, secondBody, err := w.svc.Convert(ctx, doc.ID, model.FormatText)
	require.NoError(t, err)
	defer secondBody.Close()

	raw, err := io.ReadAll(firstBody)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(raw))
	assert.Equal(t, int64(len(raw)), first.Size)

	raw, err = io.ReadAll(secondBody)
	require.NoError(t, err)
	assert.Equal(t, "hello again", string(raw))
	assert.Equal(t, int64(len(raw)), second.Size)
}

func TestConvert_RenderFailureSkipsArchive(t *testing.T) {
	w := newWorkspace(t)
	doc := w.upload(t, "report.pdf", "%PDF-1.4")

	w.images.On("RenderPages", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("pdftoppm failed: exit status 1")).Once()

	_, _, err := w.convert(t, doc.ID, model.FormatImages)
	assert.EqualError(t, err, "error converting to images: pdftoppm failed: exit status 1")

	_, statErr := os.Stat(filepath.Join(w.root, doc.ID, "images.zip"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvert_RerunIsIdempotent(t *testing.T) {
	w := newWorkspace(t)
	doc := w.uploadPDF(t, "report.pdf", "one", "two")
	w.images.On("RenderPages", mock.Anything, mock.Anything, mock.Anything).Return(renderPages(2))

	first, firstZip, err := w.convert(t, doc.ID, model.FormatImages)
	require.NoError(t, err)

	second, _, err := w.convert(t, doc.ID, model.FormatImages)
	require.NoError(t, err)
	assert.Equal(t, first.Key, second.Key)

	zr, err := zip.OpenReader(filepath.Join(w.root, second.Key))
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 2)
	assert.NotEmpty(t, firstZip)
}

func TestConvert_Errors(t *testing.T) {
	w := newWorkspace(t)

	_, _, err := w.convert(t, "missing", model.FormatText)
	assert.ErrorIs(t, err, ErrNotFound)

	doc := w.upload(t, "report.pdf", "%PDF-1.4")
	_, _, err = w.convert(t, doc.ID, model.Format("pptx"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestConvert_TimeoutReachesConverter(t *testing.T) {
	w := newWorkspace(t)
	doc := w.upload(t, "report.pdf", "%PDF-1.4")

	w.text.On("ExtractText", mock.Anything, mock.Anything, mock.Anything).Return(func(ctx context.Context, _, _ string) error {
		deadline, ok := ctx.Deadline()
		if !ok || time.Until(deadline) > time.Minute {
			return errors.New("missing deadline")
		}
		return os.WriteFile(filepath.Join(w.root, doc.ID, "report.txt"), nil, 0o644)
	}).Once()

	_, _, err := w.convert(t, doc.ID, model.FormatText)
	assert.NoError(t, err)
}

func TestConvert_SameDocumentIsSerialized(t *testing.T) {
	w := newWorkspace(t)
	doc := w.upload(t, "report.pdf", "%PDF-1.4")

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	w.text.On("ExtractText", mock.Anything, mock.Anything, mock.Anything).Return(func(_ context.Context, _, out string) error {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return os.WriteFile(out, []byte("x"), 0o644)
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, body, err := w.svc.Convert(context.Background(), doc.ID, model.FormatText)
			if assert.NoError(t, err) {
				body.Close()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestSweep(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewLocal(root)
	require.NoError(t, err)
	repo := filesystem.NewDocumentFS(root)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now.Add(-2 * time.Hour)
	svc := NewConversionService(store, repo, &converter.Set{}, Options{
		Logger: quietLogger(),
		Now:    func() time.Time { return clock },
	})

	old, err := svc.Upload(context.Background(), strings.NewReader("%PDF"), "old.pdf", "", 4)
	require.NoError(t, err)
	clock = now
	fresh, err := svc.Upload(context.Background(), strings.NewReader("%PDF"), "fresh.pdf", "", 4)
	require.NoError(t, err)

	removed, err := svc.Sweep(context.Background(), now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(root, old.ID))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, fresh.ID, "fresh.pdf"))
	assert.NoError(t, err)
}

func TestConversionError(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		format model.Format
		want   string
	}{
		{model.FormatDocx, "error converting to DOCX: boom"},
		{model.FormatImages, "error converting to images: boom"},
		{model.FormatText, "error extracting text: boom"},
		{model.Format("odt"), "error converting to odt: boom"},
	}
	for _, tt := range tests {
		err := &ConversionError{Format: tt.format, Err: cause}
		assert.Equal(t, tt.want, err.Error())
		assert.ErrorIs(t, err, cause)
	}
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}
