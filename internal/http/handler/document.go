package handler

import (
	"errors"
	"io"
	"mime"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pdfconv/internal/model"
	"pdfconv/internal/service"
)

// ListDocuments godoc
// @Summary List uploads
// @Tags documents
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "offset" default(0)
// @Success 200 {object} service.DocumentListResult
// @Failure 400 {object} errorPayload
// @Router /documents [get]
func ListDocuments(svc service.ConversionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// UploadDocument godoc
// @Summary Upload a PDF
// @Description Stages the PDF in a fresh workspace. Only files named *.pdf are accepted.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Success 201 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Failure 415 {object} errorPayload
// @Router /documents [post]
func UploadDocument(svc service.ConversionService, maxBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		if maxBytes > 0 && fh.Size > maxBytes {
			return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "uploaded file is too large")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := svc.Upload(c.UserContext(), f, fh.Filename, ct, fh.Size)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotPDF):
				return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "only PDF files are accepted")
			case errors.Is(err, service.ErrInvalidFilename), errors.Is(err, service.ErrReaderNil):
				return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument godoc
// @Summary Get upload metadata
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetDocument(svc service.ConversionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(doc)
	}
}

// DeleteDocument godoc
// @Summary Remove an upload and all its artifacts
// @Tags documents
// @Param id path string true "document id"
// @Success 204
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [delete]
func DeleteDocument(svc service.ConversionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ConvertDocument godoc
// @Summary Convert an upload and download the result
// @Description Runs the conversion from scratch and streams the artifact as an attachment:
// @Description docx -> <name>.docx, images -> converted_images.zip (page_1.jpg ... page_N.jpg), text -> <name>.txt.
// @Tags conversions
// @Produce application/vnd.openxmlformats-officedocument.wordprocessingml.document
// @Produce application/zip
// @Produce plain
// @Param id path string true "document id"
// @Param format path string true "target format" Enums(docx, images, text)
// @Success 200 {file} file
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /documents/{id}/convert/{format} [post]
func ConvertDocument(svc service.ConversionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		format, ok := model.ParseFormat(c.Params("format"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORMAT", "format must be one of docx, images, text")
		}

		art, body, err := svc.Convert(c.UserContext(), id, format)
		if err != nil {
			var cerr *service.ConversionError
			switch {
			case errors.As(err, &cerr):
				// the one place the converter's own message reaches the client
				return writeError(c, fiber.StatusUnprocessableEntity, "CONVERSION_FAILED", cerr.Error())
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			case errors.Is(err, service.ErrUnknownFormat):
				return writeError(c, fiber.StatusBadRequest, "INVALID_FORMAT", "format must be one of docx, images, text")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		return sendArtifact(c, art, body)
	}
}

// sendArtifact streams an artifact with its download name and content type.
// body was opened by the conversion and art.Size is its length.
func sendArtifact(c *fiber.Ctx, art *model.Artifact, body io.ReadCloser) error {
	c.Set(fiber.HeaderContentDisposition, contentDisposition(art.Filename))
	c.Set(fiber.HeaderContentType, art.ContentType)
	if art.Pages > 0 {
		c.Set("X-Page-Count", strconv.Itoa(art.Pages))
	}
	// fasthttp closes body once it has been written
	return c.SendStream(body, int(art.Size))
}

// contentDisposition names the attachment exactly as the artifact is named.
// Names outside printable ASCII get an underscored filename fallback and
// the real name as an RFC 5987 filename* parameter.
func contentDisposition(name string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '_'
		}
		return r
	}, name)
	v := mime.FormatMediaType("attachment", map[string]string{"filename": fallback})
	if v == "" {
		return "attachment"
	}
	if fallback == name {
		return v
	}
	if _, ext, ok := strings.Cut(mime.FormatMediaType("attachment", map[string]string{"filename": name}), "; "); ok {
		v += "; " + ext
	}
	return v
}
