package v1alpha1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/thoas/go-funk"

	api "github.com/kubev2v/stock-importer/api/v1alpha1"
	"github.com/kubev2v/stock-importer/internal/handlers/v1alpha1/mappers"
	"github.com/kubev2v/stock-importer/internal/service"
	"github.com/kubev2v/stock-importer/pkg/requestid"
	"go.uber.org/zap"
)

var csvContentTypes = []string{"text/csv", "application/csv"}

// CreateImport accepts a multipart upload carrying a "file" part and an
// optional "mode" selector (form field before the file part, or query
// parameter). The file part is streamed straight into staging, never fully
// buffered, and a job id is returned with 202 once staging is done.
func (h *ServiceHandler) CreateImport(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("import_handler")

	mode := api.StringToImportMode(r.URL.Query().Get("mode"))

	multipart, err := r.MultipartReader()
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to read multipart form: %v", err))
		return
	}

	var jobID string
	fileSeen := false

	for {
		part, err := multipart.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to read multipart form: %v", err))
			return
		}

		switch part.FormName() {
		case "mode":
			value, err := io.ReadAll(io.LimitReader(part, 64))
			if err != nil {
				h.renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to read mode field: %v", err))
				return
			}
			mode = api.StringToImportMode(strings.TrimSpace(string(value)))
		case "file":
			if contentType := part.Header.Get("Content-Type"); !isCSVUpload(contentType, part.FileName()) {
				h.renderError(w, r, http.StatusUnsupportedMediaType, service.NewErrInvalidContentType(contentType).Error())
				return
			}

			jobID, err = h.importSrv.CreateImport(r.Context(), part, mode)
			if err != nil {
				logger.Errorf("failed to create import: %s", err)
				switch err.(type) {
				case *service.ErrEmptyFile:
					h.renderError(w, r, http.StatusBadRequest, err.Error())
				case *service.ErrTooManyImports:
					h.renderError(w, r, http.StatusServiceUnavailable, err.Error())
				default:
					h.renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to create import: %v", err))
				}
				return
			}
			fileSeen = true
		}
	}

	if !fileSeen {
		h.renderError(w, r, http.StatusBadRequest, "file is required")
		return
	}

	render.Status(r, http.StatusAccepted)
	_ = render.Render(w, r, importAcceptedReply{api.ImportAccepted{Id: jobID}})
}

// GetImport returns the current lifecycle snapshot of a job.
func (h *ServiceHandler) GetImport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := h.importSrv.GetImport(r.Context(), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			h.renderError(w, r, http.StatusNotFound, err.Error())
		default:
			h.renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get import: %v", err))
		}
		return
	}

	_ = render.Render(w, r, importJobReply{mappers.ImportJobToApi(id, *status)})
}

func (h *ServiceHandler) renderError(w http.ResponseWriter, r *http.Request, code int, message string) {
	render.Status(r, code)
	_ = render.Render(w, r, errorReply{api.Error{Message: message, RequestId: requestid.FromContextPtr(r.Context())}})
}

// isCSVUpload accepts a declared CSV content type, or falls back to the
// filename extension for clients that upload CSV as a generic byte stream.
func isCSVUpload(contentType, filename string) bool {
	if mediaType, _, found := strings.Cut(contentType, ";"); found {
		contentType = strings.TrimSpace(mediaType)
	}
	if funk.ContainsString(csvContentTypes, contentType) {
		return true
	}
	if contentType == "" || contentType == "application/octet-stream" {
		return strings.HasSuffix(strings.ToLower(filename), ".csv")
	}
	return false
}

type importAcceptedReply struct {
	api.ImportAccepted
}

func (importAcceptedReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type importJobReply struct {
	api.ImportJob
}

func (importJobReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type errorReply struct {
	api.Error
}

func (errorReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
