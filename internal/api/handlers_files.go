// handlers_files.go - Session file selection handlers
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rag-file-chatbot/backend/internal/extract"
	"github.com/rag-file-chatbot/backend/internal/models"
	"github.com/rag-file-chatbot/backend/internal/storage"
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store    storage.Store
	sessions SessionRegistry
	logger   *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(store storage.Store, sessions SessionRegistry, logger *slog.Logger) FileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileHandlerImpl{store: store, sessions: sessions, logger: logger}
}

type uploadFilesResponse struct {
	Changed bool              `json:"changed"`
	Files   []models.FileInfo `json:"files"`
}

// HandleUploadFiles replaces the session's file selection with the files of
// the multipart field "files". Sending no files clears the selection.
func (h *FileHandlerImpl) HandleUploadFiles(c echo.Context) error {
	ctrl, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("expected multipart form data", err)
	}
	headers := form.File["files"]

	for _, fh := range headers {
		if _, ok := extract.MIMEForName(fh.Filename); !ok {
			return &APIError{
				Status:  http.StatusBadRequest,
				Code:    "UNSUPPORTED_FILE_TYPE",
				Message: fmt.Sprintf("unsupported file type: %s", fh.Filename),
				Details: "accepted extensions: " + strings.Join(extract.SupportedExtensions(), ", "),
			}
		}
	}

	saved := make([]models.FileInfo, 0, len(headers))
	for _, fh := range headers {
		info, err := h.save(fh)
		if err != nil {
			h.discard(saved)
			if errors.Is(err, storage.ErrTooLarge) {
				return &APIError{Status: http.StatusRequestEntityTooLarge, Code: "FILE_TOO_LARGE", Message: err.Error()}
			}
			return NewInternalError("failed to save file", err)
		}
		saved = append(saved, *info)
	}

	changed, err := ctrl.UploadFiles(saved)
	if err != nil {
		h.discard(saved)
		return chatError(err)
	}
	if !changed {
		// Nothing replaced; the fresh copies are not referenced.
		h.discard(saved)
	}

	return c.JSON(http.StatusOK, uploadFilesResponse{Changed: changed, Files: ctrl.Files()})
}

// HandleListFiles returns the names of the session's files in upload order
func (h *FileHandlerImpl) HandleListFiles(c echo.Context) error {
	ctrl, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}
	files := ctrl.Files()
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"names": names,
		"files": files,
	})
}

func (h *FileHandlerImpl) save(fh *multipart.FileHeader) (*models.FileInfo, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	mimeType := extract.DeclaredMIME(fh.Filename, fh.Header.Get(echo.HeaderContentType))
	return h.store.Save(fh.Filename, mimeType, src)
}

func (h *FileHandlerImpl) discard(files []models.FileInfo) {
	for _, f := range files {
		if err := h.store.Delete(f.ID); err != nil {
			h.logger.Warn("failed to discard upload", "file", f.Name, "error", err)
		}
	}
}
