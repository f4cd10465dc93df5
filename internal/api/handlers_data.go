// handlers_data.go - Layer data upload handlers
package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/layermap/backend/internal/catalog"
	"github.com/layermap/backend/internal/storage"
)

const jsonContentType = "application/json"

// DataHandlerImpl implements the DataHandler interface
type DataHandlerImpl struct {
	store storage.Store
}

// NewDataHandler creates a new data handler instance
func NewDataHandler(store storage.Store) DataHandler {
	return &DataHandlerImpl{store: store}
}

type uploadDataRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // Base64-encoded JSON document
}

func (r *uploadDataRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}

type uploadDataResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Source string `json:"source"` // value for a layer's source field
}

// HandleUploadData accepts a JSON document as base64 JSON and saves it
func (h *DataHandlerImpl) HandleUploadData(c echo.Context) error {
	var req uploadDataRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	return h.save(c, req.Name, decoded)
}

// HandleUploadDataFile accepts a multipart "file" field and saves it
func (h *DataHandlerImpl) HandleUploadDataFile(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return NewValidationError("file")
	}

	f, err := fh.Open()
	if err != nil {
		return NewBadRequestError("unreadable upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return NewBadRequestError("unreadable upload", err)
	}
	return h.save(c, fh.Filename, data)
}

func (h *DataHandlerImpl) save(c echo.Context, name string, data []byte) error {
	if !json.Valid(data) {
		return NewBadRequestError("layer data must be a JSON document", nil)
	}

	info, err := h.store.Save(name, jsonContentType, bytes.NewReader(data))
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	return c.JSON(http.StatusCreated, uploadDataResponse{
		ID:     info.ID,
		Name:   info.Name,
		Size:   info.Size,
		Source: catalog.UploadPrefix + info.ID,
	})
}

// HandleListData returns the most recent uploads, newest first
func (h *DataHandlerImpl) HandleListData(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	files, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetData returns an upload's metadata and decoded content
func (h *DataHandlerImpl) HandleGetData(c echo.Context) error {
	id := c.Param("id")

	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}

	content, err := storage.ReadJSON(h.store, id)
	if err != nil {
		return NewInternalError("failed to read file", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"file":    info,
		"content": content,
	})
}

// HandleDeleteData removes an upload. Layers already built from it keep
// their data.
func (h *DataHandlerImpl) HandleDeleteData(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return FromError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
