package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/plate-reader/internal/logging"
	"github.com/ironsheep/plate-reader/internal/service"
	"github.com/ironsheep/plate-reader/internal/storage"
)

// Handler holds the gin handlers.
type Handler struct {
	plates *service.Plates
	logger *logging.Logger
}

// POST /predict
func (h *Handler) Predict(c *gin.Context) {
	data, ok := h.upload(c)
	if !ok {
		return
	}
	pred, err := h.plates.Predict(c.Request.Context(), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pred)
}

// POST /predict/debug
func (h *Handler) PredictDebug(c *gin.Context) {
	data, ok := h.upload(c)
	if !ok {
		return
	}
	d, err := h.plates.PredictDebug(c.Request.Context(), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// POST /blacklist/add-by-photo
func (h *Handler) AddBlacklistByPhoto(c *gin.Context) {
	data, ok := h.upload(c)
	if !ok {
		return
	}
	res, err := h.plates.AddBlacklistByPhoto(c.Request.Context(), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "plate": res.Entry.PlateText, "created": res.Created, "entry": res.Entry})
}

// GET /blacklist
func (h *Handler) ListBlacklist(c *gin.Context) {
	entries, err := h.plates.Blacklist(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// POST /blacklist/add?plate=
func (h *Handler) AddBlacklist(c *gin.Context) {
	res, err := h.plates.AddBlacklist(c.Request.Context(), c.Query("plate"))
	if err != nil {
		h.fail(c, err)
		return
	}
	status := "added"
	if !res.Created {
		status = "exists"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "entry": res.Entry})
}

// DELETE /blacklist/remove/:id
func (h *Handler) RemoveBlacklist(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid blacklist id"})
		return
	}
	if err := h.plates.RemoveBlacklist(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GET /history
func (h *Handler) History(c *gin.Context) {
	records, err := h.plates.History(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// upload reads the multipart "file" field. On failure it writes a 400 and
// reports false.
func (h *Handler) upload(c *gin.Context) ([]byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to open upload: %v", err)})
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to read upload: %v", err)})
		return nil, false
	}
	return data, true
}

// fail maps service errors to HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidImage),
		errors.Is(err, service.ErrNoPlate),
		errors.Is(err, service.ErrInvalidPlate):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
