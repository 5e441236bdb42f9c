package receiver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/eleven-am/moodlens/internal/dto"
	"github.com/eleven-am/moodlens/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	slot   *Slot
	logger *slog.Logger
}

func NewHandler(slot *Slot, logger *slog.Logger) *Handler {
	return &Handler{
		slot:   slot,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/upload-results", h.Upload)
	g.GET("/view-last-result", h.ViewLast)
}

// Upload godoc
// @Summary      Upload a result document
// @Description  Stores any JSON document as the last received result
// @Tags         receiver
// @Accept       json
// @Produce      json
// @Param        request  body      object  true  "Result document"
// @Success      200      {object}  dto.ReceiptResponse
// @Failure      400      {object}  shared.APIError
// @Router       /upload-results [post]
func (h *Handler) Upload(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return shared.BadRequest("invalid_request", "failed to read request body")
	}
	if len(body) == 0 || !json.Valid(body) {
		return shared.BadRequest("invalid_json", "request body must be a JSON document")
	}

	h.slot.Set(body)
	h.logger.Info("result document received", "bytes", len(body))

	return c.JSON(http.StatusOK, dto.ReceiptResponse{Status: "received"})
}

// ViewLast godoc
// @Summary      View the last result
// @Description  Returns the most recently uploaded or produced result
// @Tags         receiver
// @Produce      json
// @Success      200  {object}  dto.LastResultResponse
// @Failure      404  {object}  dto.MessageResponse
// @Router       /view-last-result [get]
func (h *Handler) ViewLast(c echo.Context) error {
	data, at, ok := h.slot.Last()
	if !ok {
		return c.JSON(http.StatusNotFound, dto.MessageResponse{Message: "No result received yet."})
	}
	return c.JSON(http.StatusOK, dto.LastResultResponse{
		LastResult: data,
		ReceivedAt: at.Format(time.RFC3339),
	})
}
