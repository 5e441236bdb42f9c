package result

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/eleven-am/moodlens/internal/dto"
	"github.com/eleven-am/moodlens/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/results", h.List)
	g.GET("/results/:id", h.Get)
	g.GET("/thumbnails/:name", h.Thumbnail)
}

// List godoc
// @Summary      List analysis results
// @Description  Returns result metadata, newest first
// @Tags         results
// @Produce      json
// @Success      200  {object}  dto.ResultListResponse
// @Failure      500  {object}  shared.APIError
// @Router       /results [get]
func (h *Handler) List(c echo.Context) error {
	recs, err := h.store.List(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list results", "error", err)
		return shared.InternalError("list_failed", "failed to list results")
	}

	response := make([]dto.ResultMeta, len(recs))
	for i := range recs {
		response[i] = recs[i].Meta()
	}
	return c.JSON(http.StatusOK, dto.ResultListResponse{Results: response})
}

// Get godoc
// @Summary      Get an analysis result
// @Description  Looks up a result by id or unique id prefix
// @Tags         results
// @Produce      json
// @Param        id   path      string  true  "Result ID or prefix"
// @Success      200  {object}  dto.ResultResponse
// @Failure      404  {object}  shared.APIError
// @Failure      409  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /results/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	id := c.Param("id")
	rec, err := h.store.Get(c.Request().Context(), id)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return shared.NotFound("result_not_found", "result not found")
	case errors.Is(err, shared.ErrConflict):
		return shared.Conflict("ambiguous_id", "id prefix matches more than one result")
	case err != nil:
		h.logger.Error("failed to get result", "error", err, "id", id)
		return shared.InternalError("get_failed", "failed to get result")
	}
	return c.JSON(http.StatusOK, rec.ToResponse())
}

// Thumbnail godoc
// @Summary      Get a result thumbnail
// @Tags         results
// @Produce      jpeg
// @Param        name  path  string  true  "Thumbnail file name"
// @Success      200   {file}    binary
// @Failure      404   {object}  shared.APIError
// @Router       /thumbnails/{name} [get]
func (h *Handler) Thumbnail(c echo.Context) error {
	path, err := h.store.ThumbnailPath(c.Param("name"))
	if err != nil {
		return shared.NotFound("thumbnail_not_found", "thumbnail not found")
	}
	return c.File(path)
}
