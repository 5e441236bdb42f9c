package livesession

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
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}

// List godoc
// @Summary      List live sessions
// @Description  Returns live webcam sessions seen in the last 24 hours
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  dto.LiveSessionListResponse
// @Failure      500  {object}  shared.APIError
// @Router       /sessions [get]
func (h *Handler) List(c echo.Context) error {
	sessions, err := h.store.List(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		return shared.InternalError("list_failed", "failed to list sessions")
	}

	response := make([]dto.LiveSessionResponse, len(sessions))
	for i, s := range sessions {
		response[i] = s.ToResponse()
	}
	return c.JSON(http.StatusOK, dto.LiveSessionListResponse{Sessions: response})
}

// Get godoc
// @Summary      Get a live session
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  dto.LiveSessionResponse
// @Failure      404  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /sessions/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	id := c.Param("id")

	sess, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("session_not_found", "session not found")
		}
		h.logger.Error("failed to get session", "error", err, "session_id", id)
		return shared.InternalError("get_failed", "failed to get session")
	}
	return c.JSON(http.StatusOK, sess.ToResponse())
}
