package analysis

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/eleven-am/moodlens/internal/capture"
	"github.com/eleven-am/moodlens/internal/dto"
	"github.com/eleven-am/moodlens/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/image", h.AnalyzeImage)
	g.POST("/video", h.AnalyzeVideo)
	g.POST("/webcam", h.AnalyzeWebcam)
	g.GET("/webcam/live", h.Live)
}

// openInput returns the first uploaded file among fields, or the file named
// by the "path" form value.
func openInput(c echo.Context, fields ...string) (string, io.ReadCloser, error) {
	for _, field := range fields {
		fh, err := c.FormFile(field)
		if err != nil {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return "", nil, shared.BadRequest("invalid_upload", "failed to read uploaded file")
		}
		return fh.Filename, f, nil
	}

	path := c.FormValue("path")
	if path == "" {
		return "", nil, shared.BadRequest("no_input", "no file provided")
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, shared.NotFound("file_not_found", "file not found")
		}
		return "", nil, shared.BadRequest("invalid_path", "file could not be opened")
	}
	return filepath.Base(path), f, nil
}

func (h *Handler) analysisError(err error, op string) error {
	switch {
	case errors.Is(err, ErrInput):
		return shared.BadRequest("invalid_input", err.Error())
	case errors.Is(err, capture.ErrCaptureFailed):
		h.logger.Error("capture failed", "error", err, "op", op)
		return shared.InternalError("capture_failed", err.Error())
	default:
		h.logger.Error("analysis failed", "error", err, "op", op)
		return shared.InternalError("analysis_failed", "analysis failed")
	}
}

// AnalyzeImage godoc
// @Summary      Analyze a still image
// @Description  Detects the primary face and summarizes its mood. Accepts a multipart upload in "file" or "image", or a local "path".
// @Tags         analysis
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file    false  "Image (JPEG, PNG or WebP)"
// @Param        path  formData  string  false  "Local image path"
// @Success      200   {object}  dto.ImageAnalysisResponse
// @Failure      400   {object}  shared.APIError
// @Failure      404   {object}  shared.APIError
// @Failure      500   {object}  shared.APIError
// @Router       /analyze/image [post]
func (h *Handler) AnalyzeImage(c echo.Context) error {
	name, rc, err := openInput(c, "file", "image")
	if err != nil {
		return err
	}
	defer rc.Close()

	img, err := DecodeImage(rc)
	if err != nil {
		return h.analysisError(err, "image")
	}

	resp, err := h.service.AnalyzeImage(c.Request().Context(), ImageInput{Name: name, Image: img})
	if err != nil {
		return h.analysisError(err, "image")
	}
	return c.JSON(http.StatusOK, resp)
}

// AnalyzeVideo godoc
// @Summary      Analyze a recorded video
// @Description  Averages every sample_rate-th frame of a Motion-JPEG clip
// @Tags         analysis
// @Accept       multipart/form-data
// @Produce      json
// @Param        file         formData  file     false  "Motion-JPEG video"
// @Param        path         formData  string   false  "Local video path"
// @Param        sample_rate  formData  integer  false  "Analyze every Nth frame"  default(3)
// @Success      200          {object}  dto.VideoAnalysisResponse
// @Failure      400          {object}  shared.APIError
// @Failure      404          {object}  shared.APIError
// @Failure      500          {object}  shared.APIError
// @Router       /analyze/video [post]
func (h *Handler) AnalyzeVideo(c echo.Context) error {
	rate := 0
	if v := c.FormValue("sample_rate"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return shared.BadRequest("invalid_sample_rate", "sample_rate must be a positive integer")
		}
		rate = n
	}

	name, rc, err := openInput(c, "file", "video")
	if err != nil {
		return err
	}

	resp, err := h.service.AnalyzeVideo(c.Request().Context(), VideoInput{Name: name, Reader: rc, SampleRate: rate})
	if err != nil {
		return h.analysisError(err, "video")
	}
	return c.JSON(http.StatusOK, resp)
}

// AnalyzeWebcam godoc
// @Summary      Analyze the configured camera
// @Description  Captures from the server camera in manual (bursts) or continuous mode
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request  body      dto.WebcamAnalysisRequest  true  "Capture settings"
// @Success      200      {object}  dto.WebcamAnalysisResponse
// @Failure      400      {object}  shared.APIError
// @Failure      500      {object}  shared.APIError
// @Router       /analyze/webcam [post]
func (h *Handler) AnalyzeWebcam(c echo.Context) error {
	var req dto.WebcamAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	mode, err := capture.ParseMode(req.Mode)
	if err != nil {
		return shared.BadRequest("invalid_mode", err.Error())
	}

	resp, err := h.service.AnalyzeWebcam(c.Request().Context(), WebcamInput{
		Mode:     mode,
		Duration: time.Duration(req.DurationMs) * time.Millisecond,
		Bursts:   req.Bursts,
	})
	if err != nil {
		return h.analysisError(err, "webcam")
	}
	return c.JSON(http.StatusOK, resp)
}
