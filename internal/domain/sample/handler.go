package sample

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cianogeneway/lims/internal/platform/auth"
	"github.com/cianogeneway/lims/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "lab_tech", "physician"))
	readGroup.GET("/samples", h.ListSamples)
	readGroup.GET("/samples/:id", h.GetSample)
	readGroup.GET("/samples/:id/workflows", h.GetManifest)

	writeGroup := api.Group("", auth.RequireRole("admin", "lab_tech"))
	writeGroup.POST("/samples", h.RegisterSample)
	writeGroup.PUT("/samples/:id/status", h.UpdateStatus)
}

type registerRequest struct {
	Barcode     string            `json:"barcode"`
	ClientID    uuid.UUID         `json:"client_id"`
	Sex         string            `json:"sex"`
	Age         *int              `json:"age"`
	ReportEmail string            `json:"report_email"`
	Workflows   []WorkflowRequest `json:"workflows"`
}

func (h *Handler) RegisterSample(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	smp := &Sample{
		Barcode:     req.Barcode,
		ClientID:    req.ClientID,
		Sex:         req.Sex,
		Age:         req.Age,
		ReportEmail: req.ReportEmail,
	}
	if err := h.svc.Register(c.Request().Context(), smp, req.Workflows); err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, smp)
}

func (h *Handler) GetSample(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sample id")
	}
	smp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "sample not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, smp)
}

func (h *Handler) ListSamples(c echo.Context) error {
	p := pagination.FromContext(c)

	if raw := c.QueryParam("client"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid client id")
		}
		items, total, err := h.svc.ListByClient(c.Request().Context(), clientID, p.Limit, p.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
	}

	items, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) GetManifest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sample id")
	}
	entries, err := h.svc.Manifest(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "sample not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  entries,
		"total": len(entries),
	})
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sample id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "sample not found")
		}
		if errors.Is(err, ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	smp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, smp)
}
