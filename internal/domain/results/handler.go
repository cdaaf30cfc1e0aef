package results

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cianogeneway/lims/internal/domain/sample"
	"github.com/cianogeneway/lims/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "lab_tech", "physician"))
	readGroup.GET("/workflow-results/:id", h.GetResult)
	readGroup.GET("/samples/:id/results", h.ListSampleResults)

	writeGroup := api.Group("", auth.RequireRole("admin", "lab_tech"))
	writeGroup.POST("/workflow-results", h.SubmitResult)
}

type submitRequest struct {
	SampleID        uuid.UUID  `json:"sample_id"`
	WorkflowType    string     `json:"workflow_type"`
	WorkflowSubType *string    `json:"workflow_sub_type"`
	ResultData      ResultData `json:"result_data"`
	Override        bool       `json:"override"`
	OverrideReason  string     `json:"override_reason"`
}

func (h *Handler) SubmitResult(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, status, err := h.svc.Submit(c.Request().Context(), &Submission{
		SampleID:        req.SampleID,
		WorkflowType:    WorkflowType(req.WorkflowType),
		WorkflowSubType: req.WorkflowSubType,
		ResultData:      req.ResultData,
		Override:        req.Override,
		OverrideReason:  req.OverrideReason,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, sample.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "sample not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"result":        res,
		"sample_status": status,
	})
}

func (h *Handler) GetResult(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid result id")
	}
	res, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "workflow result not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListSampleResults(c echo.Context) error {
	sampleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sample id")
	}
	items, err := h.svc.ListBySample(c.Request().Context(), sampleID)
	if err != nil {
		if errors.Is(err, sample.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "sample not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
