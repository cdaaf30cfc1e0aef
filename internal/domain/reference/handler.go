package reference

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cianogeneway/lims/internal/platform/auth"
)

type Handler struct {
	table *Table
}

func NewHandler(table *Table) *Handler {
	return &Handler{table: table}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "lab_tech", "physician"))
	readGroup.GET("/reference-ranges", h.ListRanges)
	readGroup.GET("/reference-ranges/evaluate", h.EvaluateRange)
}

func (h *Handler) ListRanges(c echo.Context) error {
	ranges := h.table.All()
	if category := c.QueryParam("category"); category != "" {
		filtered := ranges[:0]
		for _, r := range ranges {
			if string(r.Category) == category {
				filtered = append(filtered, r)
			}
		}
		ranges = filtered
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  ranges,
		"total": len(ranges),
	})
}

// EvaluateRange is the ad-hoc range lookup used by reporting screens:
// GET /reference-ranges/evaluate?test=CREATININE&value=90&sex=F
func (h *Handler) EvaluateRange(c echo.Context) error {
	test := c.QueryParam("test")
	if test == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "test is required")
	}
	raw := c.QueryParam("value")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "value is required")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "value must be numeric")
	}

	ev := h.table.Evaluate(test, value, c.QueryParam("sex"))
	return c.JSON(http.StatusOK, ev)
}
