package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// poolStats is the pool snapshot reported by the health endpoint. Enough to
// spot exhaustion during an ingest burst, nothing more.
type poolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

func snapshot(pool *pgxpool.Pool) poolStats {
	st := pool.Stat()
	return poolStats{
		TotalConns:    st.TotalConns(),
		IdleConns:     st.IdleConns(),
		AcquiredConns: st.AcquiredConns(),
		MaxConns:      st.MaxConns(),
	}
}

// HealthHandler reports database liveness for load balancer checks. A ping
// failure returns 503 so an instance with a lost database drops out of
// rotation.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
				"pool":   snapshot(pool),
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"pool":   snapshot(pool),
		})
	}
}
