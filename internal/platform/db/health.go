package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const pingTimeout = 3 * time.Second

// poolInfo is the connection pool snapshot reported alongside the health
// status.
type poolInfo struct {
	Total    int32 `json:"total_conns"`
	Idle     int32 `json:"idle_conns"`
	Acquired int32 `json:"acquired_conns"`
	Max      int32 `json:"max_conns"`
}

func snapshot(stat *pgxpool.Stat) poolInfo {
	return poolInfo{
		Total:    stat.TotalConns(),
		Idle:     stat.IdleConns(),
		Acquired: stat.AcquiredConns(),
		Max:      stat.MaxConns(),
	}
}

type healthReport struct {
	Status string   `json:"status"`
	Error  string   `json:"error,omitempty"`
	Pool   poolInfo `json:"pool"`
}

func buildReport(pingErr error, info poolInfo) (int, healthReport) {
	if pingErr != nil {
		return http.StatusServiceUnavailable, healthReport{
			Status: "unhealthy",
			Error:  pingErr.Error(),
			Pool:   info,
		}
	}
	return http.StatusOK, healthReport{Status: "healthy", Pool: info}
}

// HealthHandler pings the database and reports pool usage. Returns 503 when
// the ping fails so load balancers can pull the instance.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
		defer cancel()

		code, body := buildReport(pool.Ping(ctx), snapshot(pool.Stat()))
		return c.JSON(code, body)
	}
}
