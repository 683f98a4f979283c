package handler

import (
	"context"
	"net/http"
	"time"

	"cierrecaja/internal/infra"
	"cierrecaja/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// LedgerEstado reports the ledger breaker state. Satisfied by service.TeoricoService.
type LedgerEstado interface {
	EstadoLedger() infra.CBState
}

// Health godoc
// @Summary Estado de postgres, redis, el registro de ventas y las colas
// @Description Solo postgres y redis deciden el status; el breaker del registro y la DLQ son informativos.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /health [get]
func Health(db *gorm.DB, rdb *redis.Client, ledger LedgerEstado) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"ledger": ledger.EstadoLedger().String()}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else if dlq, err := worker.DLQStats(ctx, rdb); err == nil {
			body["dlq"] = dlq
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = status == http.StatusOK
		body["db"] = dbStatus
		body["redis"] = redisStatus

		c.JSON(status, body)
	}
}
