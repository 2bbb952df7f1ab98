package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

// Check reports liveness of the API and its dependencies.
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{"database": "up", "redis": "up"}

	if h.db != nil {
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			deps["database"] = "down"
			status = http.StatusServiceUnavailable
		}
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(c.Request.Context()).Err(); err != nil {
			deps["redis"] = "down"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, gin.H{"status": deps})
}
