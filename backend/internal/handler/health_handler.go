package handler

import (
	"context"
	"net/http"
	"time"

	response "adops-engine/backend/internal/infra/common"

	"github.com/gin-gonic/gin"
)

// Pinger 检查依赖是否可用，例如数据库。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler 提供 /healthz。
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler db 为 nil 时只报告进程存活。
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Liveness 数据库不可用时返回 503。
func (h *HealthHandler) Liveness(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal, "database unavailable", nil)
			return
		}
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"}, nil)
}
