/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-09 10:22:17
 * @FilePath: \adops-engine\backend\internal\handler\errors.go
 * @LastEditTime: 2026-09-13 18:40:51
 */
package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	response "adops-engine/backend/internal/infra/common"
	abtestsvc "adops-engine/backend/internal/service/abtest"
	creativesvc "adops-engine/backend/internal/service/creative"
	optimizersvc "adops-engine/backend/internal/service/optimizer"
	perfsvc "adops-engine/backend/internal/service/performance"
	platformsvc "adops-engine/backend/internal/service/platform"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var badRequestErrors = []error{
	optimizersvc.ErrInvalidRate,
	creativesvc.ErrInvalidMode,
	creativesvc.ErrAdSetRequired,
	perfsvc.ErrInvalidDateRange,
	perfsvc.ErrAdAccountRequired,
	abtestsvc.ErrInvalidDuration,
	abtestsvc.ErrInvalidBudget,
	platformsvc.ErrUnsupportedProvider,
	platformsvc.ErrAccessTokenRequired,
}

// writeError 把服务层错误映射为统一响应；未识别的错误只返回通用提示，细节写日志。
func writeError(c *gin.Context, log *zap.SugaredLogger, err error) {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
			return
		}
	}

	switch {
	case errors.Is(err, abtestsvc.ErrTestNotFound), errors.Is(err, platformsvc.ErrCredentialNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound, err.Error(), nil)
	case errors.Is(err, abtestsvc.ErrInvalidTransition):
		response.Fail(c, http.StatusConflict, response.ErrInvalidTransition, err.Error(), nil)
	case errors.Is(err, platformsvc.ErrEncryptionUnavailable):
		log.Warnw("credential encryption unavailable", "error", err)
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal, err.Error(), nil)
	default:
		log.Errorw("request failed", "error", err)
		response.Internal(c, "")
	}
}

// bindOptionalJSON 允许空 body，其余解析错误返回 400。
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}
