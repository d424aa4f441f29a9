package handler

import (
	"context"
	"net/http"

	response "adops-engine/backend/internal/infra/common"
	appLogger "adops-engine/backend/internal/infra/logger"
	platformsvc "adops-engine/backend/internal/service/platform"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CredentialService 由 platform.Service 实现。
type CredentialService interface {
	Save(ctx context.Context, adAccountID string, input platformsvc.SaveInput) (platformsvc.Credential, error)
	Delete(ctx context.Context, adAccountID string) error
}

// CredentialHandler 管理广告账户的平台访问令牌。
type CredentialHandler struct {
	service CredentialService
	logger  *zap.SugaredLogger
}

// NewCredentialHandler 构造凭据 Handler。
func NewCredentialHandler(service CredentialService) *CredentialHandler {
	return &CredentialHandler{service: service, logger: appLogger.Component("credential.handler")}
}

// SaveCredentialRequest provider 缺省为 meta。
type SaveCredentialRequest struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"accessToken" binding:"required"`
	Disabled    bool   `json:"disabled"`
}

// Save 写入或覆盖凭据，响应中只包含脱敏后的令牌。
func (h *CredentialHandler) Save(c *gin.Context) {
	log := h.logger.With("operation", "save")
	var req SaveCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, err.Error(), nil)
		return
	}

	adAccountID := c.Param("adAccountId")
	credential, err := h.service.Save(c.Request.Context(), adAccountID, platformsvc.SaveInput{
		Provider:    req.Provider,
		AccessToken: req.AccessToken,
		Disabled:    req.Disabled,
	})
	if err != nil {
		writeError(c, log.With("ad_account_id", adAccountID), err)
		return
	}
	response.Success(c, http.StatusOK, credential, nil)
}

// Delete 删除凭据，之后该账户的采集回退为模拟数据。
func (h *CredentialHandler) Delete(c *gin.Context) {
	log := h.logger.With("operation", "delete")
	adAccountID := c.Param("adAccountId")
	if err := h.service.Delete(c.Request.Context(), adAccountID); err != nil {
		writeError(c, log.With("ad_account_id", adAccountID), err)
		return
	}
	response.NoContent(c)
}
