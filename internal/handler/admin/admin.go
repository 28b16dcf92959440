package admin

import (
	"tradeflow/internal/service"
	"tradeflow/pkg/errors"
	"tradeflow/pkg/errors/ecode"
	"tradeflow/pkg/response"
	"tradeflow/pkg/validator"

	"github.com/gin-gonic/gin"
)

// 管理侧接口，路由层已经挂了管理员鉴权

type Handler struct {
	forceClose *service.ForceCloseService
}

func NewHandler(forceClose *service.ForceCloseService) *Handler {
	return &Handler{forceClose: forceClose}
}

type forceCloseReq struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// ForceCloseAll 强平目标用户的全部持仓，返回聚合结果
// 单个仓位失败不会让整个请求失败，失败明细在errors里
func (h *Handler) ForceCloseAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req forceCloseReq
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, errors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}
		summary := h.forceClose.ForceCloseAll(c.Request.Context(), req.UserID)
		response.JSON(c, nil, summary)
	}
}
