package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"tradeflow/conf"
	"tradeflow/internal/model"
	"tradeflow/internal/service"
	"tradeflow/pkg/errors"
	"tradeflow/pkg/errors/ecode"
	"tradeflow/pkg/logger"
	"tradeflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// TradingView Webhook 的接收器
// 验签通过的信号直接进下单通道，调整说明原样带回给信号源

type Handler struct {
	signals *service.SignalService
}

func NewHandler(signals *service.SignalService) *Handler {
	return &Handler{signals: signals}
}

// HandleWebhook 接收POST请求并执行信号
// 请求体的HMAC-SHA256(hex)放在X-Signature头里
func (h *Handler) HandleWebhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		signature := c.GetHeader("X-Signature")
		if signature == "" {
			response.BadRequests(c)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.JSON(c, errors.WithCode(ecode.ValidateErr, "failed to read body"), nil)
			return
		}

		if !verifySignature(body, signature) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid signature"})
			return
		}

		var sig model.Signal
		if err := json.Unmarshal(body, &sig); err != nil {
			response.JSON(c, errors.WithCode(ecode.ValidateErr, "invalid signal payload"), nil)
			return
		}
		if sig.PortfolioID == 0 || sig.Symbol == "" || (sig.Side != "buy" && sig.Side != "sell") {
			response.JSON(c, errors.WithCode(ecode.ValidateErr, "missing portfolio_id/symbol/side"), nil)
			return
		}
		logger.Info("webhook signal received",
			logger.Pair("strategy", sig.Strategy),
			logger.Pair("symbol", sig.Symbol),
			logger.Pair("side", sig.Side))

		pos, adj, err := h.signals.Execute(c.Request.Context(), &sig)
		if err != nil {
			// 被拒的信号把拒绝原因和调整过程一起带回去
			response.JSON(c, err, gin.H{"adjustments": adj})
			return
		}
		response.JSON(c, nil, gin.H{
			"position":    pos,
			"adjustments": adj,
		})
	}
}

func verifySignature(body []byte, signatureHeader string) bool {
	secret := conf.AppConfig.Webhook.Secret

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	expectedMAC := h.Sum(nil)
	providedMAC, err := hex.DecodeString(signatureHeader)
	if err != nil {
		return false
	}
	return hmac.Equal(providedMAC, expectedMAC)
}
