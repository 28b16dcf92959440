package ping

import (
	"net/http"
	"time"
	"tradeflow/conf"

	"github.com/gin-gonic/gin"
)

// 健康检查，启动自检和外部探活共用
func Ping() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"app":    conf.AppConfig.AppName,
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
