package router

import (
	"tradeflow/internal/handler/admin"
	"tradeflow/internal/handler/ping"
	positionhandler "tradeflow/internal/handler/position"
	"tradeflow/internal/handler/webhook"
	"tradeflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

type ApiRouter struct {
	wh *webhook.Handler
	ph *positionhandler.Handler
	ah *admin.Handler
}

func NewApiRouter(wh *webhook.Handler, ph *positionhandler.Handler, ah *admin.Handler) *ApiRouter {
	return &ApiRouter{wh: wh, ph: ph, ah: ah}
}

func (api *ApiRouter) Load(g *gin.Engine) {
	g.Use(middleware.RequestId(), middleware.Logger, middleware.Options(), middleware.Secure())

	g.GET("/ping", ping.Ping())

	// 信号入口走HMAC验签，不走token鉴权
	g.POST("/webhook", api.wh.HandleWebhook())

	base := g.Group("/api/v1")

	p := base.Group("/position", middleware.AuthToken())
	{
		p.GET("/list", api.ph.List())
		p.GET("/orders", api.ph.Orders())
		p.POST("/open", middleware.AntiDuplicateMiddleware(), api.ph.Open())
		p.POST("/close", api.ph.Close())
	}

	a := base.Group("/admin", middleware.AuthToken(), middleware.AdminOnly())
	{
		a.POST("/forceclose", api.ah.ForceCloseAll())
	}
}
