package api

import (
	"tradeflow/conf"
	"tradeflow/internal/dao"
	"tradeflow/internal/exchange"
	"tradeflow/internal/exchange/okx"
	"tradeflow/internal/handler/admin"
	positionhandler "tradeflow/internal/handler/position"
	"tradeflow/internal/handler/webhook"
	"tradeflow/internal/monitor"
	"tradeflow/internal/position"
	"tradeflow/internal/router"
	"tradeflow/internal/service"
	"tradeflow/pkg/kafka"
	"tradeflow/utils/security"

	"github.com/bwmarrin/snowflake"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// InitRouter 组装全部依赖：dao -> 网关工厂 -> 分发器 -> handler
// 返回路由和监控循环，监控的启动由调用方控制
func InitRouter(db *gorm.DB, rdb *redis.Client, producer kafka.ProducerService) (Router, *monitor.Monitor, error) {
	appCfg := conf.AppConfig

	cipher, err := security.NewChaChaPoly(appCfg.CredentialKey)
	if err != nil {
		return nil, nil, err
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, nil, err
	}

	positionDao := dao.NewPositionDao(db)
	orderDao := dao.NewOrderDao(db)
	portfolioDao := dao.NewPortfolioDao(db)

	factory := exchange.NewFactory(cipher, func(apiKey, secretKey, passphrase string) exchange.Exchange {
		return okx.NewOkxSpot(apiKey, secretKey, passphrase)
	})
	rulesCache := exchange.NewRulesCache(rdb, appCfg.Monitor.RulesTTL)

	posSvc := position.NewService(positionDao, portfolioDao, factory, rulesCache, producer, node,
		appCfg.Monitor.PriceTimeout, appCfg.Monitor.OrderTimeout)
	signalSvc := service.NewSignalService(posSvc)
	forceCloseSvc := service.NewForceCloseService(posSvc)

	wh := webhook.NewHandler(signalSvc)
	ph := positionhandler.NewHandler(posSvc, positionDao, orderDao)
	ah := admin.NewHandler(forceCloseSvc)

	apiRouter := router.NewApiRouter(wh, ph, ah)
	mon := monitor.NewMonitor(posSvc, appCfg.Monitor.Interval)

	return apiRouter, mon, nil
}
