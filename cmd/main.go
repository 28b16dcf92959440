package main

import (
	"context"
	"log"
	api "tradeflow/cmd/tradeflow"
	"tradeflow/conf"
	"tradeflow/internal/model"
	"tradeflow/pkg/cache"
	"tradeflow/pkg/db"
	"tradeflow/pkg/kafka"
	"tradeflow/pkg/logger"

	goexv2 "github.com/nntaoli-project/goex/v2"
)

// 启动服务（监听webhook + 仓位监控循环）

/*
本地验证：

BODY='{"portfolio_id":1,"strategy":"tv-trend","symbol":"BTC/USDT","side":"buy","price":113990,"quantity":0.01,"order_type":"market","tp_pct":0.5,"sl_pct":0.3,"timestamp":"2025-08-10T21:54:30+08:00"}'
SECRET="ab12cd34ef56abcdef1234567890abcdef1234567890abcdef1234567890"
SIGNATURE=$(echo -n $BODY | openssl dgst -sha256 -hmac $SECRET | sed 's/^.* //')

curl -X POST http://localhost:12190/webhook \
  -H "Content-Type: application/json" \
  -H "X-Signature: $SIGNATURE" \
  -d "$BODY"
*/

func main() {
	// 加载配置文件
	err := conf.LoadConfig("conf/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appCfg := conf.AppConfig
	logger.InitLogger(&appCfg.Log, appCfg.AppName)
	defer logger.Sync()

	if appCfg.Simulated {
		// okx v5 模拟盘，需要用模拟交易下创建的apikey
		goexv2.DefaultHttpCli.SetHeaders("x-simulated-trading", "1")
	}

	// mysql
	dbCfg := db.NewConfig(appCfg.Db.Username, appCfg.Db.Password, appCfg.Db.Host, appCfg.Db.Port, appCfg.Db.DbName)
	gdb, err := db.Init(dbCfg)
	if err != nil {
		logger.Fatal("init database failed", logger.Pair("error", err.Error()))
	}
	if err := gdb.AutoMigrate(
		&model.Position{},
		&model.OrderRecord{},
		&model.Portfolio{},
		&model.ExchangeAccount{},
	); err != nil {
		logger.Fatal("auto migrate failed", logger.Pair("error", err.Error()))
	}

	// redis，交易规则缓存用
	cache.InitRedis(appCfg.Redis)
	defer cache.CloseRedis()

	// kafka，仓位事件投递；没配broker就空投
	var producer kafka.ProducerService = kafka.NopProducer{}
	if appCfg.Kafka.Broker != "" {
		producer = kafka.NewKafkaProducer(appCfg.Kafka.Broker)
	}
	defer producer.Close()

	apiRouter, mon, err := api.InitRouter(gdb, cache.GetRedisClient(), producer)
	if err != nil {
		logger.Fatal("init router failed", logger.Pair("error", err.Error()))
	}

	// 仓位监控循环，服务关闭时一起退出
	monCtx, cancelMon := context.WithCancel(context.Background())
	go mon.Run(monCtx)

	server := api.NewServer(&conf.AppConfig)
	server.RegisterOnShutdown(func() {
		cancelMon()
	})
	server.Run(apiRouter)
}
