package monitor

import (
	"context"
	"time"
	"tradeflow/internal/consts"
	"tradeflow/internal/exchange"
	"tradeflow/internal/model"
	"tradeflow/internal/position"
	"tradeflow/pkg/logger"
)

// 仓位监控循环：轮询open仓位，到达止盈/止损价就走平仓通道
// 只读仓位，所有状态变更都通过position.Service的CAS平仓路径
// 两次调度重叠时的安全性完全由那条CAS保证，这里不加锁

type Monitor struct {
	svc      *position.Service
	interval time.Duration
}

func NewMonitor(svc *position.Service, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{svc: svc, interval: interval}
}

// Run 固定间隔调度，ctx取消后退出
func (m *Monitor) Run(ctx context.Context) {
	logger.Infof("position monitor started, interval %s", m.interval)

	// 启动先跑一轮，不等第一个tick
	m.MonitorPositions(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("position monitor stopped")
			return
		case <-ticker.C:
			m.MonitorPositions(ctx)
		}
	}
}

// MonitorPositions 单轮巡检，可以被外部调度器直接调用，重入安全
// 整轮带deadline（等于调度间隔），避免慢交易所把多轮堆在一起
func (m *Monitor) MonitorPositions(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	open, err := m.svc.Store().PositionsGetOpen(passCtx)
	if err != nil {
		logger.Errorf("monitor: load open positions failed: %v", err)
		return
	}
	if len(open) == 0 {
		return
	}

	// 按portfolio分组，每个portfolio的凭证和网关只取一次
	byPortfolio := make(map[int64][]model.Position)
	for _, p := range open {
		byPortfolio[p.PortfolioID] = append(byPortfolio[p.PortfolioID], p)
	}

	var checked, triggered, failed int
	for portfolioID, positions := range byPortfolio {
		gw, err := m.svc.GatewayFor(passCtx, portfolioID)
		if err != nil {
			// 凭证或网关故障只影响这个portfolio，下一轮重试
			logger.Errorf("monitor: gateway for portfolio %d failed: %v", portfolioID, err)
			failed += len(positions)
			continue
		}

		// 同一个symbol只拉一次行情
		prices := m.fetchPrices(passCtx, gw, positions)

		for i := range positions {
			p := &positions[i]
			price, ok := prices[p.Symbol]
			if !ok {
				failed++
				continue
			}
			checked++

			// 盈亏回写与平仓决策独立，先写观测值
			m.svc.RefreshTick(passCtx, p, price)

			reason := EvaluateExit(p, price)
			if reason == "" {
				continue
			}
			triggered++
			if _, err := m.svc.Close(passCtx, p.ID, reason); err != nil {
				// 单个仓位失败不中断本轮，其余仓位继续评估
				failed++
				logger.Error("monitor: close position failed",
					logger.Pair("position_id", p.ID),
					logger.Pair("symbol", p.Symbol),
					logger.Pair("reason", reason),
					logger.Pair("error", err.Error()))
			} else {
				logger.Info("monitor: position closed",
					logger.Pair("position_id", p.ID),
					logger.Pair("symbol", p.Symbol),
					logger.Pair("reason", reason),
					logger.Pair("price", price))
			}
		}
	}

	if triggered > 0 || failed > 0 {
		logger.Infof("monitor pass done: %d checked, %d triggered, %d failed", checked, triggered, failed)
	}
}

// fetchPrices 批量取价，一个symbol失败不影响其它symbol
// 每次取价单独限时，一个挂死的symbol不能吃掉整轮预算
func (m *Monitor) fetchPrices(ctx context.Context, gw exchange.Exchange, positions []model.Position) map[string]float64 {
	prices := make(map[string]float64)
	seen := make(map[string]bool)
	for _, p := range positions {
		if seen[p.Symbol] {
			continue
		}
		seen[p.Symbol] = true
		priceCtx, cancel := context.WithTimeout(ctx, m.svc.PriceTimeout())
		price, err := gw.GetLastPrice(priceCtx, p.Symbol)
		cancel()
		if err != nil {
			logger.Warnf("monitor: fetch price for %s failed: %v", p.Symbol, err)
			continue
		}
		prices[p.Symbol] = price
	}
	return prices
}

// EvaluateExit 判断当前价是否触发退出，返回平仓原因，不触发返回空串
// 多仓：价格>=止盈 或 <=止损；空仓反向
// 价格一根跳空同时穿过两个阈值时止损优先（保本金优先于落袋）
func EvaluateExit(p *model.Position, price float64) string {
	if p == nil || price <= 0 {
		return ""
	}
	var tpHit, slHit bool
	switch p.Side {
	case model.PositionSideLong:
		tpHit = p.TPPrice > 0 && price >= p.TPPrice
		slHit = p.SLPrice > 0 && price <= p.SLPrice
	case model.PositionSideShort:
		tpHit = p.TPPrice > 0 && price <= p.TPPrice
		slHit = p.SLPrice > 0 && price >= p.SLPrice
	}
	if slHit {
		return consts.CloseReasonStopLoss
	}
	if tpHit {
		return consts.CloseReasonTakeProfit
	}
	return ""
}
