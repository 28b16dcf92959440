package service

import (
	"context"
	"math"
	"time"
	"tradeflow/internal/model"
	"tradeflow/internal/position"
	"tradeflow/pkg/errors"
	"tradeflow/pkg/errors/ecode"
	"tradeflow/pkg/logger"
)

// SignalService 把外部信号翻译成下单意图，再交给分发器
type SignalService struct {
	positions *position.Service
}

func NewSignalService(positions *position.Service) *SignalService {
	return &SignalService{positions: positions}
}

// Execute 执行一条信号：换算止盈止损绝对价后开仓
// 返回的AdjustmentResult带校验阶段的全部调整说明
func (s *SignalService) Execute(ctx context.Context, sig *model.Signal) (*model.Position, *model.AdjustmentResult, error) {
	if sig.IsExpired() {
		return nil, nil, errors.WithCode(ecode.ValidateErr, "signal expired")
	}

	// 参考价：信号带价优先，没带就拉一次行情
	refPrice := sig.Price
	if refPrice <= 0 {
		gw, err := s.positions.GatewayFor(ctx, sig.PortfolioID)
		if err != nil {
			return nil, nil, err
		}
		priceCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		refPrice, err = gw.GetLastPrice(priceCtx, sig.Symbol)
		cancel()
		if err != nil {
			return nil, nil, errors.Wrap(err, ecode.GatewayErr, "fetch last price")
		}
	}

	side := model.OrderSide(sig.Side)
	orderType := model.OrderType(sig.OrderType)
	if orderType == "" {
		orderType = model.Market
	}

	intent := &model.OrderIntent{
		Symbol:       sig.Symbol,
		Side:         side,
		OrderType:    orderType,
		Quantity:     sig.Quantity,
		QuoteAmount:  sig.QuoteAmount,
		CurrentPrice: refPrice,
		TPPrice:      computeTP(side, refPrice, sig.TpPct),
		SLPrice:      computeSL(side, refPrice, sig.SlPct),
		Source:       model.SourceSignal,
	}
	if orderType == model.Limit {
		intent.Price = refPrice
	}

	pos, res, err := s.positions.Open(ctx, sig.PortfolioID, intent)
	if err != nil {
		return nil, res, err
	}
	logger.Info("signal executed",
		logger.Pair("strategy", sig.Strategy),
		logger.Pair("symbol", sig.Symbol),
		logger.Pair("position_id", pos.ID))
	return pos, res, nil
}

// 计算止盈价，百分比在参考价基础上换算
func computeTP(side model.OrderSide, price float64, tpPercent float64) float64 {
	if tpPercent <= 0 {
		return 0
	}
	if side == model.Buy {
		return round2(price * (1 + tpPercent/100))
	}
	return round2(price * (1 - tpPercent/100))
}

// 计算止损价
func computeSL(side model.OrderSide, price float64, slPercent float64) float64 {
	if slPercent <= 0 {
		return 0
	}
	if side == model.Buy {
		return round2(price * (1 - slPercent/100))
	}
	return round2(price * (1 + slPercent/100))
}

func round2(val float64) float64 {
	return math.Round(val*100) / 100
}
