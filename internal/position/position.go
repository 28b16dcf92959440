package position

import (
	"context"
	"time"
	"tradeflow/internal/consts"
	"tradeflow/internal/exchange"
	"tradeflow/internal/model"
	"tradeflow/internal/trade"
	"tradeflow/pkg/errors"
	"tradeflow/pkg/errors/ecode"
	"tradeflow/pkg/kafka"
	"tradeflow/pkg/logger"

	"github.com/bwmarrin/snowflake"
	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// Store 仓位持久化接口，dao.PositionDao实现
// CAS状态迁移在存储层做成单条条件更新
type Store interface {
	PositionCreate(ctx context.Context, p *model.Position, order *model.OrderRecord) error
	PositionGet(ctx context.Context, id int64) (model.Position, error)
	PositionsGetOpen(ctx context.Context) ([]model.Position, error)
	PositionsGetOpenByPortfolio(ctx context.Context, portfolioID int64) ([]model.Position, error)
	MarkClosing(ctx context.Context, id int64) (bool, error)
	MarkClosed(ctx context.Context, id int64, reason string, exitPrice, pnl, pnlPercent float64, closeOrder *model.OrderRecord) error
	Reopen(ctx context.Context, id int64) error
	UpdateTick(ctx context.Context, id int64, price, pnl, pnlPercent float64) error
}

// AccountStore 凭证查询接口，dao.PortfolioDao实现
type AccountStore interface {
	AccountsGetByPortfolio(ctx context.Context, portfolioID int64) ([]model.ExchangeAccount, error)
	PortfoliosGetByUser(ctx context.Context, userID int64) ([]model.Portfolio, error)
}

// Service 订单分发：开仓、平仓的唯一入口
// 监控循环和管理接口都走这里，平仓的幂等性由MarkClosing的CAS保证
type Service struct {
	store    Store
	accounts AccountStore
	factory  exchange.Factory
	rules    *exchange.RulesCache
	producer kafka.ProducerService
	node     *snowflake.Node

	priceTimeout time.Duration
	orderTimeout time.Duration
}

func NewService(store Store, accounts AccountStore, factory exchange.Factory, rules *exchange.RulesCache,
	producer kafka.ProducerService, node *snowflake.Node, priceTimeout, orderTimeout time.Duration) *Service {
	if priceTimeout <= 0 {
		priceTimeout = 3 * time.Second
	}
	if orderTimeout <= 0 {
		orderTimeout = 5 * time.Second
	}
	if producer == nil {
		producer = kafka.NopProducer{}
	}
	return &Service{
		store:        store,
		accounts:     accounts,
		factory:      factory,
		rules:        rules,
		producer:     producer,
		node:         node,
		priceTimeout: priceTimeout,
		orderTimeout: orderTimeout,
	}
}

// GatewayFor 取portfolio当前活跃凭证对应的网关
func (s *Service) GatewayFor(ctx context.Context, portfolioID int64) (exchange.Exchange, error) {
	accs, err := s.accounts.AccountsGetByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, errors.Wrap(err, ecode.Unknown, "load exchange accounts")
	}
	acc := exchange.SelectActiveAccount(accs)
	if acc == nil {
		return nil, errors.WithCode(ecode.NotFoundErr, "no exchange account for portfolio")
	}
	return s.factory(acc)
}

// Open 校验通过并且交易所接单后才落库，网关失败不留半截状态
// 返回的AdjustmentResult带全部调整说明，被拒时err携带拒绝原因
func (s *Service) Open(ctx context.Context, portfolioID int64, intent *model.OrderIntent) (*model.Position, *model.AdjustmentResult, error) {
	gw, err := s.GatewayFor(ctx, portfolioID)
	if err != nil {
		return nil, nil, err
	}

	rules, err := s.symbolRules(ctx, intent.Symbol, gw)
	if err != nil {
		return nil, nil, errors.Wrap(err, ecode.GatewayErr, "fetch symbol rules")
	}

	// 市价单没带现价时补一次行情
	if intent.CurrentPrice <= 0 {
		priceCtx, cancel := context.WithTimeout(ctx, s.priceTimeout)
		price, perr := gw.GetLastPrice(priceCtx, intent.Symbol)
		cancel()
		if perr != nil {
			return nil, nil, errors.Wrap(perr, ecode.GatewayErr, "fetch last price")
		}
		intent.CurrentPrice = price
	}

	res := trade.Validate(intent, rules)
	if res.Rejected {
		return nil, &res, errors.WithCode(ecode.OrderRejectedErr, res.RejectReason)
	}

	order := &model.Order{
		Symbol:    intent.Symbol,
		Side:      intent.Side,
		Price:     res.Price,
		Quantity:  res.Quantity,
		OrderType: intent.OrderType,
		TPPrice:   intent.TPPrice,
		SLPrice:   intent.SLPrice,
	}
	orderCtx, cancel := context.WithTimeout(ctx, s.orderTimeout)
	resp, err := gw.PlaceOrder(orderCtx, order)
	cancel()
	if err != nil {
		return nil, &res, errors.Wrap(err, ecode.GatewayErr, "place order")
	}

	entryPrice := res.Price
	if intent.OrderType != model.Limit || entryPrice <= 0 {
		entryPrice = intent.CurrentPrice
	}
	source := intent.Source
	if source == "" {
		source = model.SourceManual
	}

	pos := &model.Position{
		ID:           s.node.Generate().Int64(),
		PortfolioID:  portfolioID,
		Symbol:       intent.Symbol,
		Side:         model.SideOf(intent.Side),
		EntryPrice:   entryPrice,
		Quantity:     res.Quantity,
		CurrentPrice: entryPrice,
		Status:       model.PositionOpen,
		TPPrice:      intent.TPPrice,
		SLPrice:      intent.SLPrice,
		Source:       source,
	}
	record := &model.OrderRecord{
		OrderId:     resp.OrderId,
		Symbol:      intent.Symbol,
		Side:        intent.Side,
		Price:       res.Price,
		Quantity:    res.Quantity,
		OrderType:   intent.OrderType,
		Status:      resp.Status,
		FillPercent: resp.FillPercent,
		Adjustments: marshalAdjustments(res.Adjustments),
	}
	if err := s.store.PositionCreate(ctx, pos, record); err != nil {
		// 交易所已接单但本地没记上，必须人工对账
		logger.Error("position persist failed after exchange accepted order",
			logger.Pair("order_id", resp.OrderId),
			logger.Pair("symbol", intent.Symbol),
			logger.Pair("error", err.Error()))
		return nil, &res, errors.Wrap(err, ecode.Unknown, "persist position")
	}

	s.publish(ctx, consts.TopicPositionOpened, pos)
	return pos, &res, nil
}

// Close 幂等平仓，并发调用同一个仓位时只会有一次交易所请求
// 已closed直接返回当前状态；closing中返回状态冲突让调用方稍后再看
func (s *Service) Close(ctx context.Context, positionID int64, reason string) (*model.Position, error) {
	p, err := s.store.PositionGet(ctx, positionID)
	if err != nil {
		return nil, errors.Wrap(err, ecode.NotFoundErr, "position not found")
	}
	if p.Status == model.PositionClosed {
		return &p, nil
	}

	won, err := s.store.MarkClosing(ctx, positionID)
	if err != nil {
		return nil, errors.Wrap(err, ecode.Unknown, "mark closing")
	}
	if !won {
		// CAS没抢到：别人已经平掉视为成功，还在平视为冲突
		cur, rerr := s.store.PositionGet(ctx, positionID)
		if rerr != nil {
			return nil, errors.Wrap(rerr, ecode.Unknown, "reload position")
		}
		if cur.Status == model.PositionClosed {
			return &cur, nil
		}
		return nil, errors.WithCode(ecode.StateConflictErr, "position close already in progress")
	}

	pos, err := s.executeClose(ctx, &p, reason)
	if err != nil {
		// 回到open，下一轮监控继续尝试
		if rerr := s.store.Reopen(ctx, positionID); rerr != nil {
			logger.Error("revert closing position failed",
				logger.Pair("position_id", positionID),
				logger.Pair("error", rerr.Error()))
		}
		return nil, err
	}
	return pos, nil
}

// executeClose 持有closing态时的实际平仓动作
func (s *Service) executeClose(ctx context.Context, p *model.Position, reason string) (*model.Position, error) {
	gw, err := s.GatewayFor(ctx, p.PortfolioID)
	if err != nil {
		return nil, err
	}

	// 行情失败就用最近一次记录的价格估算盈亏，不阻塞平仓
	exitPrice := p.CurrentPrice
	priceCtx, cancel := context.WithTimeout(ctx, s.priceTimeout)
	if price, perr := gw.GetLastPrice(priceCtx, p.Symbol); perr == nil && price > 0 {
		exitPrice = price
	}
	cancel()

	order := &model.Order{
		Symbol:    p.Symbol,
		Side:      p.CloseSide(),
		Quantity:  p.Quantity,
		OrderType: model.Market,
	}
	orderCtx, cancel := context.WithTimeout(ctx, s.orderTimeout)
	resp, err := gw.PlaceOrder(orderCtx, order)
	cancel()
	if err != nil {
		return nil, errors.Wrap(err, ecode.GatewayErr, "place close order")
	}

	pnl, pnlPercent := p.UnrealizedPnl(exitPrice)
	record := &model.OrderRecord{
		OrderId:     resp.OrderId,
		Symbol:      p.Symbol,
		Side:        order.Side,
		Price:       exitPrice,
		Quantity:    p.Quantity,
		OrderType:   model.Market,
		Status:      resp.Status,
		FillPercent: resp.FillPercent,
		Pnl:         pnl,
	}
	if err := s.store.MarkClosed(ctx, p.ID, reason, exitPrice, pnl, pnlPercent, record); err != nil {
		// 交易所已平但closed没写进去，人工对账
		logger.Error("mark closed failed after exchange accepted close order",
			logger.Pair("position_id", p.ID),
			logger.Pair("order_id", resp.OrderId),
			logger.Pair("error", err.Error()))
		return nil, errors.Wrap(err, ecode.Unknown, "mark closed")
	}

	now := time.Now()
	p.Status = model.PositionClosed
	p.CloseReason = reason
	p.CurrentPrice = exitPrice
	p.Pnl = pnl
	p.PnlPercent = pnlPercent
	p.ClosedAt = &now

	s.publish(ctx, consts.TopicPositionClosed, p)
	return p, nil
}

// RefreshTick 监控回写最新价和浮动盈亏，和平仓决策相互独立
func (s *Service) RefreshTick(ctx context.Context, p *model.Position, price float64) {
	pnl, pnlPercent := p.UnrealizedPnl(price)
	if err := s.store.UpdateTick(ctx, p.ID, price, pnl, pnlPercent); err != nil {
		logger.Warnf("update tick failed for position %d: %v", p.ID, err)
	}
	p.CurrentPrice = price
	p.Pnl = pnl
	p.PnlPercent = pnlPercent
}

func (s *Service) Store() Store           { return s.store }
func (s *Service) Accounts() AccountStore { return s.accounts }

// PriceTimeout 单次行情请求的超时预算，监控循环按symbol取价时复用
func (s *Service) PriceTimeout() time.Duration { return s.priceTimeout }

func (s *Service) symbolRules(ctx context.Context, symbol string, gw exchange.Exchange) (*model.SymbolRules, error) {
	if s.rules != nil {
		return s.rules.Get(ctx, symbol, gw)
	}
	return gw.GetSymbolRules(ctx, symbol)
}

// 事件投递失败只记日志，不影响交易主流程
func (s *Service) publish(ctx context.Context, topic string, p *model.Position) {
	if err := s.producer.Produce(ctx, topic, []byte(p.Symbol), p); err != nil {
		logger.Warnf("produce %s event failed for position %d: %v", topic, p.ID, err)
	}
}

func marshalAdjustments(adjustments []string) datatypes.JSON {
	if len(adjustments) == 0 {
		return nil
	}
	data, err := json.Marshal(adjustments)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
