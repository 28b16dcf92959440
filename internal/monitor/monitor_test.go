package monitor

import (
	"context"
	"sync"
	"testing"
	"time"
	"tradeflow/internal/consts"
	"tradeflow/internal/exchange"
	"tradeflow/internal/model"
	"tradeflow/internal/position"
	"tradeflow/pkg/kafka"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type fakeStore struct {
	mu        sync.Mutex
	positions map[int64]*model.Position
}

func newFakeStore(ps ...*model.Position) *fakeStore {
	s := &fakeStore{positions: make(map[int64]*model.Position)}
	for _, p := range ps {
		cp := *p
		s.positions[p.ID] = &cp
	}
	return s
}

func (s *fakeStore) PositionCreate(ctx context.Context, p *model.Position, order *model.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.positions[p.ID] = &cp
	return nil
}

func (s *fakeStore) PositionGet(ctx context.Context, id int64) (model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok {
		return model.Position{}, gorm.ErrRecordNotFound
	}
	return *p, nil
}

func (s *fakeStore) PositionsGetOpen(ctx context.Context) ([]model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Position
	for _, p := range s.positions {
		if p.Status == model.PositionOpen {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeStore) PositionsGetOpenByPortfolio(ctx context.Context, portfolioID int64) ([]model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Position
	for _, p := range s.positions {
		if p.PortfolioID == portfolioID && p.Status == model.PositionOpen {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkClosing(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok || p.Status != model.PositionOpen {
		return false, nil
	}
	p.Status = model.PositionClosing
	return true, nil
}

func (s *fakeStore) MarkClosed(ctx context.Context, id int64, reason string, exitPrice, pnl, pnlPercent float64, closeOrder *model.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok || p.Status != model.PositionClosing {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	p.Status = model.PositionClosed
	p.CloseReason = reason
	p.Pnl = pnl
	p.PnlPercent = pnlPercent
	p.ClosedAt = &now
	return nil
}

func (s *fakeStore) Reopen(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.positions[id]; ok && p.Status == model.PositionClosing {
		p.Status = model.PositionOpen
	}
	return nil
}

func (s *fakeStore) UpdateTick(ctx context.Context, id int64, price, pnl, pnlPercent float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.positions[id]; ok && p.Status == model.PositionOpen {
		p.CurrentPrice = price
		p.Pnl = pnl
		p.PnlPercent = pnlPercent
	}
	return nil
}

type fakeAccounts struct{}

func (fakeAccounts) AccountsGetByPortfolio(ctx context.Context, portfolioID int64) ([]model.ExchangeAccount, error) {
	return []model.ExchangeAccount{{ID: 1, PortfolioID: portfolioID, Exchange: "okx", IsActive: true}}, nil
}

func (fakeAccounts) PortfoliosGetByUser(ctx context.Context, userID int64) ([]model.Portfolio, error) {
	return []model.Portfolio{{ID: 1, UserID: userID}}, nil
}

func newTestMonitor(t *testing.T, sim *exchange.SimulatedExchange, store *fakeStore) *Monitor {
	t.Helper()
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatal(err)
	}
	factory := func(acc *model.ExchangeAccount) (exchange.Exchange, error) {
		return sim, nil
	}
	svc := position.NewService(store, fakeAccounts{}, factory, nil, kafka.NopProducer{}, node, time.Second, time.Second)
	return NewMonitor(svc, 30*time.Second)
}

func longPosition(id int64, tp, sl float64) *model.Position {
	return &model.Position{
		ID:          id,
		PortfolioID: 7,
		Symbol:      "BTC/USDT",
		Side:        model.PositionSideLong,
		EntryPrice:  100,
		Quantity:    1,
		Status:      model.PositionOpen,
		TPPrice:     tp,
		SLPrice:     sl,
		Source:      model.SourceSignal,
	}
}

func TestEvaluateExit(t *testing.T) {
	cases := []struct {
		name  string
		side  model.PositionSide
		tp    float64
		sl    float64
		price float64
		want  string
	}{
		{"long tp hit", model.PositionSideLong, 110, 95, 111, consts.CloseReasonTakeProfit},
		{"long sl hit", model.PositionSideLong, 110, 95, 94, consts.CloseReasonStopLoss},
		{"long neither", model.PositionSideLong, 110, 95, 100, ""},
		{"long exact tp", model.PositionSideLong, 110, 95, 110, consts.CloseReasonTakeProfit},
		{"long exact sl", model.PositionSideLong, 110, 95, 95, consts.CloseReasonStopLoss},
		// 空仓比较方向取反
		{"short tp hit", model.PositionSideShort, 90, 105, 89, consts.CloseReasonTakeProfit},
		{"short sl hit", model.PositionSideShort, 90, 105, 106, consts.CloseReasonStopLoss},
		{"short neither", model.PositionSideShort, 90, 105, 100, ""},
		// 阈值没设就永远不触发
		{"no thresholds", model.PositionSideLong, 0, 0, 1, ""},
		{"only tp set", model.PositionSideLong, 110, 0, 50, ""},
		{"only sl set", model.PositionSideLong, 0, 95, 1000, ""},
	}
	for _, c := range cases {
		p := &model.Position{Side: c.side, TPPrice: c.tp, SLPrice: c.sl}
		if got := EvaluateExit(p, c.price); got != c.want {
			t.Errorf("%s: expected %q, got %q", c.name, c.want, got)
		}
	}
}

// 价格同时穿过止盈和止损（倒挂配置）时止损优先
func TestEvaluateExitStopLossPriority(t *testing.T) {
	p := &model.Position{Side: model.PositionSideLong, TPPrice: 90, SLPrice: 95}
	if got := EvaluateExit(p, 92); got != consts.CloseReasonStopLoss {
		t.Errorf("stop loss must win when both trigger, got %q", got)
	}
	sp := &model.Position{Side: model.PositionSideShort, TPPrice: 105, SLPrice: 100}
	if got := EvaluateExit(sp, 102); got != consts.CloseReasonStopLoss {
		t.Errorf("short: stop loss must win when both trigger, got %q", got)
	}
}

func TestMonitorClosesOnStopLoss(t *testing.T) {
	sim := exchange.NewSimulatedExchange()
	sim.SetPrice("BTC/USDT", 94)
	store := newFakeStore(longPosition(1, 0, 95))
	m := newTestMonitor(t, sim, store)

	m.MonitorPositions(context.Background())

	got, _ := store.PositionGet(context.Background(), 1)
	if got.Status != model.PositionClosed {
		t.Fatalf("expected closed, got %s", got.Status)
	}
	if got.CloseReason != consts.CloseReasonStopLoss {
		t.Errorf("expected stop_loss, got %s", got.CloseReason)
	}
	if n := len(sim.PlacedOrders()); n != 1 {
		t.Errorf("expected one exchange call, got %d", n)
	}
}

// 同一轮被并发跑两次也只产生一次平仓
func TestMonitorConcurrentPassSingleClose(t *testing.T) {
	sim := exchange.NewSimulatedExchange()
	sim.SetPrice("BTC/USDT", 94)
	store := newFakeStore(longPosition(1, 0, 95))
	m := newTestMonitor(t, sim, store)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.MonitorPositions(context.Background())
		}()
	}
	wg.Wait()

	if n := len(sim.PlacedOrders()); n != 1 {
		t.Fatalf("overlapping passes must produce exactly one exchange call, got %d", n)
	}
	got, _ := store.PositionGet(context.Background(), 1)
	if got.Status != model.PositionClosed {
		t.Errorf("expected closed, got %s", got.Status)
	}
}

// 一个symbol取不到价不能拖垮同轮的其它仓位
func TestMonitorPartialFailureIsolation(t *testing.T) {
	sim := exchange.NewSimulatedExchange()
	sim.SetPrice("ETH/USDT", 2100) // BTC/USDT 没有价格，取价失败
	bad := longPosition(1, 0, 95)
	good := &model.Position{
		ID:          2,
		PortfolioID: 7,
		Symbol:      "ETH/USDT",
		Side:        model.PositionSideLong,
		EntryPrice:  2000,
		Quantity:    1,
		Status:      model.PositionOpen,
	}
	store := newFakeStore(bad, good)
	m := newTestMonitor(t, sim, store)

	m.MonitorPositions(context.Background())

	gotBad, _ := store.PositionGet(context.Background(), 1)
	if gotBad.Status != model.PositionOpen {
		t.Errorf("position without price must stay open, got %s", gotBad.Status)
	}
	gotGood, _ := store.PositionGet(context.Background(), 2)
	if gotGood.CurrentPrice != 2100 {
		t.Errorf("healthy position must still get its pnl refresh, price=%v", gotGood.CurrentPrice)
	}
	if gotGood.Pnl != 100 {
		t.Errorf("expected pnl 100, got %v", gotGood.Pnl)
	}
}

// 取价挂死的网关：指定symbol阻塞到ctx结束，其余透传给模拟交易所
type hangingGateway struct {
	*exchange.SimulatedExchange
	hangSymbol string
}

func (g *hangingGateway) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	if symbol == g.hangSymbol {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return g.SimulatedExchange.GetLastPrice(ctx, symbol)
}

// 一个symbol的行情请求挂死只消耗自己的取价预算
// 同轮其它仓位照常取价、刷新盈亏并触发平仓
func TestMonitorHungPriceFetchDoesNotStarvePass(t *testing.T) {
	sim := exchange.NewSimulatedExchange()
	sim.SetPrice("ETH/USDT", 94)
	gw := &hangingGateway{SimulatedExchange: sim, hangSymbol: "BTC/USDT"}

	hung := longPosition(1, 0, 95) // BTC/USDT 行情挂死
	eth := &model.Position{
		ID:          2,
		PortfolioID: 7,
		Symbol:      "ETH/USDT",
		Side:        model.PositionSideLong,
		EntryPrice:  100,
		Quantity:    1,
		Status:      model.PositionOpen,
		SLPrice:     95,
	}
	store := newFakeStore(hung, eth)

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatal(err)
	}
	factory := func(acc *model.ExchangeAccount) (exchange.Exchange, error) {
		return gw, nil
	}
	svc := position.NewService(store, fakeAccounts{}, factory, nil, kafka.NopProducer{}, node,
		50*time.Millisecond, time.Second)
	m := NewMonitor(svc, 30*time.Second)

	start := time.Now()
	m.MonitorPositions(context.Background())
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("hung symbol must only burn its own price budget, pass took %s", elapsed)
	}

	gotHung, _ := store.PositionGet(context.Background(), 1)
	if gotHung.Status != model.PositionOpen {
		t.Errorf("position with hung price fetch must stay open, got %s", gotHung.Status)
	}
	gotEth, _ := store.PositionGet(context.Background(), 2)
	if gotEth.Status != model.PositionClosed {
		t.Fatalf("healthy position behind the hung one must still close, got %s", gotEth.Status)
	}
	if gotEth.CloseReason != consts.CloseReasonStopLoss {
		t.Errorf("expected stop_loss, got %s", gotEth.CloseReason)
	}
	if n := len(sim.PlacedOrders()); n != 1 {
		t.Errorf("expected one exchange call, got %d", n)
	}
}

// 平仓失败的仓位留在open，下一轮重试，其余照常
func TestMonitorCloseFailureRetriedNextPass(t *testing.T) {
	sim := exchange.NewSimulatedExchange()
	sim.SetPrice("BTC/USDT", 94)
	sim.PlaceErr = context.DeadlineExceeded
	store := newFakeStore(longPosition(1, 0, 95))
	m := newTestMonitor(t, sim, store)

	m.MonitorPositions(context.Background())
	got, _ := store.PositionGet(context.Background(), 1)
	if got.Status != model.PositionOpen {
		t.Fatalf("failed close must leave position open, got %s", got.Status)
	}

	// 交易所恢复，下一轮平掉
	sim.PlaceErr = nil
	m.MonitorPositions(context.Background())
	got, _ = store.PositionGet(context.Background(), 1)
	if got.Status != model.PositionClosed {
		t.Errorf("expected closed on next pass, got %s", got.Status)
	}
}

// 没设阈值的仓位只刷新盈亏，永远不会被自动平掉
func TestMonitorNoThresholdNoClose(t *testing.T) {
	sim := exchange.NewSimulatedExchange()
	sim.SetPrice("BTC/USDT", 1)
	store := newFakeStore(longPosition(1, 0, 0))
	m := newTestMonitor(t, sim, store)

	m.MonitorPositions(context.Background())

	got, _ := store.PositionGet(context.Background(), 1)
	if got.Status != model.PositionOpen {
		t.Fatalf("expected still open, got %s", got.Status)
	}
	if got.CurrentPrice != 1 {
		t.Errorf("pnl refresh must still happen, price=%v", got.CurrentPrice)
	}
	if n := len(sim.PlacedOrders()); n != 0 {
		t.Errorf("no exchange calls expected, got %d", n)
	}
}
