package service

import (
	"context"
	"errors"
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

type stubStore struct {
	mu        sync.Mutex
	positions map[int64]*model.Position
}

func newStubStore(ps ...*model.Position) *stubStore {
	s := &stubStore{positions: make(map[int64]*model.Position)}
	for _, p := range ps {
		cp := *p
		s.positions[p.ID] = &cp
	}
	return s
}

func (s *stubStore) PositionCreate(ctx context.Context, p *model.Position, order *model.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.positions[p.ID] = &cp
	return nil
}

func (s *stubStore) PositionGet(ctx context.Context, id int64) (model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok {
		return model.Position{}, gorm.ErrRecordNotFound
	}
	return *p, nil
}

func (s *stubStore) PositionsGetOpen(ctx context.Context) ([]model.Position, error) {
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

func (s *stubStore) PositionsGetOpenByPortfolio(ctx context.Context, portfolioID int64) ([]model.Position, error) {
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

func (s *stubStore) MarkClosing(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok || p.Status != model.PositionOpen {
		return false, nil
	}
	p.Status = model.PositionClosing
	return true, nil
}

func (s *stubStore) MarkClosed(ctx context.Context, id int64, reason string, exitPrice, pnl, pnlPercent float64, closeOrder *model.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok || p.Status != model.PositionClosing {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	p.Status = model.PositionClosed
	p.CloseReason = reason
	p.ClosedAt = &now
	return nil
}

func (s *stubStore) Reopen(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.positions[id]; ok && p.Status == model.PositionClosing {
		p.Status = model.PositionOpen
	}
	return nil
}

func (s *stubStore) UpdateTick(ctx context.Context, id int64, price, pnl, pnlPercent float64) error {
	return nil
}

type stubAccounts struct{}

func (stubAccounts) AccountsGetByPortfolio(ctx context.Context, portfolioID int64) ([]model.ExchangeAccount, error) {
	return []model.ExchangeAccount{{ID: portfolioID, PortfolioID: portfolioID, Exchange: "okx", IsActive: true}}, nil
}

func (stubAccounts) PortfoliosGetByUser(ctx context.Context, userID int64) ([]model.Portfolio, error) {
	return []model.Portfolio{
		{ID: 1, UserID: userID},
		{ID: 2, UserID: userID},
	}, nil
}

func openStub(id, portfolioID int64, symbol string) *model.Position {
	return &model.Position{
		ID:          id,
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Side:        model.PositionSideLong,
		EntryPrice:  100,
		Quantity:    1,
		Status:      model.PositionOpen,
	}
}

func TestForceCloseAllAggregatesOutcomes(t *testing.T) {
	okSim := exchange.NewSimulatedExchange()
	okSim.SetPrice("BTC/USDT", 100)
	badSim := exchange.NewSimulatedExchange()
	badSim.SetPrice("ETH/USDT", 100)
	badSim.PlaceErr = errors.New("exchange down")

	// portfolio 1 正常，portfolio 2 的交易所挂了
	factory := func(acc *model.ExchangeAccount) (exchange.Exchange, error) {
		if acc.PortfolioID == 2 {
			return badSim, nil
		}
		return okSim, nil
	}

	store := newStubStore(
		openStub(1, 1, "BTC/USDT"),
		openStub(2, 1, "BTC/USDT"),
		openStub(3, 2, "ETH/USDT"),
	)
	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatal(err)
	}
	svc := position.NewService(store, stubAccounts{}, factory, nil, kafka.NopProducer{}, node, time.Second, time.Second)
	fc := NewForceCloseService(svc)

	summary := fc.ForceCloseAll(context.Background(), 42)

	if summary.Closed != 2 {
		t.Errorf("expected 2 closed, got %d", summary.Closed)
	}
	if summary.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", summary.Failed)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("expected 1 aggregated error, got %v", summary.Errors)
	}

	// 成功的已平，失败的留在open等下一次
	for _, id := range []int64{1, 2} {
		p, _ := store.PositionGet(context.Background(), id)
		if p.Status != model.PositionClosed || p.CloseReason != consts.CloseReasonForce {
			t.Errorf("position %d: expected force closed, got %+v", id, p)
		}
	}
	p, _ := store.PositionGet(context.Background(), 3)
	if p.Status != model.PositionOpen {
		t.Errorf("failed close must leave position open, got %s", p.Status)
	}
}

func TestForceCloseAllNoOpenPositions(t *testing.T) {
	sim := exchange.NewSimulatedExchange()
	factory := func(acc *model.ExchangeAccount) (exchange.Exchange, error) { return sim, nil }
	node, _ := snowflake.NewNode(4)
	svc := position.NewService(newStubStore(), stubAccounts{}, factory, nil, kafka.NopProducer{}, node, time.Second, time.Second)
	fc := NewForceCloseService(svc)

	summary := fc.ForceCloseAll(context.Background(), 42)
	if summary.Closed != 0 || summary.Failed != 0 || len(summary.Errors) != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}
