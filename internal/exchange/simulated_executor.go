package exchange

import (
	"context"
	"errors"
	"sync"
	"tradeflow/internal/model"

	"github.com/google/uuid"
)

// SimulatedExchange 内存模拟交易所，测试和本地联调用
// 下单立即全部成交
type SimulatedExchange struct {
	mu      sync.Mutex
	prices  map[string]float64
	rules   map[string]*model.SymbolRules
	balance map[string]float64
	orders  map[string]*model.OrderStatus
	placed  []model.Order

	// 注入故障，模拟交易所不可用
	PlaceErr error
	PriceErr error
}

func NewSimulatedExchange() *SimulatedExchange {
	return &SimulatedExchange{
		prices:  make(map[string]float64),
		rules:   make(map[string]*model.SymbolRules),
		balance: make(map[string]float64),
		orders:  make(map[string]*model.OrderStatus),
	}
}

// 设置最新价
func (s *SimulatedExchange) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

func (s *SimulatedExchange) SetRules(rules *model.SymbolRules) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rules.Symbol] = rules
}

func (s *SimulatedExchange) SetBalance(asset string, free float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance[asset] = free
}

// PlacedOrders 已下单列表的副本，断言用
func (s *SimulatedExchange) PlacedOrders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, len(s.placed))
	copy(out, s.placed)
	return out
}

func (s *SimulatedExchange) PlaceOrder(ctx context.Context, order *model.Order) (*model.OrderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PlaceErr != nil {
		return nil, s.PlaceErr
	}

	orderID := uuid.NewString()
	s.orders[orderID] = &model.OrderStatus{
		OrderID:   orderID,
		Status:    model.OrderStatusFilled,
		Filled:    order.Quantity,
		Remaining: 0,
	}
	s.placed = append(s.placed, *order)

	return &model.OrderResponse{
		OrderId:     orderID,
		Status:      model.OrderStatusFilled,
		FillPercent: 100,
		Message:     "simulated order filled",
	}, nil
}

func (s *SimulatedExchange) CancelOrder(ctx context.Context, orderID string, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.orders[orderID]
	if !ok {
		return errors.New("order not found: " + orderID)
	}
	st.Status = model.OrderStatusCancelled
	return nil
}

func (s *SimulatedExchange) GetOrderStatus(ctx context.Context, orderID string, symbol string) (*model.OrderStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.orders[orderID]
	if !ok {
		return nil, errors.New("order not found: " + orderID)
	}
	cp := *st
	return &cp, nil
}

func (s *SimulatedExchange) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PriceErr != nil {
		return 0, s.PriceErr
	}
	p, ok := s.prices[symbol]
	if !ok {
		return 0, errors.New("no price for symbol " + symbol)
	}
	return p, nil
}

func (s *SimulatedExchange) GetSymbolRules(ctx context.Context, symbol string) (*model.SymbolRules, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[symbol]
	if !ok {
		return nil, nil // 未知symbol
	}
	cp := *r
	return &cp, nil
}

func (s *SimulatedExchange) GetBalance(ctx context.Context, asset string) (*model.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &model.Balance{Asset: asset, Free: s.balance[asset]}, nil
}
