package service

import (
	"context"
	"testing"
	"time"
	"tradeflow/internal/exchange"
	"tradeflow/internal/model"
	"tradeflow/internal/position"
	"tradeflow/pkg/kafka"

	"github.com/bwmarrin/snowflake"
)

func TestComputeTPAndSL(t *testing.T) {
	// 买入：止盈在上，止损在下
	if got := computeTP(model.Buy, 100, 5); got != 105 {
		t.Errorf("buy tp: expected 105, got %v", got)
	}
	if got := computeSL(model.Buy, 100, 3); got != 97 {
		t.Errorf("buy sl: expected 97, got %v", got)
	}
	// 卖出反向
	if got := computeTP(model.Sell, 100, 5); got != 95 {
		t.Errorf("sell tp: expected 95, got %v", got)
	}
	if got := computeSL(model.Sell, 100, 3); got != 103 {
		t.Errorf("sell sl: expected 103, got %v", got)
	}
	// 百分比没给就不设阈值
	if got := computeTP(model.Buy, 100, 0); got != 0 {
		t.Errorf("zero pct must yield no threshold, got %v", got)
	}
}

func TestSignalExecuteOpensPosition(t *testing.T) {
	sim := exchange.NewSimulatedExchange()
	sim.SetPrice("BTC/USDT", 50000)
	sim.SetRules(&model.SymbolRules{Symbol: "BTC/USDT", QuantityStep: 0.001})
	factory := func(acc *model.ExchangeAccount) (exchange.Exchange, error) { return sim, nil }
	node, _ := snowflake.NewNode(5)
	store := newStubStore()
	svc := position.NewService(store, stubAccounts{}, factory, nil, kafka.NopProducer{}, node, time.Second, time.Second)
	sigSvc := NewSignalService(svc)

	sig := &model.Signal{
		Strategy:    "trend",
		PortfolioID: 1,
		Symbol:      "BTC/USDT",
		Side:        "buy",
		Quantity:    0.01,
		TpPct:       2,
		SlPct:       1,
	}
	pos, _, err := sigSvc.Execute(context.Background(), sig)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if pos.Source != model.SourceSignal {
		t.Errorf("expected signal source, got %s", pos.Source)
	}
	if pos.TPPrice != 51000 || pos.SLPrice != 49500 {
		t.Errorf("expected tp 51000 sl 49500, got tp=%v sl=%v", pos.TPPrice, pos.SLPrice)
	}
}

func TestSignalExecuteExpired(t *testing.T) {
	sigSvc := NewSignalService(nil)
	sig := &model.Signal{
		PortfolioID: 1,
		Symbol:      "BTC/USDT",
		Side:        "buy",
		Quantity:    1,
		Timestamp:   time.Now().Add(-10 * time.Minute),
	}
	if _, _, err := sigSvc.Execute(context.Background(), sig); err == nil {
		t.Fatal("expired signal must be rejected")
	}
}
