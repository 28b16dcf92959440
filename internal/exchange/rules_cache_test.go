package exchange

import (
	"context"
	"testing"
	"time"
	"tradeflow/internal/model"
)

// redis不可用（nil client）时直接打到交易所
func TestRulesCacheWithoutRedis(t *testing.T) {
	sim := NewSimulatedExchange()
	sim.SetRules(&model.SymbolRules{Symbol: "BTC/USDT", QuantityStep: 0.001, MinQuantity: 0.001})
	c := NewRulesCache(nil, time.Hour)

	rules, err := c.Get(context.Background(), "BTC/USDT", sim)
	if err != nil {
		t.Fatal(err)
	}
	if rules == nil || rules.QuantityStep != 0.001 {
		t.Errorf("expected pass-through rules, got %+v", rules)
	}

	// 未知symbol透传nil
	rules, err = c.Get(context.Background(), "NOPE/USDT", sim)
	if err != nil {
		t.Fatal(err)
	}
	if rules != nil {
		t.Errorf("expected nil for unknown symbol, got %+v", rules)
	}
}
