package exchange

import (
	"context"
	"time"
	"tradeflow/internal/consts"
	"tradeflow/internal/model"
	"tradeflow/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

// RulesCache 交易规则的redis读穿缓存
// 规则极少变动，默认12小时过期；redis故障时直接打到交易所，不影响下单
type RulesCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRulesCache(rdb *redis.Client, ttl time.Duration) *RulesCache {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RulesCache{rdb: rdb, ttl: ttl}
}

func (c *RulesCache) key(symbol string) string {
	return consts.SymbolRulesPrefix + symbol
}

// Get 先查缓存，miss时从交易所拉取并写回
// 返回(nil, nil)表示交易所不认识这个symbol
func (c *RulesCache) Get(ctx context.Context, symbol string, ex Exchange) (*model.SymbolRules, error) {
	if c.rdb != nil {
		val, err := c.rdb.Get(ctx, c.key(symbol)).Bytes()
		if err == nil {
			var rules model.SymbolRules
			if uerr := json.Unmarshal(val, &rules); uerr == nil && rules.Valid() {
				return &rules, nil
			}
		} else if err != redis.Nil {
			logger.Warnf("rules cache read failed for %s: %v", symbol, err)
		}
	}

	rules, err := ex.GetSymbolRules(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		// 未知symbol不缓存，交易所随时可能上新币
		return nil, nil
	}

	if c.rdb != nil {
		data, merr := json.Marshal(rules)
		if merr == nil {
			if err := c.rdb.Set(ctx, c.key(symbol), data, c.ttl).Err(); err != nil {
				logger.Warnf("rules cache write failed for %s: %v", symbol, err)
			}
		}
	}
	return rules, nil
}

// Invalidate 手动失效，管理接口刷新规则时用
func (c *RulesCache) Invalidate(ctx context.Context, symbol string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, c.key(symbol)).Err()
}
