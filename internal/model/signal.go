package model

import "time"

// Signal 外部信号源（TradingView webhook等）推过来的交易指令
type Signal struct {
	Strategy    string  `json:"strategy"`
	PortfolioID int64   `json:"portfolio_id" binding:"required"`
	Symbol      string  `json:"symbol" binding:"required"`
	Side        string  `json:"side" binding:"required,oneof=buy sell"`
	OrderType   string  `json:"order_type"` // "market" / "limit"，默认market
	Price       float64 `json:"price"`
	Quantity    float64 `json:"quantity"`
	QuoteAmount float64 `json:"quote_amount"` // 花多少USDT，与quantity二选一

	// 止盈/止损百分比，入场价基础上换算为绝对价格
	TpPct float64 `json:"tp_pct"`
	SlPct float64 `json:"sl_pct"`

	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"` // 信号触发时间
}

// 信号有效期，超过后丢弃不下单
const signalMaxAge = 5 * time.Minute

func (s *Signal) IsExpired() bool {
	if s.Timestamp.IsZero() {
		return false
	}
	return time.Since(s.Timestamp) > signalMaxAge
}
