package model

// SymbolRules 交易所对单个交易对的下单约束
// 同一个symbol在会话内视为不可变，按TTL刷新（规则极少变动）
type SymbolRules struct {
	Symbol string `json:"symbol"`
	// 数量最小步进 (lotSz / LOT_SIZE stepSize)
	QuantityStep float64 `json:"quantity_step"`
	// 最小下单数量 (minSz / LOT_SIZE minQty)
	MinQuantity float64 `json:"min_quantity"`
	// 最大下单数量，0表示交易所未限制
	MaxQuantity float64 `json:"max_quantity"`
	// 价格最小步进 (tickSz / PRICE_FILTER tickSize)
	PriceStep float64 `json:"price_step"`
	// 最小名义价值 price*quantity (MIN_NOTIONAL)
	MinNotional float64 `json:"min_notional"`
	// 价格小数位
	PricePrecision int `json:"price_precision"`
	// 数量小数位
	QuantityPrecision int `json:"quantity_precision"`
}

// Valid 规则是否可用：没有步进信息的规则视为未知symbol
func (r *SymbolRules) Valid() bool {
	return r != nil && r.Symbol != "" && r.QuantityStep > 0
}

// Balance 某个资产的账户余额
type Balance struct {
	Asset  string  `json:"asset"`
	Free   float64 `json:"free"`
	Locked float64 `json:"locked"`
}

// Ticker 最新价
type Ticker struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}
