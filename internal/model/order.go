package model

import (
	"time"

	"gorm.io/datatypes"
)

type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// Opposite 平仓时下反向单
func (s OrderSide) Opposite() OrderSide {
	if s == Buy {
		return Sell
	}
	return Buy
}

type OrderType string

const (
	// 市价购买
	Market OrderType = "market"
	// 限价购买
	Limit OrderType = "limit"
)

// 交易所订单状态
const (
	OrderStatusNew             = "NEW"
	OrderStatusPartiallyFilled = "PARTIALLY_FILLED"
	OrderStatusFilled          = "FILLED"
	OrderStatusCancelled       = "CANCELLED"
	OrderStatusRejected        = "REJECTED"
)

// OrderIntent 调用方提交的下单意图，校验通过前不落库
type OrderIntent struct {
	Symbol    string    `json:"symbol"`
	Side      OrderSide `json:"side"`
	OrderType OrderType `json:"order_type"` // "market" / "limit"
	// 基础币数量，与QuoteAmount二选一
	Quantity float64 `json:"quantity"`
	// 限价单价格
	Price float64 `json:"price"`
	// 花多少计价币（如USDT），由校验器换算为数量
	QuoteAmount float64 `json:"quote_amount"`
	// 调用方提供的最新成交价，校验器不做行情请求
	CurrentPrice float64 `json:"current_price"`

	TPPrice float64        `json:"tp_price"`
	SLPrice float64        `json:"sl_price"`
	Source  PositionSource `json:"source"`
}

// EffectivePrice 计算名义价值时使用的价格：限价单用委托价，市价单用最新价
func (it *OrderIntent) EffectivePrice() float64 {
	if it.OrderType == Limit && it.Price > 0 {
		return it.Price
	}
	return it.CurrentPrice
}

// AdjustmentResult 交易规则校验的输出
type AdjustmentResult struct {
	Quantity       float64  `json:"quantity"`
	Price          float64  `json:"price"`
	HasAdjustments bool     `json:"has_adjustments"`
	Adjustments    []string `json:"adjustments"`
	Rejected       bool     `json:"rejected"`
	RejectReason   string   `json:"reject_reason"`
}

// AddAdjustment 记录一条调整说明，所有调整都必须留痕
func (r *AdjustmentResult) AddAdjustment(msg string) {
	r.Adjustments = append(r.Adjustments, msg)
	r.HasAdjustments = true
}

type OrderResponse struct {
	OrderId     string
	Status      string
	FillPercent float64
	Message     string
}

type OrderStatus struct {
	OrderID   string
	Status    string
	Filled    float64
	Remaining float64
}

// Order 交易所下单的参数
type Order struct {
	Symbol    string // BTC/USDT
	Side      OrderSide
	Price     float64
	Quantity  float64
	OrderType OrderType
	TPPrice   float64
	SLPrice   float64
}

// OrderRecord 一笔交易所委托的持久化记录，挂在Position下（开仓单/平仓单）
type OrderRecord struct {
	ID         uint   `gorm:"column:id;primary_key;" json:"id"` // 主键id，自增长，不用设置
	OrderId    string `gorm:"column:order_id;" json:"order_id"` // 交易所订单id
	PositionID int64  `gorm:"column:position_id;index" json:"position_id"`
	Symbol     string `gorm:"column:symbol" json:"symbol"`

	Side        OrderSide `gorm:"column:side" json:"side"`
	Price       float64   `gorm:"column:price" json:"price"`
	Quantity    float64   `gorm:"column:quantity" json:"quantity"`
	OrderType   OrderType `gorm:"column:order_type" json:"order_type"`
	Status      string    `gorm:"column:status" json:"status"`
	FillPercent float64   `gorm:"column:fill_percent" json:"fill_percent"`
	Pnl         float64   `gorm:"column:pnl" json:"pnl"`
	// 校验阶段产生的调整说明，原样保存
	Adjustments datatypes.JSON `gorm:"column:adjustments" json:"adjustments"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (OrderRecord) TableName() string {
	return "order_record"
}
