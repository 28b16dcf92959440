package model

import "time"

type PositionStatus string

const (
	// 持仓中
	PositionOpen PositionStatus = "open"
	// 平仓请求已发出，等待交易所确认（CAS中间态）
	PositionClosing PositionStatus = "closing"
	// 已平仓
	PositionClosed PositionStatus = "closed"
	// 已撤销
	PositionCancelled PositionStatus = "cancelled"
)

// 持仓方向 做多long或者做空short
type PositionSide string

const (
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// SideOf 下单方向换算持仓方向：买入开多，卖出开空
func SideOf(side OrderSide) PositionSide {
	if side == Buy {
		return PositionSideLong
	}
	return PositionSideShort
}

// 仓位来源
type PositionSource string

const (
	SourceSignal PositionSource = "signal"
	SourceManual PositionSource = "manual"
)

// Position 持仓实体
type Position struct {
	ID          int64 `gorm:"column:id;primary_key" json:"id"` // snowflake id，服务端生成
	PortfolioID int64 `gorm:"column:portfolio_id;index:idx_portfolio_status" json:"portfolio_id"`

	Symbol string       `gorm:"column:symbol;index" json:"symbol"`
	Side   PositionSide `gorm:"column:side" json:"side"`

	EntryPrice   float64 `gorm:"column:entry_price" json:"entry_price"`
	Quantity     float64 `gorm:"column:quantity" json:"quantity"`
	CurrentPrice float64 `gorm:"column:current_price" json:"current_price"`

	Status PositionStatus `gorm:"column:status;index:idx_portfolio_status" json:"status"`

	// 止盈/止损触发价，0表示未设置
	TPPrice float64 `gorm:"column:tp_price" json:"tp_price"`
	SLPrice float64 `gorm:"column:sl_price" json:"sl_price"`

	Pnl        float64 `gorm:"column:pnl" json:"pnl"`
	PnlPercent float64 `gorm:"column:pnl_percent" json:"pnl_percent"`

	Source      PositionSource `gorm:"column:source" json:"source"`
	CloseReason string         `gorm:"column:close_reason" json:"close_reason"`

	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
	ClosedAt  *time.Time `gorm:"column:closed_at" json:"closed_at"` // status==open 时必须为null
}

func (Position) TableName() string {
	return "positions"
}

func (p *Position) IsOpen() bool {
	return p.Status == PositionOpen
}

// UnrealizedPnl 根据最新价计算未实现盈亏和收益率（百分比）
func (p *Position) UnrealizedPnl(lastPrice float64) (pnl float64, pnlPercent float64) {
	if p.EntryPrice <= 0 || p.Quantity <= 0 {
		return 0, 0
	}
	switch p.Side {
	case PositionSideLong:
		pnl = (lastPrice - p.EntryPrice) * p.Quantity
	case PositionSideShort:
		pnl = (p.EntryPrice - lastPrice) * p.Quantity
	}
	pnlPercent = pnl / (p.EntryPrice * p.Quantity) * 100
	return
}

// EntrySide 开仓时的委托方向：多仓买入，空仓卖出
func (p *Position) EntrySide() OrderSide {
	if p.Side == PositionSideShort {
		return Sell
	}
	return Buy
}

// CloseSide 平仓时的下单方向，开仓方向取反
func (p *Position) CloseSide() OrderSide {
	return p.EntrySide().Opposite()
}
