package model

import (
	"time"

	"gorm.io/plugin/soft_delete"
)

// Portfolio 一个用户的交易账户聚合，持有交易所凭证和仓位
type Portfolio struct {
	ID     int64  `gorm:"column:id;primary_key" json:"id"`
	UserID int64  `gorm:"column:user_id;index" json:"user_id"`
	Name   string `gorm:"column:name" json:"name"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

// ExchangeAccount 一条交易所API凭证
// ApiKey/SecretKey/Passphrase 落库前用ChaCha20-Poly1305加密
type ExchangeAccount struct {
	ID          int64  `gorm:"column:id;primary_key" json:"id"`
	PortfolioID int64  `gorm:"column:portfolio_id;index" json:"portfolio_id"`
	Exchange    string `gorm:"column:exchange" json:"exchange"` // okx

	ApiKey     string `gorm:"column:api_key" json:"-"`
	SecretKey  string `gorm:"column:secret_key" json:"-"`
	Passphrase string `gorm:"column:passphrase" json:"-"`

	IsActive bool `gorm:"column:is_active" json:"is_active"`

	CreatedAt time.Time             `gorm:"column:created_at" json:"created_at"`
	DeletedAt soft_delete.DeletedAt `gorm:"column:deleted_at" json:"-"`
}

func (ExchangeAccount) TableName() string {
	return "exchange_accounts"
}
