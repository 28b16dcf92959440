package dao

import (
	"context"
	"tradeflow/internal/model"

	"gorm.io/gorm"
)

type OrderDao struct {
	db *gorm.DB
}

func NewOrderDao(db *gorm.DB) *OrderDao {
	return &OrderDao{db: db}
}

// 插入下单记录
func (d *OrderDao) OrderCreate(ctx context.Context, record *model.OrderRecord) error {
	return d.db.WithContext(ctx).Create(record).Error
}

// 一个仓位下的全部委托（开仓单+平仓单）
func (d *OrderDao) OrdersGetByPosition(ctx context.Context, positionID int64) (list []model.OrderRecord, err error) {
	err = d.db.WithContext(ctx).Model(&model.OrderRecord{}).
		Where("position_id = ?", positionID).
		Order("created_at ASC").
		Find(&list).Error
	return
}

func (d *OrderDao) OrderGetByExchangeId(ctx context.Context, orderId string) (or model.OrderRecord, err error) {
	err = d.db.WithContext(ctx).Model(&model.OrderRecord{}).
		Where("order_id = ?", orderId).
		Limit(1).
		Find(&or).Error
	return
}
