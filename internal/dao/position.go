package dao

import (
	"context"
	"time"
	"tradeflow/internal/model"

	"gorm.io/gorm"
)

type PositionDao struct {
	db *gorm.DB
}

func NewPositionDao(db *gorm.DB) *PositionDao {
	return &PositionDao{db: db}
}

// PositionCreate 仓位和开仓单同一个事务落库
func (d *PositionDao) PositionCreate(ctx context.Context, p *model.Position, order *model.OrderRecord) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if order != nil {
			order.PositionID = p.ID
			if err := tx.Create(order).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *PositionDao) PositionGet(ctx context.Context, id int64) (p model.Position, err error) {
	err = d.db.WithContext(ctx).Model(&model.Position{}).
		Where("id = ?", id).
		First(&p).Error
	return
}

// 全部open仓位，按portfolio分组方便监控按账号批量取价
func (d *PositionDao) PositionsGetOpen(ctx context.Context) (list []model.Position, err error) {
	err = d.db.WithContext(ctx).Model(&model.Position{}).
		Where("status = ?", model.PositionOpen).
		Order("portfolio_id ASC, id ASC").
		Find(&list).Error
	return
}

func (d *PositionDao) PositionsGetOpenByPortfolio(ctx context.Context, portfolioID int64) (list []model.Position, err error) {
	err = d.db.WithContext(ctx).Model(&model.Position{}).
		Where("portfolio_id = ?", portfolioID).
		Where("status = ?", model.PositionOpen).
		Order("id ASC").
		Find(&list).Error
	return
}

func (d *PositionDao) PositionsGetByPortfolio(ctx context.Context, portfolioID int64, limit int) (list []model.Position, err error) {
	q := d.db.WithContext(ctx).Model(&model.Position{}).
		Where("portfolio_id = ?", portfolioID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err = q.Find(&list).Error
	return
}

// MarkClosing CAS：只有open态能进closing，返回是否抢到
// 条件更新保证并发平仓时只有一个调用方拿到true
func (d *PositionDao) MarkClosing(ctx context.Context, id int64) (bool, error) {
	res := d.db.WithContext(ctx).Model(&model.Position{}).
		Where("id = ?", id).
		Where("status = ?", model.PositionOpen).
		Update("status", model.PositionClosing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkClosed closing -> closed，落平仓单、盈亏和原因
func (d *PositionDao) MarkClosed(ctx context.Context, id int64, reason string, exitPrice, pnl, pnlPercent float64, closeOrder *model.OrderRecord) error {
	now := time.Now()
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Position{}).
			Where("id = ?", id).
			Where("status = ?", model.PositionClosing).
			Updates(map[string]interface{}{
				"status":        model.PositionClosed,
				"close_reason":  reason,
				"current_price": exitPrice,
				"pnl":           pnl,
				"pnl_percent":   pnlPercent,
				"closed_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return gorm.ErrRecordNotFound
		}
		if closeOrder != nil {
			closeOrder.PositionID = id
			if err := tx.Create(closeOrder).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Reopen 平仓请求失败后回滚closing态，下一轮监控重试
func (d *PositionDao) Reopen(ctx context.Context, id int64) error {
	return d.db.WithContext(ctx).Model(&model.Position{}).
		Where("id = ?", id).
		Where("status = ?", model.PositionClosing).
		Update("status", model.PositionOpen).Error
}

// UpdateTick 监控轮询写回最新价和浮动盈亏，只更新open态
func (d *PositionDao) UpdateTick(ctx context.Context, id int64, price, pnl, pnlPercent float64) error {
	return d.db.WithContext(ctx).Model(&model.Position{}).
		Where("id = ?", id).
		Where("status = ?", model.PositionOpen).
		Updates(map[string]interface{}{
			"current_price": price,
			"pnl":           pnl,
			"pnl_percent":   pnlPercent,
		}).Error
}
