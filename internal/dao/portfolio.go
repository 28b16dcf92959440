package dao

import (
	"context"
	"tradeflow/internal/model"

	"gorm.io/gorm"
)

type PortfolioDao struct {
	db *gorm.DB
}

func NewPortfolioDao(db *gorm.DB) *PortfolioDao {
	return &PortfolioDao{db: db}
}

func (d *PortfolioDao) PortfolioGet(ctx context.Context, id int64) (p model.Portfolio, err error) {
	err = d.db.WithContext(ctx).Model(&model.Portfolio{}).
		Where("id = ?", id).
		First(&p).Error
	return
}

func (d *PortfolioDao) PortfoliosGetByUser(ctx context.Context, userID int64) (list []model.Portfolio, err error) {
	err = d.db.WithContext(ctx).Model(&model.Portfolio{}).
		Where("user_id = ?", userID).
		Find(&list).Error
	return
}

func (d *PortfolioDao) PortfolioCreate(ctx context.Context, p *model.Portfolio) error {
	return d.db.WithContext(ctx).Create(p).Error
}

// AccountsGetByPortfolio 凭证按创建顺序返回，选活跃账户时按这个顺序取第一个
func (d *PortfolioDao) AccountsGetByPortfolio(ctx context.Context, portfolioID int64) (list []model.ExchangeAccount, err error) {
	err = d.db.WithContext(ctx).Model(&model.ExchangeAccount{}).
		Where("portfolio_id = ?", portfolioID).
		Order("id ASC").
		Find(&list).Error
	return
}

func (d *PortfolioDao) AccountCreate(ctx context.Context, a *model.ExchangeAccount) error {
	return d.db.WithContext(ctx).Create(a).Error
}

// AccountDelete 软删除
func (d *PortfolioDao) AccountDelete(ctx context.Context, id int64, portfolioID int64) error {
	return d.db.WithContext(ctx).
		Where("id = ?", id).
		Where("portfolio_id = ?", portfolioID).
		Delete(&model.ExchangeAccount{}).Error
}
