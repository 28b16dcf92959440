package service

import (
	"context"
	"fmt"
	"tradeflow/internal/consts"
	"tradeflow/internal/position"
	"tradeflow/pkg/logger"

	"go.uber.org/multierr"
)

// ForceCloseSummary 批量强平的聚合结果
type ForceCloseSummary struct {
	Closed int      `json:"closed"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors"`
}

// ForceCloseService 管理侧批量强平
// 复用分发器的幂等平仓通道，单个仓位失败只累计不上抛
type ForceCloseService struct {
	positions *position.Service
}

func NewForceCloseService(positions *position.Service) *ForceCloseService {
	return &ForceCloseService{positions: positions}
}

// ForceCloseAll 平掉目标用户所有portfolio下的open仓位
// 鉴权是调用方的事，这里假定已经授权
func (s *ForceCloseService) ForceCloseAll(ctx context.Context, userID int64) ForceCloseSummary {
	var summary ForceCloseSummary
	var merr error

	portfolios, err := s.positions.Accounts().PortfoliosGetByUser(ctx, userID)
	if err != nil {
		summary.Failed = 1
		summary.Errors = []string{fmt.Sprintf("load portfolios: %v", err)}
		return summary
	}

	for _, pf := range portfolios {
		open, err := s.positions.Store().PositionsGetOpenByPortfolio(ctx, pf.ID)
		if err != nil {
			summary.Failed++
			merr = multierr.Append(merr, fmt.Errorf("portfolio %d: load positions: %w", pf.ID, err))
			continue
		}
		for _, p := range open {
			if _, err := s.positions.Close(ctx, p.ID, consts.CloseReasonForce); err != nil {
				summary.Failed++
				merr = multierr.Append(merr, fmt.Errorf("position %d: %w", p.ID, err))
				continue
			}
			summary.Closed++
		}
	}

	for _, e := range multierr.Errors(merr) {
		summary.Errors = append(summary.Errors, e.Error())
	}
	logger.Info("force close finished",
		logger.Pair("user_id", userID),
		logger.Pair("closed", summary.Closed),
		logger.Pair("failed", summary.Failed))
	return summary
}
