package exchange

import (
	"context"
	"fmt"
	"strings"
	"tradeflow/internal/model"
	"tradeflow/pkg/errors"
	"tradeflow/pkg/errors/ecode"
	"tradeflow/utils/security"
)

// Exchange 交易所网关接口，所有阻塞调用都带context
type Exchange interface {
	// 下单
	PlaceOrder(ctx context.Context, order *model.Order) (*model.OrderResponse, error)
	// 撤销订单
	CancelOrder(ctx context.Context, orderID string, symbol string) error
	// 获取订单状态
	GetOrderStatus(ctx context.Context, orderID string, symbol string) (*model.OrderStatus, error)
	// 获取最新价格
	GetLastPrice(ctx context.Context, symbol string) (float64, error)
	// 获取交易对下单规则（步进、最小数量等）
	GetSymbolRules(ctx context.Context, symbol string) (*model.SymbolRules, error)
	// 获取某个资产的可用余额
	GetBalance(ctx context.Context, asset string) (*model.Balance, error)
}

// Factory 根据一条交易所凭证构造网关
// 监控循环每个portfolio各自拿一个网关实例，互不共享失败状态
type Factory func(acc *model.ExchangeAccount) (Exchange, error)

// NewFactory 默认工厂：凭证解密后按exchange字段分发
func NewFactory(cipher *security.ChaChaPoly, newOkx func(apiKey, secretKey, passphrase string) Exchange) Factory {
	return func(acc *model.ExchangeAccount) (Exchange, error) {
		if acc == nil {
			return nil, errors.WithCode(ecode.NotFoundErr, "exchange account is nil")
		}
		apiKey, err := cipher.DecryptString(acc.ApiKey)
		if err != nil {
			return nil, errors.Wrap(err, ecode.Unknown, "decrypt api key")
		}
		secretKey, err := cipher.DecryptString(acc.SecretKey)
		if err != nil {
			return nil, errors.Wrap(err, ecode.Unknown, "decrypt secret key")
		}
		passphrase, err := cipher.DecryptString(acc.Passphrase)
		if err != nil {
			return nil, errors.Wrap(err, ecode.Unknown, "decrypt passphrase")
		}
		switch strings.ToLower(acc.Exchange) {
		case "okx", "":
			return newOkx(apiKey, secretKey, passphrase), nil
		default:
			return nil, errors.WithCode(ecode.ValidateErr, fmt.Sprintf("unsupported exchange: %s", acc.Exchange))
		}
	}
}
