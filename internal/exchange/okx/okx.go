package okx

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"tradeflow/internal/model"
	"tradeflow/pkg/logger"

	goexv2 "github.com/nntaoli-project/goex/v2"
	goexmodel "github.com/nntaoli-project/goex/v2/model"
	"github.com/nntaoli-project/goex/v2/options"
)

// OkxSpot 现货网关，私有接口走goex，公共行情走PublicClient
type OkxSpot struct {
	prv    goexv2.IPrvRest
	pub    goexv2.IPubRest
	public *PublicClient
}

func NewOkxSpot(apiKey, secretKey, passphrase string) *OkxSpot {
	opts := []options.ApiOption{
		options.WithApiKey(apiKey),
		options.WithApiSecretKey(secretKey),
		options.WithPassphrase(passphrase),
	}
	pub := goexv2.OKx.Spot
	return &OkxSpot{
		prv:    pub.NewPrvApi(opts...),
		pub:    pub,
		public: NewPublicClient(),
	}
}

// goex的REST封装不接收context，统一在这里桥接
// ctx超时/取消时立即返回，底层请求无法中断，留在后台自行结束
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.val, r.err
	}
}

// symbol 格式转换: "BTC/USDT" -> goex 需要的 CurrencyPair
func (e *OkxSpot) toCurrencyPair(symbol string) (goexmodel.CurrencyPair, error) {
	parts := strings.Split(symbol, "/")
	if len(parts) == 1 { // 防止BTC-USDT
		parts = strings.Split(symbol, "-")
	}
	if len(parts) < 2 {
		return goexmodel.CurrencyPair{}, errors.New("invalid symbol format, expected like BTC/USDT")
	}
	return e.pub.NewCurrencyPair(parts[0], parts[1])
}

// 下单，止盈止损挂到同一笔委托上（OKX附带止盈止损参数）
func (e *OkxSpot) PlaceOrder(ctx context.Context, order *model.Order) (*model.OrderResponse, error) {
	pair, err := e.toCurrencyPair(order.Symbol)
	if err != nil {
		return nil, err
	}

	var side goexmodel.OrderSide
	switch order.Side {
	case model.Buy:
		side = goexmodel.Spot_Buy
	case model.Sell:
		side = goexmodel.Spot_Sell
	default:
		return nil, errors.New("invalid order side")
	}

	var orderType goexmodel.OrderType
	switch order.OrderType {
	case model.Limit:
		orderType = goexmodel.OrderType_Limit
	case model.Market:
		orderType = goexmodel.OrderType_Market
	default:
		return nil, errors.New("invalid order type")
	}

	var opts []goexmodel.OptionParameter
	if order.TPPrice > 0 {
		opts = append(opts, goexmodel.OptionParameter{
			Key:   "tpTriggerPx",
			Value: strconv.FormatFloat(order.TPPrice, 'f', -1, 64),
		})
		opts = append(opts, goexmodel.OptionParameter{
			Key:   "tpOrdPx",
			Value: "-1", // -1 表示市价止盈
		})
	}
	if order.SLPrice > 0 {
		opts = append(opts, goexmodel.OptionParameter{
			Key:   "slTriggerPx",
			Value: strconv.FormatFloat(order.SLPrice, 'f', -1, 64),
		})
		opts = append(opts, goexmodel.OptionParameter{
			Key:   "slOrdPx",
			Value: "-1", // -1 表示市价止损
		})
	}

	created, err := await(ctx, func() (*goexmodel.Order, error) {
		ord, body, cerr := e.prv.CreateOrder(pair, order.Quantity, order.Price, side, orderType, opts...)
		if cerr != nil {
			logger.Errorf("okx create order failed: %v, body: %s", cerr, string(body))
			return nil, cerr
		}
		return ord, nil
	})
	if err != nil {
		return nil, err
	}

	return &model.OrderResponse{
		OrderId: created.Id,
		Status:  created.Status.String(),
	}, nil
}

// 撤销订单
func (e *OkxSpot) CancelOrder(ctx context.Context, orderID string, symbol string) error {
	pair, err := e.toCurrencyPair(symbol)
	if err != nil {
		return err
	}
	_, err = await(ctx, func() (struct{}, error) {
		_, cerr := e.prv.CancelOrder(pair, orderID)
		return struct{}{}, cerr
	})
	return err
}

// 获取订单状态
func (e *OkxSpot) GetOrderStatus(ctx context.Context, orderID string, symbol string) (*model.OrderStatus, error) {
	pair, err := e.toCurrencyPair(symbol)
	if err != nil {
		return nil, err
	}
	info, err := await(ctx, func() (*goexmodel.Order, error) {
		ord, _, gerr := e.prv.GetOrderInfo(pair, orderID)
		return ord, gerr
	})
	if err != nil {
		return nil, err
	}
	return &model.OrderStatus{
		OrderID:   info.Id,
		Status:    info.Status.String(),
		Filled:    info.ExecutedQty,
		Remaining: info.Qty - info.ExecutedQty,
	}, nil
}

// 获取最新价格
func (e *OkxSpot) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	pair, err := e.toCurrencyPair(symbol)
	if err != nil {
		return 0, err
	}
	ticker, err := await(ctx, func() (*goexmodel.Ticker, error) {
		tk, _, terr := e.pub.GetTicker(pair)
		return tk, terr
	})
	if err != nil {
		return 0, err
	}
	if ticker == nil {
		return 0, errors.New("failed to get ticker")
	}
	return ticker.Last, nil
}

// 获取交易对的下单规则
func (e *OkxSpot) GetSymbolRules(ctx context.Context, symbol string) (*model.SymbolRules, error) {
	return e.public.GetSymbolRules(ctx, symbol)
}

// 获取某个资产的可用余额
// 调用方没带deadline时兜底5秒
func (e *OkxSpot) GetBalance(ctx context.Context, asset string) (*model.Balance, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	bal, err := await(timeoutCtx, func() (map[string]goexmodel.Account, error) {
		b, _, aerr := e.prv.GetAccount(asset)
		return b, aerr
	})
	if err != nil {
		return nil, err
	}
	acc, ok := bal[asset]
	if !ok {
		return nil, errors.New("account info not found for asset " + asset)
	}
	return &model.Balance{
		Asset:  acc.Coin,
		Free:   acc.AvailableBalance,
		Locked: acc.FrozenBalance,
	}, nil
}
