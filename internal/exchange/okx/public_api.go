package okx

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"tradeflow/internal/model"
	"tradeflow/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// okx的公开接口，不需要apikey

// PublicClient 封装了与 OKX 公开 REST API 通信所需的一切
type PublicClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewPublicClient() *PublicClient {
	return &PublicClient{
		// OKX V5 基础公共 API 地址
		baseURL: "https://www.okx.com/api/v5",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

const maxRetries = 3

// GetSymbolRules 查询单个交易对的下单规则，带重试
func (c *PublicClient) GetSymbolRules(ctx context.Context, symbol string) (*model.SymbolRules, error) {
	instId := strings.ReplaceAll(symbol, "/", "-")

	var raws []InstrumentRaw
	var err error
	backoff := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		raws, err = c.getInstruments(ctx, "SPOT", instId)
		if err == nil {
			break
		}
		logger.Warnf("get instruments attempt %d failed for %s: %v", i+1, instId, err)
		if i == maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		// 指数退避
		backoff *= 3
	}
	if err != nil {
		return nil, fmt.Errorf("get instruments for %s after %d attempts: %w", instId, maxRetries, err)
	}
	if len(raws) == 0 {
		return nil, nil // 未知symbol
	}
	return raws[0].ToSymbolRules(symbol), nil
}

// getInstruments 获取交易产品列表
// instType: SPOT, SWAP, FUTURES 等；instId为空时返回全部
func (c *PublicClient) getInstruments(ctx context.Context, instType string, instId string) ([]InstrumentRaw, error) {
	endpoint := fmt.Sprintf("/public/instruments?instType=%s", instType)
	if instId != "" {
		endpoint += "&instId=" + instId
	}

	var instruments []InstrumentRaw
	if err := c.doPublicGet(ctx, endpoint, &instruments); err != nil {
		return nil, err
	}
	return instruments, nil
}

// doPublicGet 执行通用的 GET 请求，处理 JSON 解析和错误
func (c *PublicClient) doPublicGet(ctx context.Context, endpoint string, result interface{}) error {
	url := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API返回非成功状态码: %d", resp.StatusCode)
	}

	// OKX API 的标准 JSON 格式：{"code":"0", "msg":"", "data":[...]}
	var apiResponse struct {
		Code string          `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return fmt.Errorf("解析API响应JSON失败: %w", err)
	}
	if apiResponse.Code != "0" {
		return fmt.Errorf("OKX API错误, Code: %s, Msg: %s", apiResponse.Code, apiResponse.Msg)
	}
	if err := json.Unmarshal(apiResponse.Data, result); err != nil {
		return fmt.Errorf("解析Data字段失败: %w", err)
	}
	return nil
}

// InstrumentRaw 对应 OKX API 返回的单个交易对信息
type InstrumentRaw struct {
	InstId   string `json:"instId"`   // 交易对 ID (如 BTC-USDT)
	InstType string `json:"instType"` // 交易对类型 (SPOT/SWAP/FUTURES)
	BaseCcy  string `json:"baseCcy"`  // 主币代码
	QuoteCcy string `json:"quoteCcy"` // 计价币代码
	State    string `json:"state"`    // 交易状态 (如 live)

	// 精度/步长信息，OKX全部用字符串返回
	TickSz   string `json:"tickSz"`   // 价格步长
	LotSz    string `json:"lotSz"`    // 数量步长
	MinSz    string `json:"minSz"`    // 最小下单数量
	MaxLmtSz string `json:"maxLmtSz"` // 限价单最大数量
	MaxMktSz string `json:"maxMktSz"` // 市价单最大数量

	Category string `json:"category"`
}

// ToSymbolRules 换算为内部下单规则，精度按步长的小数位数推导
func (r *InstrumentRaw) ToSymbolRules(symbol string) *model.SymbolRules {
	return &model.SymbolRules{
		Symbol:            symbol,
		QuantityStep:      cast.ToFloat64(r.LotSz),
		MinQuantity:       cast.ToFloat64(r.MinSz),
		MaxQuantity:       cast.ToFloat64(r.MaxLmtSz),
		PriceStep:         cast.ToFloat64(r.TickSz),
		MinNotional:       0, // OKX现货没有独立的最小名义价值限制
		PricePrecision:    decimalsOf(r.TickSz),
		QuantityPrecision: decimalsOf(r.LotSz),
	}
}

// decimalsOf 步长字符串的小数位数，"0.001" -> 3
func decimalsOf(step string) int {
	i := strings.IndexByte(step, '.')
	if i < 0 {
		return 0
	}
	return len(strings.TrimRight(step[i+1:], "0"))
}
