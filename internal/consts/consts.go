package consts

import "time"

const (
	// RequestId 请求id名称
	RequestId = "request_id"
	UserID    = "user_id"
	// JWTClaims 鉴权中间件解析后的claims在context中的key
	JWTClaims = "jwt_claims"

	// SymbolRulesPrefix 交易规则缓存key前缀
	SymbolRulesPrefix = "Symbol_Rules:"

	// 默认redis过期时间
	RedisExrDefault = time.Hour * 24 * 5
)

const (
	LanguageId = "T-Language-Id"
	ClientId   = "T-App-Id"
	Timestamp  = "T-Timestamp"
	Signature  = "T-Signature"

	DateLayout   = "2006-01-02"
	TimeLayout   = "2006-01-02 15:04:05"
	TimeLayoutMs = "2006-01-02 15:04:05.000"
)

const (
	// 平仓原因
	CloseReasonTakeProfit = "take_profit"
	CloseReasonStopLoss   = "stop_loss"
	CloseReasonManual     = "manual"
	CloseReasonForce      = "force_close"
)

// kafka主题
const (
	TopicPositionOpened = "positions_opened"
	TopicPositionClosed = "positions_closed"
)
