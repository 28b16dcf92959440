package ecode

// 业务错误码，0表示成功
const (
	Success = 0
	Unknown = 10001
	// 请求参数校验失败
	ValidateErr = 10002
	// 资源不存在
	NotFoundErr = 10003
	// token鉴权失败
	RequireAuthErr = 10004
	// 请求过于频繁
	TooManyRequestErr = 10005

	// 订单被交易规则拒绝，不重试，原因原样返回给调用方
	OrderRejectedErr = 20001
	// 交易所网关错误（网络/交易所侧失败）
	GatewayErr = 20002
	// 仓位状态冲突（已被其他调用方关闭等）
	StateConflictErr = 20003
)

var messages = map[int]string{
	Success:           "OK",
	Unknown:           "未知错误",
	ValidateErr:       "请求参数错误",
	NotFoundErr:       "资源不存在",
	RequireAuthErr:    "鉴权失败",
	TooManyRequestErr: "请求过于频繁",
	OrderRejectedErr:  "订单不满足交易所规则",
	GatewayErr:        "交易所请求失败",
	StateConflictErr:  "仓位状态冲突",
}

// Text 返回错误码对应的默认文案
func Text(code int) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[Unknown]
}
