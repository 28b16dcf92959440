package trade

import (
	"fmt"
	"math"
	"strconv"
	"tradeflow/internal/model"
)

// 交易规则校验器：把调用方的下单意图修正成交易所能接受的参数
// 纯函数，不做任何IO，业务规则不通过返回rejected表达，不抛错误

// Epsilon 浮点比较的绝对误差，二进制浮点的表示噪声在这个量级以下
const Epsilon = 1e-8

// Validate 按交易所规则校验并调整下单意图
// 数量只会向下取整（避免超买），名义价值不足时才向上补足
func Validate(intent *model.OrderIntent, rules *model.SymbolRules) model.AdjustmentResult {
	var res model.AdjustmentResult

	if !rules.Valid() {
		res.Rejected = true
		res.RejectReason = "unknown symbol: " + intent.Symbol
		return res
	}

	// 1. 给了计价币金额时换算成数量
	qty := intent.Quantity
	if qty <= 0 && intent.QuoteAmount > 0 {
		if intent.CurrentPrice <= 0 {
			res.Rejected = true
			res.RejectReason = "current price required to derive quantity from quote amount"
			return res
		}
		qty = intent.QuoteAmount / intent.CurrentPrice
		if rules.QuantityPrecision > 0 {
			qty = floorFloat(qty, rules.QuantityPrecision)
		}
		res.AddAdjustment(fmt.Sprintf("quantity %s derived from quote amount %s at price %s",
			fmtF(qty), fmtF(intent.QuoteAmount), fmtF(intent.CurrentPrice)))
	}

	if qty <= 0 {
		res.Rejected = true
		res.RejectReason = "zero or negative quantity"
		return res
	}

	// 2. 数量向下取整到步进的整数倍
	adjQty := floorToStep(qty, rules.QuantityStep)
	if adjQty <= Epsilon {
		res.Rejected = true
		res.RejectReason = fmt.Sprintf("quantity %s rounds to zero under quantity step %s",
			fmtF(qty), fmtF(rules.QuantityStep))
		return res
	}
	if math.Abs(adjQty-qty) > Epsilon {
		res.AddAdjustment(fmt.Sprintf("quantity %s rounded down to %s to match quantity step %s",
			fmtF(qty), fmtF(adjQty), fmtF(rules.QuantityStep)))
	}
	if rules.MinQuantity > 0 && adjQty < rules.MinQuantity-Epsilon {
		res.Rejected = true
		res.RejectReason = fmt.Sprintf("quantity %s below exchange minimum quantity %s",
			fmtF(adjQty), fmtF(rules.MinQuantity))
		return res
	}

	// 3. 超过最大数量则向下截断
	if rules.MaxQuantity > 0 && adjQty > rules.MaxQuantity+Epsilon {
		clamped := floorToStep(rules.MaxQuantity, rules.QuantityStep)
		res.AddAdjustment(fmt.Sprintf("quantity %s reduced to exchange maximum %s",
			fmtF(adjQty), fmtF(clamped)))
		adjQty = clamped
	}

	// 4. 限价单价格取整到价格步进：四舍五入，恰好一半时向下
	adjPrice := intent.Price
	if intent.OrderType == model.Limit && intent.Price > 0 && rules.PriceStep > 0 {
		rounded := roundToStepTiesDown(intent.Price, rules.PriceStep)
		if rules.PricePrecision > 0 {
			rounded = floorFloat(rounded+Epsilon, rules.PricePrecision)
		}
		if math.Abs(rounded-intent.Price) > Epsilon {
			res.AddAdjustment(fmt.Sprintf("price %s rounded to %s to match price step %s",
				fmtF(intent.Price), fmtF(rounded), fmtF(rules.PriceStep)))
		}
		adjPrice = rounded
	}

	// 5. 名义价值不足时把数量补到刚好跨过minNotional的步进倍数
	effPrice := adjPrice
	if intent.OrderType != model.Limit || effPrice <= 0 {
		effPrice = intent.CurrentPrice
	}
	if rules.MinNotional > 0 && effPrice > 0 {
		notional := adjQty * effPrice
		if notional < rules.MinNotional-Epsilon {
			steps := math.Ceil(rules.MinNotional/effPrice/rules.QuantityStep - Epsilon)
			raised := steps * rules.QuantityStep
			if raised*effPrice < rules.MinNotional-Epsilon {
				raised += rules.QuantityStep
			}
			if rules.MaxQuantity > 0 && raised > rules.MaxQuantity+Epsilon {
				res.Rejected = true
				res.RejectReason = "cannot satisfy minimum notional within exchange limits"
				return res
			}
			res.AddAdjustment(fmt.Sprintf("quantity %s raised to %s to meet minimum notional %s",
				fmtF(adjQty), fmtF(raised), fmtF(rules.MinNotional)))
			adjQty = raised
		}
	}

	res.Quantity = adjQty
	res.Price = adjPrice
	return res
}

// floorToStep 向下取整到step的整数倍
func floorToStep(val, step float64) float64 {
	if step <= 0 {
		return val
	}
	return math.Floor(val/step+Epsilon) * step
}

// roundToStepTiesDown 取整到最近的step倍数，恰好位于两个倍数中间时取小的
func roundToStepTiesDown(val, step float64) float64 {
	return math.Ceil(val/step-0.5) * step
}

// floorFloat 截断到n位小数
func floorFloat(val float64, n int) float64 {
	factor := math.Pow10(n)
	return math.Floor(val*factor) / factor
}

func fmtF(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
