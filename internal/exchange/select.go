package exchange

import "tradeflow/internal/model"

// SelectActiveAccount 从一组凭证里选出当前使用的那条
// 规则：第一条is_active的优先，没有active时退回插入顺序的第一条
// 纯函数，tie-break顺序可独立验证
func SelectActiveAccount(accs []model.ExchangeAccount) *model.ExchangeAccount {
	if len(accs) == 0 {
		return nil
	}
	for i := range accs {
		if accs[i].IsActive {
			return &accs[i]
		}
	}
	return &accs[0]
}
