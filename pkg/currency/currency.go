package currency

import (
	"errors"

	"github.com/shopspring/decimal"
)

// 金额在系统内部一律以最小货币单位（分）的 int64 流转，
// 只在 API 边界以十进制字符串（如 "60.00"）进出。
// 解析用 decimal 完成，任何环节都不经过浮点数。

var (
	ErrInvalidAmount = errors.New("金额格式不合法")
	ErrTooPrecise    = errors.New("金额最多两位小数")
)

var centsFactor = decimal.NewFromInt(100)

// ParseToCents 把 "60.00" 这样的十进制字符串解析为分。
// 超过两位小数直接拒绝，不做四舍五入 —— 货币精度是固定的。
func ParseToCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.Exponent() < -2 {
		// 规范化后再看一次，"1.10" 和 "1.100" 都应当合法
		if !d.Equal(d.Round(2)) {
			return 0, ErrTooPrecise
		}
	}
	cents := d.Mul(centsFactor)
	if !cents.IsInteger() {
		return 0, ErrTooPrecise
	}
	return cents.IntPart(), nil
}

// FormatCents 把分格式化为两位小数的十进制字符串。
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(centsFactor).StringFixed(2)
}
