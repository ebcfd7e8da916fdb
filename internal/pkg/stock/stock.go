// Package stock 提供 A 股代码规范化与手数/金额计算工具。
package stock

import (
	"fmt"
	"strings"
)

// LotSize 是最小交易单位（一手 = 100 股）。
const LotSize = 100

// Normalize 校验并规范化股票代码。
// 接受 "600000"、"sh.600000"、"sz.000001" 三种形式；
// 无前缀的 6 位代码按首位推断市场：6 开头为上海，0/3 开头为深圳。
func Normalize(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("股票代码不能为空")
	}
	if strings.HasPrefix(code, "sh.") || strings.HasPrefix(code, "sz.") {
		num := code[3:]
		if !isDigits(num) || len(num) != 6 {
			return "", fmt.Errorf("股票代码格式错误，应为6位数字")
		}
		return code, nil
	}
	if !isDigits(code) || len(code) != 6 {
		return "", fmt.Errorf("股票代码格式错误，应为6位数字")
	}
	switch code[0] {
	case '6':
		return "sh." + code, nil
	case '0', '3':
		return "sz." + code, nil
	default:
		return "", fmt.Errorf("无法识别的股票代码，上海以6开头，深圳以0或3开头")
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Shares 根据金额和价格计算可买股数，向下取整到一手（100 股）的倍数。
func Shares(amount, price float64) int {
	if price <= 0 || amount <= 0 {
		return 0
	}
	total := int(amount / price)
	return (total / LotSize) * LotSize
}

// FormatMoney 按中文习惯格式化金额（亿/万）。
func FormatMoney(amount float64) string {
	switch {
	case amount >= 1e8:
		return fmt.Sprintf("%.2f亿", amount/1e8)
	case amount >= 1e4:
		return fmt.Sprintf("%.2f万", amount/1e4)
	default:
		return fmt.Sprintf("%.2f", amount)
	}
}

// RiskLabel 根据回调比例给出风险档位描述。
func RiskLabel(ratio float64) string {
	switch {
	case ratio < 0.382:
		return "极低风险"
	case ratio < 0.5:
		return "低风险"
	case ratio < 0.618:
		return "中等风险"
	case ratio < 0.786:
		return "较高风险"
	default:
		return "高风险"
	}
}
