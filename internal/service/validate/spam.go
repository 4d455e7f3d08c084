package validate

import (
	"regexp"
)

// 垃圾内容关键词模式（营销、博彩、药品类）
var spamKeywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(viagra|cialis|casino|lottery|jackpot)\b`),
	regexp.MustCompile(`(?i)free\s+(money|cash|gift|prize)`),
	regexp.MustCompile(`(?i)(click\s+here|buy\s+now|limited\s+time\s+offer)`),
	regexp.MustCompile(`(?i)(earn|make)\s+\$?\d+`),
	regexp.MustCompile(`中奖|博彩|代开发票|加微信`),
}

// URL 出现模式
var urlPattern = regexp.MustCompile(`(?i)(https?://|www\.)`)

// 货币符号集合
var currencyRunes = map[rune]bool{
	'$': true, '€': true, '£': true, '¥': true, '₩': true, '₹': true,
}

// IsSpam 判断净化后的文本是否为垃圾内容
// 与内容校验相互独立：Service 层在校验通过后单独调用，
// 命中时以 SpamRejected 拒绝（与 ValidationError 区分，便于客户端差异化提示）
//
// 规则（任一命中即判定为垃圾内容）：
//   - 命中营销/博彩/药品类关键词
//   - 货币符号出现 5 次及以上
//   - URL 出现 3 次及以上
//   - 任意同一字符连续出现 21 次及以上
func IsSpam(sanitized string) bool {
	if sanitized == "" {
		return false
	}

	for _, pattern := range spamKeywordPatterns {
		if pattern.MatchString(sanitized) {
			return true
		}
	}

	runes := []rune(sanitized)
	currency := 0
	for _, r := range runes {
		if currencyRunes[r] {
			currency++
		}
	}
	if currency >= 5 {
		return true
	}

	if len(urlPattern.FindAllStringIndex(sanitized, -1)) >= 3 {
		return true
	}

	// 边界：同一字符重复 20 次通过，21 次拒绝
	if longestRun(runes) >= 21 {
		return true
	}

	return false
}
