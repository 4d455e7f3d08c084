// Package validate 提供消息内容的校验与净化
// 纯函数实现，不依赖任何外部状态，方便单元测试
//
// 设计约定：消息内容校验失败是终止性的（拒绝请求）；
// 主题/优先级非法则静默规范为默认值（展示性字段，不涉及安全），
// 两者的不对称处理是有意保留的行为
package validate

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"support_chat_server/pkg/constants"
	"support_chat_server/pkg/enum/conversation/priority_enum"
)

// DefaultSubject 主题为空或非法时使用的默认主题
const DefaultSubject = "Support Request"

// Result 消息校验结果
// OK 为 false 时 Reasons 给出全部拒绝原因，Sanitized 无意义
type Result struct {
	OK        bool
	Sanitized string
	Reasons   []string
}

// 危险内容模式，命中任意一条即拒绝
// 覆盖：伪协议、内联事件、CSS expression、data-URI HTML
// script/iframe 标签本身不在此列：它们由净化流水线连同内部内容一并移除，
// 使得 "<script>...</script>hello" 这类输入以 "hello" 落库而不是整体被拒
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(javascript|vbscript)\s*:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
	regexp.MustCompile(`(?i)expression\s*\(`),
	regexp.MustCompile(`(?i)data:\s*text/html`),
}

// 净化流水线使用的模式
var (
	// script/style/iframe 块整体移除（含内部内容）
	blockTagPattern = regexp.MustCompile(`(?is)<\s*(script|style|iframe)\b[^>]*>.*?<\s*/\s*(script|style|iframe)\s*>`)
	// 其余标签只移除标签本身，保留内容
	tagPattern = regexp.MustCompile(`<[^>]*>`)
	// 连续空白折叠为单个空格
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Message 校验并净化消息内容
// 拒绝规则（§拒绝后整体失败）：
//   - 去除首尾空白后为空，或超过 5000 字符
//   - 命中危险内容模式
//   - 长度超过 10 时特殊字符占比超过 50%
//   - 同一非字母数字字符连续出现 11 次及以上
//   - 长度超过 20 时大写字母占比超过 70%
//
// 通过后按固定顺序净化：
// 移除标签（保留内容）-> HTML 实体转义 -> 去除控制字符 -> 折叠空白 -> 去首尾空白
func Message(raw string) Result {
	var reasons []string

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Result{OK: false, Reasons: []string{"消息内容不能为空"}}
	}
	runes := []rune(trimmed)
	if len(runes) > constants.MESSAGE_MAX_LENGTH {
		reasons = append(reasons, "消息内容超过最大长度")
	}

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(trimmed) {
			reasons = append(reasons, "消息包含不安全内容")
			break
		}
	}

	if len(runes) > 10 && specialCharRatio(runes) > 0.5 {
		reasons = append(reasons, "消息特殊字符占比过高")
	}

	if longestSpecialRun(runes) >= 11 {
		reasons = append(reasons, "消息包含大量重复字符")
	}

	if len(runes) > 20 && upperCaseRatio(runes) > 0.7 {
		reasons = append(reasons, "消息大写字母占比过高")
	}

	if len(reasons) > 0 {
		return Result{OK: false, Reasons: reasons}
	}

	sanitized := Sanitize(trimmed)
	if sanitized == "" {
		return Result{OK: false, Reasons: []string{"消息内容不能为空"}}
	}
	if len([]rune(sanitized)) > constants.MESSAGE_MAX_LENGTH {
		// 实体转义可能使内容变长，超限同样拒绝
		return Result{OK: false, Reasons: []string{"消息内容超过最大长度"}}
	}
	return Result{OK: true, Sanitized: sanitized}
}

// Sanitize 固定顺序的净化流水线
// 顺序不可调换：先整体移除 script/style 块（内容一并移除），
// 再剥掉其余标签，之后才做实体转义，避免转义后的标签碎片残留
func Sanitize(text string) string {
	text = blockTagPattern.ReplaceAllString(text, "")
	text = tagPattern.ReplaceAllString(text, "")
	text = html.EscapeString(text)
	text = stripControlChars(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// stripControlChars 去除控制字符
// 换行、制表等空白类控制字符替换为空格，交给后续的空白折叠处理；
// 其余控制字符直接移除
func stripControlChars(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(' ')
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// specialCharRatio 特殊字符（非字母、非数字、非空白）占比
func specialCharRatio(runes []rune) float64 {
	special := 0
	for _, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	return float64(special) / float64(len(runes))
}

// longestSpecialRun 同一非字母数字字符的最长连续长度
// 只统计符号类字符，普通字符的超长重复由垃圾内容检查负责
func longestSpecialRun(runes []rune) int {
	longest, current := 0, 0
	var prev rune
	for i, r := range runes {
		isSpecial := !unicode.IsLetter(r) && !unicode.IsDigit(r)
		if isSpecial && i > 0 && r == prev {
			current++
		} else if isSpecial {
			current = 1
		} else {
			current = 0
		}
		if current > longest {
			longest = current
		}
		prev = r
	}
	return longest
}

// longestRun 任意同一字符的最长连续长度
func longestRun(runes []rune) int {
	longest, current := 0, 0
	var prev rune
	for i, r := range runes {
		if i > 0 && r == prev {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
		prev = r
	}
	return longest
}

// upperCaseRatio 大写字母占全部字母的比例，无字母时返回 0
func upperCaseRatio(runes []rune) float64 {
	letters, uppers := 0, 0
	for _, r := range runes {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(uppers) / float64(letters)
}

// IdentityName 校验用户标识名
// 返回规范化后的名字；非法时返回空串和 false
// 标识名是未认证流量的唯一身份依据，校验失败是终止性的
func IdentityName(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", false
	}
	if len([]rune(name)) > constants.IDENTITY_NAME_MAX_LENGTH {
		return "", false
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) ||
			r == '_' || r == '-' || r == '.' || r == ' ' {
			continue
		}
		return "", false
	}
	return name, true
}

// Subject 规范化会话主题
// 为空、超长或含危险内容时回退为默认主题，不报错
func Subject(raw string) string {
	subject := strings.TrimSpace(raw)
	if subject == "" {
		return DefaultSubject
	}
	if len([]rune(subject)) > constants.SUBJECT_MAX_LENGTH {
		return DefaultSubject
	}
	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(subject) {
			return DefaultSubject
		}
	}
	sanitized := Sanitize(subject)
	if sanitized == "" {
		return DefaultSubject
	}
	return sanitized
}

// Priority 解析优先级标签
// 非法输入回退为 medium，不报错
func Priority(raw string) int8 {
	priority, ok := priority_enum.Parse(strings.TrimSpace(strings.ToLower(raw)))
	if !ok {
		return priority_enum.Medium
	}
	return priority
}
