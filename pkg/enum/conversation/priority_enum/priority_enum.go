// Package priority_enum 定义会话优先级枚举
package priority_enum

// 会话优先级
// 优先级是展示性字段，解析失败时回退到 Medium 而不是报错
const (
	Low    int8 = 0 // 低
	Medium int8 = 1 // 中（默认）
	High   int8 = 2 // 高
	Urgent int8 = 3 // 紧急
)

// labels 优先级到字符串标签的映射，用于 API 响应
var labels = map[int8]string{
	Low:    "low",
	Medium: "medium",
	High:   "high",
	Urgent: "urgent",
}

// Label 返回优先级的字符串标签，未知值返回 "medium"
func Label(priority int8) string {
	if label, ok := labels[priority]; ok {
		return label
	}
	return labels[Medium]
}

// Parse 将字符串标签解析为优先级
// 返回优先级和是否解析成功
func Parse(label string) (int8, bool) {
	for priority, l := range labels {
		if l == label {
			return priority, true
		}
	}
	return Medium, false
}
