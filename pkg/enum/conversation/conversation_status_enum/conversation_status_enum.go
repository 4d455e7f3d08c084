// Package conversation_status_enum 定义会话状态枚举
package conversation_status_enum

// 会话状态
// 状态机：open --close--> closed；open <--reopen--> pending
// closed 为终态，但已关闭的会话仍允许追加消息（业务上明确保留该行为）
const (
	Open    int8 = 0 // 进行中
	Pending int8 = 1 // 等待回复
	Closed  int8 = 2 // 已关闭
)

// labels 状态码到字符串标签的映射，用于 API 响应
var labels = map[int8]string{
	Open:    "open",
	Pending: "pending",
	Closed:  "closed",
}

// Label 返回状态的字符串标签，未知状态返回 "open"
func Label(status int8) string {
	if label, ok := labels[status]; ok {
		return label
	}
	return labels[Open]
}

// Parse 将字符串标签解析为状态码
// 返回状态码和是否解析成功
func Parse(label string) (int8, bool) {
	for status, l := range labels {
		if l == label {
			return status, true
		}
	}
	return Open, false
}
