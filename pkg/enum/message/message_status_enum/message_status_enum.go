// Package message_status_enum 定义消息状态枚举
package message_status_enum

// 消息状态
// 状态只允许单向推进：sent -> delivered -> read，不允许回退
const (
	Sent      int8 = 0 // 已发送（持久化完成）
	Delivered int8 = 1 // 已投递（实时通道推送成功）
	Read      int8 = 2 // 已读
)

// labels 状态码到字符串标签的映射
var labels = map[int8]string{
	Sent:      "sent",
	Delivered: "delivered",
	Read:      "read",
}

// Label 返回消息状态的字符串标签，未知值返回 "sent"
func Label(status int8) string {
	if label, ok := labels[status]; ok {
		return label
	}
	return labels[Sent]
}

// CanAdvance 检查状态是否允许从 from 推进到 to
// 仅允许向前推进，保证已读状态不被覆盖
func CanAdvance(from, to int8) bool {
	return to > from
}
