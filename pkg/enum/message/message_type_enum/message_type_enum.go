// Package message_type_enum 定义消息类型枚举
package message_type_enum

// 消息类型
// file/image 仅作为类型标记保留，附件内容的上传与存储不在本系统范围内
const (
	Text   int8 = 0 // 文本消息（默认）
	System int8 = 1 // 系统消息
	File   int8 = 2 // 文件消息
	Image  int8 = 3 // 图片消息
)

// labels 类型码到字符串标签的映射
var labels = map[int8]string{
	Text:   "text",
	System: "system",
	File:   "file",
	Image:  "image",
}

// Label 返回消息类型的字符串标签，未知值返回 "text"
func Label(messageType int8) string {
	if label, ok := labels[messageType]; ok {
		return label
	}
	return labels[Text]
}

// Parse 将字符串标签解析为消息类型
func Parse(label string) (int8, bool) {
	for messageType, l := range labels {
		if l == label {
			return messageType, true
		}
	}
	return Text, false
}
