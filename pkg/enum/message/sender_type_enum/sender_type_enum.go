// Package sender_type_enum 定义消息发送方类型枚举
package sender_type_enum

// 发送方类型
// sender_type + sender_id 组成带标签的多态引用：
// User 时 sender_id 指向 chat_user 表，Admin 时指向 staff 表
const (
	User  int8 = 0 // 终端用户
	Admin int8 = 1 // 客服人员
)

// labels 类型码到字符串标签的映射
var labels = map[int8]string{
	User:  "user",
	Admin: "admin",
}

// Label 返回发送方类型的字符串标签，未知值返回 "user"
func Label(senderType int8) string {
	if label, ok := labels[senderType]; ok {
		return label
	}
	return labels[User]
}

// Parse 将字符串标签解析为发送方类型
func Parse(label string) (int8, bool) {
	for senderType, l := range labels {
		if l == label {
			return senderType, true
		}
	}
	return User, false
}

// Other 返回对方的发送方类型
// 用于未读计数：一方发消息时，累加另一方的未读数
func Other(senderType int8) int8 {
	if senderType == User {
		return Admin
	}
	return User
}
