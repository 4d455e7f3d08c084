package constants

const (
	CHANNEL_SIZE             = 100  // 通道大小
	MESSAGE_MAX_LENGTH       = 5000 // 消息内容最大长度
	SUBJECT_MAX_LENGTH       = 200  // 会话主题最大长度
	IDENTITY_NAME_MAX_LENGTH = 50   // 用户标识名最大长度
	DEFAULT_PAGE_SIZE        = 20   // 默认分页大小
	MAX_PAGE_SIZE            = 100  // 最大分页大小
)
