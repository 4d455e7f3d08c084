package repository

import (
	"support_chat_server/internal/model"

	"gorm.io/gorm"
)

type chatUserRepository struct {
	db *gorm.DB
}

// NewChatUserRepository 创建终端用户 Repository
func NewChatUserRepository(db *gorm.DB) ChatUserRepository {
	return &chatUserRepository{db: db}
}

// FindByName 根据用户名查找用户
func (r *chatUserRepository) FindByName(name string) (*model.ChatUser, error) {
	var user model.ChatUser
	if err := r.db.Where("name = ?", name).First(&user).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 name=%s", name)
	}
	return &user, nil
}

// FindById 根据主键查找用户
func (r *chatUserRepository) FindById(id uint) (*model.ChatUser, error) {
	var user model.ChatUser
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 id=%d", id)
	}
	return &user, nil
}

// FindByIds 批量根据主键查找用户
func (r *chatUserRepository) FindByIds(ids []uint) ([]model.ChatUser, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.ChatUser
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, wrapDBError(err, "批量查询用户")
	}
	return users, nil
}

// Create 创建新用户
func (r *chatUserRepository) Create(user *model.ChatUser) error {
	if err := r.db.Create(user).Error; err != nil {
		return wrapDBError(err, "创建用户")
	}
	return nil
}
