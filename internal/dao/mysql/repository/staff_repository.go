package repository

import (
	"support_chat_server/internal/model"

	"gorm.io/gorm"
)

type staffRepository struct {
	db *gorm.DB
}

// NewStaffRepository 创建客服 Repository
func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

// FindById 根据主键查找客服
func (r *staffRepository) FindById(id uint) (*model.Staff, error) {
	var staff model.Staff
	if err := r.db.First(&staff, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询客服 id=%d", id)
	}
	return &staff, nil
}

// FindByIds 批量根据主键查找客服
func (r *staffRepository) FindByIds(ids []uint) ([]model.Staff, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var staffs []model.Staff
	if err := r.db.Where("id IN ?", ids).Find(&staffs).Error; err != nil {
		return nil, wrapDBError(err, "批量查询客服")
	}
	return staffs, nil
}

// FindByUsername 根据登录用户名查找客服
func (r *staffRepository) FindByUsername(username string) (*model.Staff, error) {
	var staff model.Staff
	if err := r.db.Where("username = ?", username).First(&staff).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询客服 username=%s", username)
	}
	return &staff, nil
}

// Create 创建客服账号
func (r *staffRepository) Create(staff *model.Staff) error {
	if err := r.db.Create(staff).Error; err != nil {
		return wrapDBError(err, "创建客服")
	}
	return nil
}
