package repository

import (
	"errors"
	"strings"

	"github.com/melodist-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SplitRepository 协作者分成数据访问接口
type SplitRepository interface {
	GetByID(id uint) (*models.CollaboratorSplit, error)
	ListByScope(scopeType string, scopeID uint, splitType string) ([]models.CollaboratorSplit, error)
	ListByScopeForUpdate(scopeType string, scopeID uint, splitType string) ([]models.CollaboratorSplit, error)
	Create(split *models.CollaboratorSplit) error
	Delete(id uint) error
	List(filter SplitListFilter) ([]models.CollaboratorSplit, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormSplitRepository
}

// GormSplitRepository GORM 协作者分成仓储实现
type GormSplitRepository struct {
	db *gorm.DB
}

// NewSplitRepository 创建协作者分成仓储
func NewSplitRepository(db *gorm.DB) *GormSplitRepository {
	return &GormSplitRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSplitRepository) WithTx(tx *gorm.DB) *GormSplitRepository {
	if tx == nil {
		return r
	}
	return &GormSplitRepository{db: tx}
}

// Transaction 在数据库事务中执行
func (r *GormSplitRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID 按 ID 获取分成记录
func (r *GormSplitRepository) GetByID(id uint) (*models.CollaboratorSplit, error) {
	if id == 0 {
		return nil, nil
	}
	var split models.CollaboratorSplit
	if err := r.db.First(&split, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &split, nil
}

// ListByScope 查询同一范围同一分成类型下的全部记录
func (r *GormSplitRepository) ListByScope(scopeType string, scopeID uint, splitType string) ([]models.CollaboratorSplit, error) {
	if scopeID == 0 {
		return []models.CollaboratorSplit{}, nil
	}
	var splits []models.CollaboratorSplit
	if err := r.db.
		Where("scope_type = ? AND scope_id = ? AND split_type = ?", strings.TrimSpace(scopeType), scopeID, strings.TrimSpace(splitType)).
		Order("id asc").
		Find(&splits).Error; err != nil {
		return nil, err
	}
	return splits, nil
}

// ListByScopeForUpdate 加锁查询同一范围同一分成类型下的全部记录
func (r *GormSplitRepository) ListByScopeForUpdate(scopeType string, scopeID uint, splitType string) ([]models.CollaboratorSplit, error) {
	if scopeID == 0 {
		return []models.CollaboratorSplit{}, nil
	}
	var splits []models.CollaboratorSplit
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("scope_type = ? AND scope_id = ? AND split_type = ?", strings.TrimSpace(scopeType), scopeID, strings.TrimSpace(splitType)).
		Order("id asc").
		Find(&splits).Error; err != nil {
		return nil, err
	}
	return splits, nil
}

// Create 创建分成记录
func (r *GormSplitRepository) Create(split *models.CollaboratorSplit) error {
	return r.db.Create(split).Error
}

// Delete 删除分成记录
func (r *GormSplitRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.CollaboratorSplit{}, id).Error
}

// List 分页查询分成记录
func (r *GormSplitRepository) List(filter SplitListFilter) ([]models.CollaboratorSplit, int64, error) {
	query := r.db.Model(&models.CollaboratorSplit{})
	if filter.ScopeType != "" {
		query = query.Where("scope_type = ?", filter.ScopeType)
	}
	if filter.ScopeID != 0 {
		query = query.Where("scope_id = ?", filter.ScopeID)
	}
	if filter.SplitType != "" {
		query = query.Where("split_type = ?", filter.SplitType)
	}
	if filter.OwnerUserID != 0 {
		query = query.Where("owner_user_id = ?", filter.OwnerUserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var splits []models.CollaboratorSplit
	if err := query.Order("id desc").Find(&splits).Error; err != nil {
		return nil, 0, err
	}
	return splits, total, nil
}
