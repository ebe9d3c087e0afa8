package repository

import (
	"errors"
	"strings"

	"github.com/melodist-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReleaseRepository 发行物数据访问接口
type ReleaseRepository interface {
	GetByID(id uint) (*models.Release, error)
	GetByIDAndUser(id uint, userID uint) (*models.Release, error)
	GetByIDForUpdate(id uint) (*models.Release, error)
	GetByUPC(upc string) (*models.Release, error)
	Create(release *models.Release) error
	Update(release *models.Release) error
	List(filter ReleaseListFilter) ([]models.Release, int64, error)
	WithTx(tx *gorm.DB) *GormReleaseRepository
}

// GormReleaseRepository GORM 发行物仓储实现
type GormReleaseRepository struct {
	db *gorm.DB
}

// NewReleaseRepository 创建发行物仓储
func NewReleaseRepository(db *gorm.DB) *GormReleaseRepository {
	return &GormReleaseRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReleaseRepository) WithTx(tx *gorm.DB) *GormReleaseRepository {
	if tx == nil {
		return r
	}
	return &GormReleaseRepository{db: tx}
}

// GetByID 按 ID 获取发行物
func (r *GormReleaseRepository) GetByID(id uint) (*models.Release, error) {
	if id == 0 {
		return nil, nil
	}
	var release models.Release
	if err := r.db.Preload("Tracks").First(&release, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &release, nil
}

// GetByIDAndUser 按 ID 和归属艺人获取发行物
func (r *GormReleaseRepository) GetByIDAndUser(id uint, userID uint) (*models.Release, error) {
	if id == 0 || userID == 0 {
		return nil, nil
	}
	var release models.Release
	if err := r.db.Preload("Tracks").
		Where("id = ? AND user_id = ?", id, userID).
		First(&release).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &release, nil
}

// GetByIDForUpdate 按 ID 加锁获取发行物，作为分成准入的串行化锚点
func (r *GormReleaseRepository) GetByIDForUpdate(id uint) (*models.Release, error) {
	if id == 0 {
		return nil, nil
	}
	var release models.Release
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&release, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &release, nil
}

// GetByUPC 按 UPC 获取发行物
func (r *GormReleaseRepository) GetByUPC(upc string) (*models.Release, error) {
	upc = strings.TrimSpace(upc)
	if upc == "" {
		return nil, nil
	}
	var release models.Release
	if err := r.db.Where("upc = ?", upc).First(&release).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &release, nil
}

// Create 创建发行物
func (r *GormReleaseRepository) Create(release *models.Release) error {
	return r.db.Create(release).Error
}

// Update 更新发行物
func (r *GormReleaseRepository) Update(release *models.Release) error {
	return r.db.Save(release).Error
}

// List 分页查询发行物
func (r *GormReleaseRepository) List(filter ReleaseListFilter) ([]models.Release, int64, error) {
	query := r.db.Model(&models.Release{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ReleaseType != "" {
		query = query.Where("release_type = ?", filter.ReleaseType)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		operator := likeOperator(r.db)
		query = query.Where(
			"title "+operator+" ? OR primary_artist "+operator+" ? OR upc "+operator+" ?",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if filter.WithTracks {
		query = query.Preload("Tracks")
	}

	var releases []models.Release
	if err := query.Order("id desc").Find(&releases).Error; err != nil {
		return nil, 0, err
	}
	return releases, total, nil
}
