package repository

import (
	"errors"
	"strings"

	"github.com/melodist-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackRepository 曲目数据访问接口
type TrackRepository interface {
	GetByID(id uint) (*models.Track, error)
	GetByIDAndUser(id uint, userID uint) (*models.Track, error)
	GetByIDForUpdate(id uint) (*models.Track, error)
	GetByISRC(isrc string) (*models.Track, error)
	ListByReleaseID(releaseID uint) ([]models.Track, error)
	Create(track *models.Track) error
	Update(track *models.Track) error
	Delete(id uint) error
	List(filter TrackListFilter) ([]models.Track, int64, error)
	WithTx(tx *gorm.DB) *GormTrackRepository
}

// GormTrackRepository GORM 曲目仓储实现
type GormTrackRepository struct {
	db *gorm.DB
}

// NewTrackRepository 创建曲目仓储
func NewTrackRepository(db *gorm.DB) *GormTrackRepository {
	return &GormTrackRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTrackRepository) WithTx(tx *gorm.DB) *GormTrackRepository {
	if tx == nil {
		return r
	}
	return &GormTrackRepository{db: tx}
}

// GetByID 按 ID 获取曲目
func (r *GormTrackRepository) GetByID(id uint) (*models.Track, error) {
	if id == 0 {
		return nil, nil
	}
	var track models.Track
	if err := r.db.First(&track, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// GetByIDAndUser 按 ID 和归属艺人获取曲目
func (r *GormTrackRepository) GetByIDAndUser(id uint, userID uint) (*models.Track, error) {
	if id == 0 || userID == 0 {
		return nil, nil
	}
	var track models.Track
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&track).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// GetByIDForUpdate 按 ID 加锁获取曲目，作为分成准入的串行化锚点
func (r *GormTrackRepository) GetByIDForUpdate(id uint) (*models.Track, error) {
	if id == 0 {
		return nil, nil
	}
	var track models.Track
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&track, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// GetByISRC 按 ISRC 获取曲目
func (r *GormTrackRepository) GetByISRC(isrc string) (*models.Track, error) {
	isrc = strings.TrimSpace(isrc)
	if isrc == "" {
		return nil, nil
	}
	var track models.Track
	if err := r.db.Where("isrc = ?", isrc).First(&track).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// ListByReleaseID 查询发行物下的全部曲目
func (r *GormTrackRepository) ListByReleaseID(releaseID uint) ([]models.Track, error) {
	if releaseID == 0 {
		return []models.Track{}, nil
	}
	var tracks []models.Track
	if err := r.db.Where("release_id = ?", releaseID).
		Order("track_number asc, id asc").
		Find(&tracks).Error; err != nil {
		return nil, err
	}
	return tracks, nil
}

// Create 创建曲目
func (r *GormTrackRepository) Create(track *models.Track) error {
	return r.db.Create(track).Error
}

// Update 更新曲目
func (r *GormTrackRepository) Update(track *models.Track) error {
	return r.db.Save(track).Error
}

// Delete 删除曲目（软删除）
func (r *GormTrackRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Track{}, id).Error
}

// List 分页查询曲目
func (r *GormTrackRepository) List(filter TrackListFilter) ([]models.Track, int64, error) {
	query := r.db.Model(&models.Track{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ReleaseID != 0 {
		query = query.Where("release_id = ?", filter.ReleaseID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		operator := likeOperator(r.db)
		query = query.Where("title "+operator+" ? OR isrc "+operator+" ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var tracks []models.Track
	if err := query.Order("id desc").Find(&tracks).Error; err != nil {
		return nil, 0, err
	}
	return tracks, total, nil
}
