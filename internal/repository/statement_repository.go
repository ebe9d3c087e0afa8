package repository

import (
	"errors"
	"time"

	"github.com/melodist-next/internal/constants"
	"github.com/melodist-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatementRepository 版税结算单数据访问接口
type StatementRepository interface {
	GetByID(id uint) (*models.RoyaltyStatement, error)
	GetByIDForUpdate(id uint) (*models.RoyaltyStatement, error)
	GetByPeriod(userID uint, platform string, periodStart, periodEnd time.Time) (*models.RoyaltyStatement, error)
	ListByIDs(ids []uint) ([]models.RoyaltyStatement, error)
	ListGeneratedEndedBefore(cutoff time.Time, limit int) ([]models.RoyaltyStatement, error)
	Create(statement *models.RoyaltyStatement) error
	Update(statement *models.RoyaltyStatement) error
	List(filter StatementListFilter) ([]models.RoyaltyStatement, int64, error)
	SumEarnedNetRevenue(userID uint, currency string) (decimal.Decimal, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormStatementRepository
}

// GormStatementRepository GORM 版税结算单仓储实现
type GormStatementRepository struct {
	db *gorm.DB
}

// NewStatementRepository 创建版税结算单仓储
func NewStatementRepository(db *gorm.DB) *GormStatementRepository {
	return &GormStatementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStatementRepository) WithTx(tx *gorm.DB) *GormStatementRepository {
	if tx == nil {
		return r
	}
	return &GormStatementRepository{db: tx}
}

// Transaction 在数据库事务中执行
func (r *GormStatementRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID 按 ID 获取结算单
func (r *GormStatementRepository) GetByID(id uint) (*models.RoyaltyStatement, error) {
	if id == 0 {
		return nil, nil
	}
	var statement models.RoyaltyStatement
	if err := r.db.First(&statement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &statement, nil
}

// GetByIDForUpdate 按 ID 加锁获取结算单
func (r *GormStatementRepository) GetByIDForUpdate(id uint) (*models.RoyaltyStatement, error) {
	if id == 0 {
		return nil, nil
	}
	var statement models.RoyaltyStatement
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&statement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &statement, nil
}

// GetByPeriod 按艺人、平台与结算周期查询结算单
func (r *GormStatementRepository) GetByPeriod(userID uint, platform string, periodStart, periodEnd time.Time) (*models.RoyaltyStatement, error) {
	if userID == 0 {
		return nil, nil
	}
	var statement models.RoyaltyStatement
	if err := r.db.
		Where("user_id = ? AND platform = ? AND period_start = ? AND period_end = ?", userID, platform, periodStart, periodEnd).
		First(&statement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &statement, nil
}

// ListByIDs 批量获取结算单
func (r *GormStatementRepository) ListByIDs(ids []uint) ([]models.RoyaltyStatement, error) {
	if len(ids) == 0 {
		return []models.RoyaltyStatement{}, nil
	}
	var statements []models.RoyaltyStatement
	if err := r.db.Where("id IN ?", ids).Find(&statements).Error; err != nil {
		return nil, err
	}
	return statements, nil
}

// ListGeneratedEndedBefore 查询结算周期早于指定时间且仍为 generated 的结算单
func (r *GormStatementRepository) ListGeneratedEndedBefore(cutoff time.Time, limit int) ([]models.RoyaltyStatement, error) {
	if limit <= 0 {
		limit = 100
	}
	var statements []models.RoyaltyStatement
	if err := r.db.
		Where("status = ? AND period_end < ?", constants.StatementStatusGenerated, cutoff).
		Order("id asc").
		Limit(limit).
		Find(&statements).Error; err != nil {
		return nil, err
	}
	return statements, nil
}

// Create 创建结算单
func (r *GormStatementRepository) Create(statement *models.RoyaltyStatement) error {
	return r.db.Create(statement).Error
}

// Update 更新结算单
func (r *GormStatementRepository) Update(statement *models.RoyaltyStatement) error {
	return r.db.Save(statement).Error
}

// List 分页查询结算单
func (r *GormStatementRepository) List(filter StatementListFilter) ([]models.RoyaltyStatement, int64, error) {
	query := r.db.Model(&models.RoyaltyStatement{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Platform != "" {
		query = query.Where("platform = ?", filter.Platform)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Currency != "" {
		query = query.Where("currency = ?", filter.Currency)
	}
	if filter.PeriodFrom != nil {
		query = query.Where("period_start >= ?", *filter.PeriodFrom)
	}
	if filter.PeriodTo != nil {
		query = query.Where("period_end <= ?", *filter.PeriodTo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var statements []models.RoyaltyStatement
	if err := query.Order("id desc").Find(&statements).Error; err != nil {
		return nil, 0, err
	}
	return statements, total, nil
}

// SumEarnedNetRevenue 汇总已定稿（含已支付）结算单的净收入
func (r *GormStatementRepository) SumEarnedNetRevenue(userID uint, currency string) (decimal.Decimal, error) {
	if userID == 0 {
		return decimal.Zero, nil
	}
	var raw decimal.NullDecimal
	err := r.db.Model(&models.RoyaltyStatement{}).
		Select("COALESCE(SUM(net_revenue), 0)").
		Where("user_id = ? AND currency = ? AND status IN ?", userID, currency,
			[]string{constants.StatementStatusFinalized, constants.StatementStatusPaid}).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !raw.Valid {
		return decimal.Zero, nil
	}
	return raw.Decimal.Round(2), nil
}
