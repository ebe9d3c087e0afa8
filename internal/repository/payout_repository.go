package repository

import (
	"errors"

	"github.com/melodist-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayoutRepository 提现数据访问接口
type PayoutRepository interface {
	GetByID(id uint) (*models.Payout, error)
	GetByIDAndUser(id uint, userID uint) (*models.Payout, error)
	GetByIDForUpdate(id uint) (*models.Payout, error)
	Create(payout *models.Payout) error
	CreateStatementLinks(links []models.PayoutStatement) error
	ListStatementLinks(payoutID uint) ([]models.PayoutStatement, error)
	List(filter PayoutListFilter) ([]models.Payout, int64, error)
	SumAmountByStatuses(userID uint, currency string, statuses []string) (decimal.Decimal, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormPayoutRepository
}

// GormPayoutRepository GORM 提现仓储实现
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository 创建提现仓储
func NewPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPayoutRepository) WithTx(tx *gorm.DB) *GormPayoutRepository {
	if tx == nil {
		return r
	}
	return &GormPayoutRepository{db: tx}
}

// Transaction 在数据库事务中执行
func (r *GormPayoutRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID 按 ID 获取提现
func (r *GormPayoutRepository) GetByID(id uint) (*models.Payout, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.Payout
	if err := r.db.First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetByIDAndUser 按 ID 和用户获取提现
func (r *GormPayoutRepository) GetByIDAndUser(id uint, userID uint) (*models.Payout, error) {
	if id == 0 || userID == 0 {
		return nil, nil
	}
	var payout models.Payout
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&payout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetByIDForUpdate 按 ID 加锁获取提现
func (r *GormPayoutRepository) GetByIDForUpdate(id uint) (*models.Payout, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.Payout
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// Create 创建提现
func (r *GormPayoutRepository) Create(payout *models.Payout) error {
	return r.db.Create(payout).Error
}

// CreateStatementLinks 批量创建提现与结算单关联
func (r *GormPayoutRepository) CreateStatementLinks(links []models.PayoutStatement) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.Create(&links).Error
}

// ListStatementLinks 查询提现关联的结算单
func (r *GormPayoutRepository) ListStatementLinks(payoutID uint) ([]models.PayoutStatement, error) {
	if payoutID == 0 {
		return []models.PayoutStatement{}, nil
	}
	var links []models.PayoutStatement
	if err := r.db.Where("payout_id = ?", payoutID).Order("id asc").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// List 分页查询提现
func (r *GormPayoutRepository) List(filter PayoutListFilter) ([]models.Payout, int64, error) {
	query := r.db.Model(&models.Payout{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.Currency != "" {
		query = query.Where("currency = ?", filter.Currency)
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

	var payouts []models.Payout
	if err := query.Order("id desc").Find(&payouts).Error; err != nil {
		return nil, 0, err
	}
	return payouts, total, nil
}

// SumAmountByStatuses 汇总用户在指定状态集合下的提现金额
func (r *GormPayoutRepository) SumAmountByStatuses(userID uint, currency string, statuses []string) (decimal.Decimal, error) {
	if userID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var raw decimal.NullDecimal
	err := r.db.Model(&models.Payout{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND currency = ? AND status IN ?", userID, currency, statuses).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !raw.Valid {
		return decimal.Zero, nil
	}
	return raw.Decimal.Round(2), nil
}
