package service

import (
	"strings"
	"time"

	"github.com/melodist-next/internal/config"
	"github.com/melodist-next/internal/constants"
	"github.com/melodist-next/internal/logger"
	"github.com/melodist-next/internal/models"
	"github.com/melodist-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatementService 版税结算单服务。结算数据由外部对账产生，本服务只负责录入与生命周期。
type StatementService struct {
	cfg           *config.Config
	statementRepo repository.StatementRepository
	userRepo      repository.UserRepository
}

// NewStatementService 创建版税结算单服务
func NewStatementService(cfg *config.Config, statementRepo repository.StatementRepository, userRepo repository.UserRepository) *StatementService {
	return &StatementService{
		cfg:           cfg,
		statementRepo: statementRepo,
		userRepo:      userRepo,
	}
}

// CreateStatementInput 录入结算单输入
type CreateStatementInput struct {
	UserID       uint
	Platform     string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Currency     string
	GrossRevenue models.Money
	FeeAmount    models.Money
	StreamCount  int64
	Generated    bool
}

// CreateStatement 录入结算单。同一艺人、平台与结算周期的组合唯一。
func (s *StatementService) CreateStatement(input CreateStatementInput) (*models.RoyaltyStatement, error) {
	if input.UserID == 0 {
		return nil, ErrNotFound
	}
	platform := strings.ToLower(strings.TrimSpace(input.Platform))
	if platform == "" {
		return nil, ErrStatementPlatformInvalid
	}
	if !input.PeriodStart.Before(input.PeriodEnd) {
		return nil, ErrStatementPeriodInvalid
	}

	gross := input.GrossRevenue.Decimal.Round(2)
	fee := input.FeeAmount.Decimal.Round(2)
	if gross.LessThan(decimal.Zero) || fee.LessThan(decimal.Zero) || fee.GreaterThan(gross) {
		return nil, ErrStatementAmountInvalid
	}
	net := gross.Sub(fee).Round(2)

	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	existing, err := s.statementRepo.GetByPeriod(input.UserID, platform, input.PeriodStart, input.PeriodEnd)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrStatementExists
	}

	status := constants.StatementStatusDraft
	if input.Generated {
		status = constants.StatementStatusGenerated
	}

	now := time.Now()
	statement := &models.RoyaltyStatement{
		UserID:       input.UserID,
		Platform:     platform,
		PeriodStart:  input.PeriodStart,
		PeriodEnd:    input.PeriodEnd,
		Currency:     normalizeCurrency(input.Currency),
		GrossRevenue: models.NewMoneyFromDecimal(gross),
		FeeAmount:    models.NewMoneyFromDecimal(fee),
		NetRevenue:   models.NewMoneyFromDecimal(net),
		StreamCount:  input.StreamCount,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.statementRepo.Create(statement); err != nil {
		return nil, err
	}
	return statement, nil
}

// MarkGenerated 将草稿结算单标记为已生成
func (s *StatementService) MarkGenerated(id uint) (*models.RoyaltyStatement, error) {
	return s.transition(id, constants.StatementStatusDraft, map[string]interface{}{
		"status": constants.StatementStatusGenerated,
	})
}

// FinalizeStatement 将已生成的结算单定稿，定稿后净收入计入可提现余额
func (s *StatementService) FinalizeStatement(id uint) (*models.RoyaltyStatement, error) {
	now := time.Now()
	return s.transition(id, constants.StatementStatusGenerated, map[string]interface{}{
		"status":       constants.StatementStatusFinalized,
		"finalized_at": now,
	})
}

// MarkPaid 标记结算单已通过提现支付
func (s *StatementService) MarkPaid(id uint, paymentReference string) (*models.RoyaltyStatement, error) {
	now := time.Now()
	return s.transition(id, constants.StatementStatusFinalized, map[string]interface{}{
		"status":            constants.StatementStatusPaid,
		"paid_at":           now,
		"payment_reference": strings.TrimSpace(paymentReference),
	})
}

// AutoFinalizeDue 定稿结算周期已结束超过宽限期的 generated 结算单，返回定稿数量
func (s *StatementService) AutoFinalizeDue() (int, error) {
	graceDays := 0
	if s.cfg != nil && s.cfg.Payout.StatementFinalizeGraceDays > 0 {
		graceDays = s.cfg.Payout.StatementFinalizeGraceDays
	}
	cutoff := time.Now().AddDate(0, 0, -graceDays)

	statements, err := s.statementRepo.ListGeneratedEndedBefore(cutoff, 200)
	if err != nil {
		return 0, err
	}

	finalized := 0
	for _, statement := range statements {
		if _, err := s.FinalizeStatement(statement.ID); err != nil {
			logger.Warnw("statement_auto_finalize_failed", "statement_id", statement.ID, "error", err)
			continue
		}
		finalized++
	}
	return finalized, nil
}

// GetStatement 查询结算单，userID 非 0 时校验归属
func (s *StatementService) GetStatement(id uint, userID uint) (*models.RoyaltyStatement, error) {
	statement, err := s.statementRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if statement == nil {
		return nil, ErrStatementNotFound
	}
	if userID != 0 && statement.UserID != userID {
		return nil, ErrStatementNotFound
	}
	return statement, nil
}

// ListStatements 分页查询结算单
func (s *StatementService) ListStatements(filter repository.StatementListFilter) ([]models.RoyaltyStatement, int64, error) {
	return s.statementRepo.List(filter)
}

func (s *StatementService) transition(id uint, fromStatus string, updates map[string]interface{}) (*models.RoyaltyStatement, error) {
	if id == 0 {
		return nil, ErrStatementNotFound
	}
	statement, err := s.statementRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if statement == nil {
		return nil, ErrStatementNotFound
	}

	updates["updated_at"] = time.Now()
	if err := s.statementRepo.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RoyaltyStatement{}).
			Where("id = ? AND status = ?", id, fromStatus).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStatementStatusInvalid
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s.statementRepo.GetByID(id)
}
