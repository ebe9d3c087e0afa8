package service

import (
	"strings"

	"github.com/melodist-next/internal/constants"
	"github.com/melodist-next/internal/models"
	"github.com/melodist-next/internal/repository"

	"gorm.io/gorm"
)

// BalanceSnapshot 艺人可提现余额快照
type BalanceSnapshot struct {
	UserID           uint         `json:"user_id"`
	Currency         string       `json:"currency"`
	TotalEarned      models.Money `json:"total_earned"`
	TotalPaid        models.Money `json:"total_paid"`
	TotalPending     models.Money `json:"total_pending"`
	AvailableBalance models.Money `json:"available_balance"`
}

// BalanceService 余额账本服务。余额不落库，每次调用基于结算单与提现记录重新汇总。
type BalanceService struct {
	statementRepo repository.StatementRepository
	payoutRepo    repository.PayoutRepository
}

// NewBalanceService 创建余额账本服务
func NewBalanceService(statementRepo repository.StatementRepository, payoutRepo repository.PayoutRepository) *BalanceService {
	return &BalanceService{
		statementRepo: statementRepo,
		payoutRepo:    payoutRepo,
	}
}

// GetAvailableBalance 查询艺人在指定币种下的可提现余额
func (s *BalanceService) GetAvailableBalance(userID uint, currency string) (*BalanceSnapshot, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	return s.snapshotWith(s.statementRepo, s.payoutRepo, userID, normalizeCurrency(currency))
}

// SnapshotInTx 在既有事务内计算余额快照，用于提现准入校验
func (s *BalanceService) SnapshotInTx(tx *gorm.DB, userID uint, currency string) (*BalanceSnapshot, error) {
	if tx == nil {
		return s.GetAvailableBalance(userID, currency)
	}
	return s.snapshotWith(s.statementRepo.WithTx(tx), s.payoutRepo.WithTx(tx), userID, normalizeCurrency(currency))
}

func (s *BalanceService) snapshotWith(
	statements repository.StatementRepository,
	payouts repository.PayoutRepository,
	userID uint,
	currency string,
) (*BalanceSnapshot, error) {
	earned, err := statements.SumEarnedNetRevenue(userID, currency)
	if err != nil {
		return nil, err
	}
	paid, err := payouts.SumAmountByStatuses(userID, currency, []string{
		constants.PayoutStatusCompleted,
		constants.PayoutStatusProcessing,
	})
	if err != nil {
		return nil, err
	}
	pending, err := payouts.SumAmountByStatuses(userID, currency, []string{
		constants.PayoutStatusPending,
	})
	if err != nil {
		return nil, err
	}

	available := earned.Sub(paid).Sub(pending).Round(2)
	return &BalanceSnapshot{
		UserID:           userID,
		Currency:         currency,
		TotalEarned:      models.NewMoneyFromDecimal(earned),
		TotalPaid:        models.NewMoneyFromDecimal(paid),
		TotalPending:     models.NewMoneyFromDecimal(pending),
		AvailableBalance: models.NewMoneyFromDecimal(available),
	}, nil
}

func normalizeCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		return constants.SiteCurrencyDefault
	}
	return normalized
}
