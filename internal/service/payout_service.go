package service

import (
	"strings"
	"time"

	"github.com/melodist-next/internal/config"
	"github.com/melodist-next/internal/constants"
	"github.com/melodist-next/internal/logger"
	"github.com/melodist-next/internal/models"
	"github.com/melodist-next/internal/queue"
	"github.com/melodist-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PayoutService 提现工作流服务
type PayoutService struct {
	cfg           *config.Config
	userRepo      repository.UserRepository
	payoutRepo    repository.PayoutRepository
	statementRepo repository.StatementRepository
	balanceSvc    *BalanceService
	queueClient   *queue.Client
}

// NewPayoutService 创建提现工作流服务
func NewPayoutService(
	cfg *config.Config,
	userRepo repository.UserRepository,
	payoutRepo repository.PayoutRepository,
	statementRepo repository.StatementRepository,
	balanceSvc *BalanceService,
	queueClient *queue.Client,
) *PayoutService {
	return &PayoutService{
		cfg:           cfg,
		userRepo:      userRepo,
		payoutRepo:    payoutRepo,
		statementRepo: statementRepo,
		balanceSvc:    balanceSvc,
		queueClient:   queueClient,
	}
}

// RequestPayoutInput 发起提现输入
type RequestPayoutInput struct {
	UserID         uint
	Amount         models.Money
	Currency       string
	Method         string
	AccountDetails string
	StatementIDs   []uint
}

// RequestPayout 发起提现。余额校验、提现行与结算单关联写入在同一事务内完成，
// 事务内对用户行加锁作为准入锚点。提现行可能尚不存在，锁用户行才能覆盖首次提现。
func (s *PayoutService) RequestPayout(input RequestPayoutInput) (*models.Payout, error) {
	if input.UserID == 0 {
		return nil, ErrNotFound
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPayoutAmountInvalid
	}
	method, err := normalizePayoutMethod(input.Method)
	if err != nil {
		return nil, err
	}
	currency := normalizeCurrency(input.Currency)
	if minAmount := s.minPayoutAmount(); amount.LessThan(minAmount) {
		return nil, ErrPayoutBelowMinimum
	}

	var created *models.Payout
	if err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.WithTx(tx).GetByIDForUpdate(input.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNotFound
		}
		repo := s.payoutRepo.WithTx(tx)

		snapshot, err := s.balanceSvc.SnapshotInTx(tx, input.UserID, currency)
		if err != nil {
			return err
		}
		if amount.GreaterThan(snapshot.AvailableBalance.Decimal) {
			return &InsufficientBalanceError{Requested: amount, Snapshot: *snapshot}
		}

		statementIDs, err := s.resolveStatementIDs(tx, input.UserID, currency, input.StatementIDs)
		if err != nil {
			return err
		}

		now := time.Now()
		payout := &models.Payout{
			UserID:         input.UserID,
			Amount:         models.NewMoneyFromDecimal(amount),
			Currency:       currency,
			Method:         method,
			AccountDetails: strings.TrimSpace(input.AccountDetails),
			Status:         constants.PayoutStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := repo.Create(payout); err != nil {
			return err
		}

		links := make([]models.PayoutStatement, 0, len(statementIDs))
		for _, statementID := range statementIDs {
			links = append(links, models.PayoutStatement{
				PayoutID:    payout.ID,
				StatementID: statementID,
				CreatedAt:   now,
			})
		}
		if err := repo.CreateStatementLinks(links); err != nil {
			return err
		}
		created = payout
		return nil
	}); err != nil {
		return nil, err
	}

	s.enqueueStatusEmail(created)
	return created, nil
}

// CancelPayout 艺人取消自己的待处理提现
func (s *PayoutService) CancelPayout(id uint, userID uint) (*models.Payout, error) {
	if id == 0 || userID == 0 {
		return nil, ErrPayoutStateInvalid
	}
	now := time.Now()
	if err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Payout{}).
			Where("id = ? AND user_id = ? AND status = ?", id, userID, constants.PayoutStatusPending).
			Updates(map[string]interface{}{
				"status":        constants.PayoutStatusCancelled,
				"cancel_reason": constants.PayoutCancelReasonUser,
				"cancelled_at":  now,
				"updated_at":    now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPayoutStateInvalid
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s.afterTransition(id)
}

// ProcessPayout 管理员将待处理提现转入处理中
func (s *PayoutService) ProcessPayout(id uint, processorID uint, paymentReference string) (*models.Payout, error) {
	if id == 0 {
		return nil, ErrPayoutStateInvalid
	}
	now := time.Now()
	if err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Payout{}).
			Where("id = ? AND status = ?", id, constants.PayoutStatusPending).
			Updates(map[string]interface{}{
				"status":            constants.PayoutStatusProcessing,
				"processed_by":      processorID,
				"payment_reference": strings.TrimSpace(paymentReference),
				"processed_at":      now,
				"updated_at":        now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPayoutStateInvalid
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s.afterTransition(id)
}

// CompletePayout 管理员确认处理中的提现已打款
func (s *PayoutService) CompletePayout(id uint, processorID uint, transactionID string) (*models.Payout, error) {
	if id == 0 {
		return nil, ErrPayoutStateInvalid
	}
	now := time.Now()
	if err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Payout{}).
			Where("id = ? AND status = ?", id, constants.PayoutStatusProcessing).
			Updates(map[string]interface{}{
				"status":         constants.PayoutStatusCompleted,
				"processed_by":   processorID,
				"transaction_id": strings.TrimSpace(transactionID),
				"completed_at":   now,
				"updated_at":     now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPayoutStateInvalid
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s.afterTransition(id)
}

// FailPayout 管理员标记处理中的提现打款失败，对应金额重新计入可提现余额
func (s *PayoutService) FailPayout(id uint, processorID uint, reason string) (*models.Payout, error) {
	if id == 0 {
		return nil, ErrPayoutStateInvalid
	}
	now := time.Now()
	if err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Payout{}).
			Where("id = ? AND status = ?", id, constants.PayoutStatusProcessing).
			Updates(map[string]interface{}{
				"status":       constants.PayoutStatusFailed,
				"processed_by": processorID,
				"fail_reason":  strings.TrimSpace(reason),
				"failed_at":    now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPayoutStateInvalid
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s.afterTransition(id)
}

// GetPayout 查询提现详情
func (s *PayoutService) GetPayout(id uint, userID uint) (*models.Payout, error) {
	var payout *models.Payout
	var err error
	if userID == 0 {
		payout, err = s.payoutRepo.GetByID(id)
	} else {
		payout, err = s.payoutRepo.GetByIDAndUser(id, userID)
	}
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrPayoutStateInvalid
	}
	links, err := s.payoutRepo.ListStatementLinks(payout.ID)
	if err != nil {
		return nil, err
	}
	payout.Statements = links
	return payout, nil
}

// ListPayouts 分页查询提现
func (s *PayoutService) ListPayouts(filter repository.PayoutListFilter) ([]models.Payout, int64, error) {
	return s.payoutRepo.List(filter)
}

func (s *PayoutService) resolveStatementIDs(tx *gorm.DB, userID uint, currency string, statementIDs []uint) ([]uint, error) {
	seen := make(map[uint]struct{}, len(statementIDs))
	unique := make([]uint, 0, len(statementIDs))
	for _, id := range statementIDs {
		if id == 0 {
			return nil, ErrPayoutStatementInvalid
		}
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return []uint{}, nil
	}

	statements, err := s.statementRepo.WithTx(tx).ListByIDs(unique)
	if err != nil {
		return nil, err
	}
	if len(statements) != len(unique) {
		return nil, ErrPayoutStatementInvalid
	}
	for _, statement := range statements {
		if statement.UserID != userID || statement.Currency != currency {
			return nil, ErrPayoutStatementInvalid
		}
		if statement.Status != constants.StatementStatusFinalized && statement.Status != constants.StatementStatusPaid {
			return nil, ErrPayoutStatementInvalid
		}
	}
	return unique, nil
}

func (s *PayoutService) afterTransition(id uint) (*models.Payout, error) {
	payout, err := s.payoutRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrPayoutStateInvalid
	}
	s.enqueueStatusEmail(payout)
	return payout, nil
}

func (s *PayoutService) enqueueStatusEmail(payout *models.Payout) {
	if payout == nil || s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueuePayoutStatusEmail(queue.PayoutStatusEmailPayload{
		PayoutID: payout.ID,
		Status:   payout.Status,
	}); err != nil {
		logger.Warnw("payout_status_email_enqueue_failed", "payout_id", payout.ID, "status", payout.Status, "error", err)
	}
}

func (s *PayoutService) minPayoutAmount() decimal.Decimal {
	if s.cfg == nil || s.cfg.Payout.MinAmount <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(s.cfg.Payout.MinAmount).Round(2)
}

func normalizePayoutMethod(method string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(method))
	switch normalized {
	case constants.PayoutMethodBankTransfer, constants.PayoutMethodPaypal, constants.PayoutMethodPayoneer:
		return normalized, nil
	default:
		return "", ErrPayoutMethodInvalid
	}
}
