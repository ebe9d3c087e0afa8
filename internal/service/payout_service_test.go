package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/melodist-next/internal/config"
	"github.com/melodist-next/internal/constants"
	"github.com/melodist-next/internal/models"
	"github.com/melodist-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPayoutServiceTest(t *testing.T) (*PayoutService, *BalanceService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:payout_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.RoyaltyStatement{},
		&models.Payout{},
		&models.PayoutStatement{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	// 准入以用户行为锁锚点，提现人必须真实存在
	now := time.Now()
	user := &models.User{
		Email:        "payout-artist@example.com",
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	statementRepo := repository.NewStatementRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	balanceSvc := NewBalanceService(statementRepo, payoutRepo)
	cfg := &config.Config{}
	cfg.Payout.MinAmount = 10
	return NewPayoutService(cfg, userRepo, payoutRepo, statementRepo, balanceSvc, nil), balanceSvc, db
}

func createPayoutTestStatement(t *testing.T, db *gorm.DB, userID uint, net decimal.Decimal, status string) *models.RoyaltyStatement {
	t.Helper()
	now := time.Now()
	statement := &models.RoyaltyStatement{
		UserID:       userID,
		Platform:     "spotify",
		PeriodStart:  now.AddDate(0, -2, 0),
		PeriodEnd:    now.AddDate(0, -1, 0).Add(time.Duration(userID) * time.Second),
		Currency:     "USD",
		GrossRevenue: models.NewMoneyFromDecimal(net),
		FeeAmount:    models.NewMoneyFromDecimal(decimal.Zero),
		NetRevenue:   models.NewMoneyFromDecimal(net),
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(statement).Error; err != nil {
		t.Fatalf("create statement failed: %v", err)
	}
	return statement
}

func TestPayoutServiceRequestPayout(t *testing.T) {
	svc, _, db := setupPayoutServiceTest(t)
	statement := createPayoutTestStatement(t, db, 1, decimal.NewFromInt(200), constants.StatementStatusFinalized)

	payout, err := svc.RequestPayout(RequestPayoutInput{
		UserID:       1,
		Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(150)),
		Currency:     "usd",
		Method:       "PayPal",
		StatementIDs: []uint{statement.ID},
	})
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}
	if payout.Status != constants.PayoutStatusPending {
		t.Fatalf("unexpected status: %s", payout.Status)
	}
	if payout.Currency != "USD" || payout.Method != constants.PayoutMethodPaypal {
		t.Fatalf("currency or method not normalized: %s %s", payout.Currency, payout.Method)
	}

	got, err := svc.GetPayout(payout.ID, 1)
	if err != nil {
		t.Fatalf("get payout failed: %v", err)
	}
	if len(got.Statements) != 1 || got.Statements[0].StatementID != statement.ID {
		t.Fatalf("statement link missing: %+v", got.Statements)
	}
}

func TestPayoutServiceFirstPayoutWithoutPriorRows(t *testing.T) {
	svc, balanceSvc, db := setupPayoutServiceTest(t)
	createPayoutTestStatement(t, db, 1, decimal.NewFromInt(100), constants.StatementStatusFinalized)

	// 首次提现没有既有提现行，准入依赖用户行锁
	var count int64
	if err := db.Model(&models.Payout{}).Where("user_id = ?", 1).Count(&count).Error; err != nil {
		t.Fatalf("count payouts failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no prior payout rows, got: %d", count)
	}

	payout, err := svc.RequestPayout(RequestPayoutInput{
		UserID: 1,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(70)),
		Method: constants.PayoutMethodPaypal,
	})
	if err != nil {
		t.Fatalf("first payout failed: %v", err)
	}
	if payout.Status != constants.PayoutStatusPending {
		t.Fatalf("unexpected status: %s", payout.Status)
	}

	// 剩余额度不足以再次提现 50
	if _, err := svc.RequestPayout(RequestPayoutInput{
		UserID: 1,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		Method: constants.PayoutMethodPaypal,
	}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance after first payout, got: %v", err)
	}

	snapshot, err := balanceSvc.GetAvailableBalance(1, "USD")
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !snapshot.AvailableBalance.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected available balance: %s", snapshot.AvailableBalance.String())
	}
}

func TestPayoutServiceRequestPayoutUnknownUser(t *testing.T) {
	svc, _, db := setupPayoutServiceTest(t)
	createPayoutTestStatement(t, db, 1, decimal.NewFromInt(100), constants.StatementStatusFinalized)

	_, err := svc.RequestPayout(RequestPayoutInput{
		UserID: 999,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		Method: constants.PayoutMethodPaypal,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown user, got: %v", err)
	}
}

func TestPayoutServiceInsufficientBalance(t *testing.T) {
	svc, _, db := setupPayoutServiceTest(t)
	createPayoutTestStatement(t, db, 1, decimal.NewFromInt(50), constants.StatementStatusFinalized)

	_, err := svc.RequestPayout(RequestPayoutInput{
		UserID: 1,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(80)),
		Method: constants.PayoutMethodPaypal,
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got: %v", err)
	}
	var balanceErr *InsufficientBalanceError
	if !errors.As(err, &balanceErr) {
		t.Fatalf("expected InsufficientBalanceError, got: %T", err)
	}
	if !balanceErr.Snapshot.AvailableBalance.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected snapshot balance: %s", balanceErr.Snapshot.AvailableBalance.String())
	}
}

func TestPayoutServicePendingHoldsBalance(t *testing.T) {
	svc, balanceSvc, db := setupPayoutServiceTest(t)
	createPayoutTestStatement(t, db, 1, decimal.NewFromInt(100), constants.StatementStatusFinalized)

	if _, err := svc.RequestPayout(RequestPayoutInput{
		UserID: 1,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(60)),
		Method: constants.PayoutMethodPaypal,
	}); err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	snapshot, err := balanceSvc.GetAvailableBalance(1, "USD")
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !snapshot.AvailableBalance.Decimal.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("pending payout should hold balance, got: %s", snapshot.AvailableBalance.String())
	}

	// 余额不足以再次申请 60
	_, err = svc.RequestPayout(RequestPayoutInput{
		UserID: 1,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(60)),
		Method: constants.PayoutMethodPaypal,
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance for second request, got: %v", err)
	}
}

func TestPayoutServiceBelowMinimum(t *testing.T) {
	svc, _, db := setupPayoutServiceTest(t)
	createPayoutTestStatement(t, db, 1, decimal.NewFromInt(100), constants.StatementStatusFinalized)

	_, err := svc.RequestPayout(RequestPayoutInput{
		UserID: 1,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		Method: constants.PayoutMethodPaypal,
	})
	if !errors.Is(err, ErrPayoutBelowMinimum) {
		t.Fatalf("expected below minimum, got: %v", err)
	}
}

func TestPayoutServiceStatementReferenceValidation(t *testing.T) {
	svc, _, db := setupPayoutServiceTest(t)
	createPayoutTestStatement(t, db, 1, decimal.NewFromInt(100), constants.StatementStatusFinalized)
	draft := createPayoutTestStatement(t, db, 2, decimal.NewFromInt(100), constants.StatementStatusDraft)

	// 引用他人或未定稿的结算单
	_, err := svc.RequestPayout(RequestPayoutInput{
		UserID:       1,
		Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		Method:       constants.PayoutMethodPaypal,
		StatementIDs: []uint{draft.ID},
	})
	if !errors.Is(err, ErrPayoutStatementInvalid) {
		t.Fatalf("expected statement invalid, got: %v", err)
	}
}

func TestPayoutServiceCancel(t *testing.T) {
	svc, balanceSvc, db := setupPayoutServiceTest(t)
	createPayoutTestStatement(t, db, 1, decimal.NewFromInt(100), constants.StatementStatusFinalized)

	payout, err := svc.RequestPayout(RequestPayoutInput{
		UserID: 1,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(60)),
		Method: constants.PayoutMethodPaypal,
	})
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	cancelled, err := svc.CancelPayout(payout.ID, 1)
	if err != nil {
		t.Fatalf("cancel payout failed: %v", err)
	}
	if cancelled.Status != constants.PayoutStatusCancelled || cancelled.CancelReason != constants.PayoutCancelReasonUser {
		t.Fatalf("unexpected cancelled payout: %+v", cancelled)
	}

	snapshot, err := balanceSvc.GetAvailableBalance(1, "USD")
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !snapshot.AvailableBalance.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("cancelled payout should release balance, got: %s", snapshot.AvailableBalance.String())
	}

	// 他人不能取消
	other, err := svc.RequestPayout(RequestPayoutInput{
		UserID: 1,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
		Method: constants.PayoutMethodPaypal,
	})
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}
	if _, err := svc.CancelPayout(other.ID, 2); !errors.Is(err, ErrPayoutStateInvalid) {
		t.Fatalf("expected state invalid for foreign cancel, got: %v", err)
	}
}

func TestPayoutServiceProcessCompleteFlow(t *testing.T) {
	svc, _, db := setupPayoutServiceTest(t)
	createPayoutTestStatement(t, db, 1, decimal.NewFromInt(100), constants.StatementStatusFinalized)

	payout, err := svc.RequestPayout(RequestPayoutInput{
		UserID: 1,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(60)),
		Method: constants.PayoutMethodPaypal,
	})
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	// processing 之前不能 complete
	if _, err := svc.CompletePayout(payout.ID, 9, "txn-1"); !errors.Is(err, ErrPayoutStateInvalid) {
		t.Fatalf("expected state invalid before processing, got: %v", err)
	}

	processing, err := svc.ProcessPayout(payout.ID, 9, "ref-1")
	if err != nil {
		t.Fatalf("process payout failed: %v", err)
	}
	if processing.Status != constants.PayoutStatusProcessing || processing.PaymentReference != "ref-1" {
		t.Fatalf("unexpected processing payout: %+v", processing)
	}

	completed, err := svc.CompletePayout(payout.ID, 9, "txn-1")
	if err != nil {
		t.Fatalf("complete payout failed: %v", err)
	}
	if completed.Status != constants.PayoutStatusCompleted || completed.TransactionID != "txn-1" {
		t.Fatalf("unexpected completed payout: %+v", completed)
	}

	// 完成后不能再取消
	if _, err := svc.CancelPayout(payout.ID, 1); !errors.Is(err, ErrPayoutStateInvalid) {
		t.Fatalf("expected state invalid after completion, got: %v", err)
	}
}

func TestPayoutServiceFailReleasesBalance(t *testing.T) {
	svc, balanceSvc, db := setupPayoutServiceTest(t)
	createPayoutTestStatement(t, db, 1, decimal.NewFromInt(100), constants.StatementStatusFinalized)

	payout, err := svc.RequestPayout(RequestPayoutInput{
		UserID: 1,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(60)),
		Method: constants.PayoutMethodPaypal,
	})
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}
	if _, err := svc.ProcessPayout(payout.ID, 9, ""); err != nil {
		t.Fatalf("process payout failed: %v", err)
	}

	failed, err := svc.FailPayout(payout.ID, 9, "银行账户无效")
	if err != nil {
		t.Fatalf("fail payout failed: %v", err)
	}
	if failed.Status != constants.PayoutStatusFailed || failed.FailReason != "银行账户无效" {
		t.Fatalf("unexpected failed payout: %+v", failed)
	}

	snapshot, err := balanceSvc.GetAvailableBalance(1, "USD")
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !snapshot.AvailableBalance.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("failed payout should release balance, got: %s", snapshot.AvailableBalance.String())
	}
}

func TestPayoutServiceMethodValidation(t *testing.T) {
	svc, _, db := setupPayoutServiceTest(t)
	createPayoutTestStatement(t, db, 1, decimal.NewFromInt(100), constants.StatementStatusFinalized)

	_, err := svc.RequestPayout(RequestPayoutInput{
		UserID: 1,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		Method: "cash",
	})
	if !errors.Is(err, ErrPayoutMethodInvalid) {
		t.Fatalf("expected method invalid, got: %v", err)
	}
}
