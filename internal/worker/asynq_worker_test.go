package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/melodist-next/internal/config"
	"github.com/melodist-next/internal/constants"
	"github.com/melodist-next/internal/models"
	"github.com/melodist-next/internal/provider"
	"github.com/melodist-next/internal/queue"
	"github.com/melodist-next/internal/repository"
	"github.com/melodist-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	userRepo := repository.NewUserRepository(db)
	statementRepo := repository.NewStatementRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	balanceSvc := service.NewBalanceService(statementRepo, payoutRepo)
	cfg := &config.Config{}

	container := &provider.Container{
		Config:        cfg,
		UserRepo:      userRepo,
		StatementRepo: statementRepo,
		PayoutRepo:    payoutRepo,
		PayoutService: service.NewPayoutService(cfg, userRepo, payoutRepo, statementRepo, balanceSvc, nil),
	}
	return NewConsumer(container), db
}

func payoutStatusEmailTask(t *testing.T, payload queue.PayoutStatusEmailPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return asynq.NewTask(queue.TaskPayoutStatusEmail, data)
}

func TestConsumerPayoutStatusEmail(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	now := time.Now()
	user := &models.User{
		Email:        "artist@example.com",
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	statement := &models.RoyaltyStatement{
		UserID:       user.ID,
		Platform:     constants.PlatformSpotify,
		PeriodStart:  now.AddDate(0, -2, 0),
		PeriodEnd:    now.AddDate(0, -1, 0),
		Currency:     "USD",
		GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		NetRevenue:   models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Status:       constants.StatementStatusFinalized,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(statement).Error; err != nil {
		t.Fatalf("create statement failed: %v", err)
	}
	payout, err := consumer.PayoutService.RequestPayout(service.RequestPayoutInput{
		UserID: user.ID,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		Method: constants.PayoutMethodPaypal,
	})
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	task := payoutStatusEmailTask(t, queue.PayoutStatusEmailPayload{
		PayoutID: payout.ID,
		Status:   payout.Status,
	})
	if err := consumer.handlePayoutStatusEmail(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}
}

func TestConsumerPayoutStatusEmailMissingPayout(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	// 提现不存在时任务直接完成，不触发重试
	task := payoutStatusEmailTask(t, queue.PayoutStatusEmailPayload{PayoutID: 999, Status: constants.PayoutStatusPending})
	if err := consumer.handlePayoutStatusEmail(context.Background(), task); err != nil {
		t.Fatalf("missing payout should not error: %v", err)
	}
}

func TestConsumerPayoutStatusEmailInvalidPayload(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	task := payoutStatusEmailTask(t, queue.PayoutStatusEmailPayload{PayoutID: 0})
	if err := consumer.handlePayoutStatusEmail(context.Background(), task); err != nil {
		t.Fatalf("zero payout id should be skipped: %v", err)
	}

	broken := asynq.NewTask(queue.TaskPayoutStatusEmail, []byte("{not json"))
	if err := consumer.handlePayoutStatusEmail(context.Background(), broken); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
