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

func setupStatementServiceTest(t *testing.T) (*StatementService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:statement_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.RoyaltyStatement{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	statementRepo := repository.NewStatementRepository(db)
	userRepo := repository.NewUserRepository(db)
	cfg := &config.Config{}
	cfg.Payout.StatementFinalizeGraceDays = 7
	return NewStatementService(cfg, statementRepo, userRepo), db
}

func createStatementTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	now := time.Now()
	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		ArtistName:   "Test Artist",
		Status:       constants.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func statementTestPeriod(monthsAgo int) (time.Time, time.Time) {
	end := time.Now().AddDate(0, -monthsAgo, 0)
	return end.AddDate(0, -1, 0), end
}

func TestStatementServiceCreateComputesNet(t *testing.T) {
	svc, db := setupStatementServiceTest(t)
	user := createStatementTestUser(t, db, "artist@example.com")
	start, end := statementTestPeriod(1)

	statement, err := svc.CreateStatement(CreateStatementInput{
		UserID:       user.ID,
		Platform:     "Spotify",
		PeriodStart:  start,
		PeriodEnd:    end,
		Currency:     "usd",
		GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromFloat(100.555)),
		FeeAmount:    models.NewMoneyFromDecimal(decimal.NewFromFloat(15.25)),
		StreamCount:  123456,
	})
	if err != nil {
		t.Fatalf("create statement failed: %v", err)
	}
	if statement.Platform != constants.PlatformSpotify {
		t.Fatalf("platform not normalized: %s", statement.Platform)
	}
	if statement.Currency != "USD" {
		t.Fatalf("currency not normalized: %s", statement.Currency)
	}
	if !statement.NetRevenue.Decimal.Equal(decimal.NewFromFloat(85.31)) {
		t.Fatalf("unexpected net revenue: %s", statement.NetRevenue.String())
	}
	if statement.Status != constants.StatementStatusDraft {
		t.Fatalf("unexpected initial status: %s", statement.Status)
	}
}

func TestStatementServiceCreateGeneratedFlag(t *testing.T) {
	svc, db := setupStatementServiceTest(t)
	user := createStatementTestUser(t, db, "artist@example.com")
	start, end := statementTestPeriod(1)

	statement, err := svc.CreateStatement(CreateStatementInput{
		UserID:       user.ID,
		Platform:     constants.PlatformAppleMusic,
		PeriodStart:  start,
		PeriodEnd:    end,
		GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		FeeAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		Generated:    true,
	})
	if err != nil {
		t.Fatalf("create statement failed: %v", err)
	}
	if statement.Status != constants.StatementStatusGenerated {
		t.Fatalf("expected generated status, got: %s", statement.Status)
	}
}

func TestStatementServiceDuplicatePeriod(t *testing.T) {
	svc, db := setupStatementServiceTest(t)
	user := createStatementTestUser(t, db, "artist@example.com")
	start, end := statementTestPeriod(1)

	input := CreateStatementInput{
		UserID:       user.ID,
		Platform:     constants.PlatformSpotify,
		PeriodStart:  start,
		PeriodEnd:    end,
		GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		FeeAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
	}
	if _, err := svc.CreateStatement(input); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.CreateStatement(input); !errors.Is(err, ErrStatementExists) {
		t.Fatalf("expected statement exists, got: %v", err)
	}

	// 不同平台的相同周期允许录入
	input.Platform = constants.PlatformYoutube
	if _, err := svc.CreateStatement(input); err != nil {
		t.Fatalf("other platform create failed: %v", err)
	}
}

func TestStatementServiceCreateValidation(t *testing.T) {
	svc, db := setupStatementServiceTest(t)
	user := createStatementTestUser(t, db, "artist@example.com")
	start, end := statementTestPeriod(1)

	cases := []struct {
		name    string
		input   CreateStatementInput
		wantErr error
	}{
		{
			name: "空平台",
			input: CreateStatementInput{
				UserID: user.ID, Platform: "  ", PeriodStart: start, PeriodEnd: end,
				GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			},
			wantErr: ErrStatementPlatformInvalid,
		},
		{
			name: "周期倒置",
			input: CreateStatementInput{
				UserID: user.ID, Platform: constants.PlatformSpotify, PeriodStart: end, PeriodEnd: start,
				GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			},
			wantErr: ErrStatementPeriodInvalid,
		},
		{
			name: "费用超过总收入",
			input: CreateStatementInput{
				UserID: user.ID, Platform: constants.PlatformSpotify, PeriodStart: start, PeriodEnd: end,
				GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
				FeeAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
			},
			wantErr: ErrStatementAmountInvalid,
		},
		{
			name: "负数金额",
			input: CreateStatementInput{
				UserID: user.ID, Platform: constants.PlatformSpotify, PeriodStart: start, PeriodEnd: end,
				GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromInt(-10)),
			},
			wantErr: ErrStatementAmountInvalid,
		},
		{
			name: "用户不存在",
			input: CreateStatementInput{
				UserID: 999, Platform: constants.PlatformSpotify, PeriodStart: start, PeriodEnd: end,
				GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			},
			wantErr: ErrNotFound,
		},
	}
	for _, tc := range cases {
		if _, err := svc.CreateStatement(tc.input); !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got: %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestStatementServiceLifecycle(t *testing.T) {
	svc, db := setupStatementServiceTest(t)
	user := createStatementTestUser(t, db, "artist@example.com")
	start, end := statementTestPeriod(1)

	statement, err := svc.CreateStatement(CreateStatementInput{
		UserID:       user.ID,
		Platform:     constants.PlatformSpotify,
		PeriodStart:  start,
		PeriodEnd:    end,
		GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		FeeAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
	})
	if err != nil {
		t.Fatalf("create statement failed: %v", err)
	}

	// 草稿不能直接定稿
	if _, err := svc.FinalizeStatement(statement.ID); !errors.Is(err, ErrStatementStatusInvalid) {
		t.Fatalf("expected status invalid for draft finalize, got: %v", err)
	}

	generated, err := svc.MarkGenerated(statement.ID)
	if err != nil {
		t.Fatalf("mark generated failed: %v", err)
	}
	if generated.Status != constants.StatementStatusGenerated {
		t.Fatalf("unexpected status: %s", generated.Status)
	}

	finalized, err := svc.FinalizeStatement(statement.ID)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if finalized.Status != constants.StatementStatusFinalized || finalized.FinalizedAt == nil {
		t.Fatalf("unexpected finalized statement: %+v", finalized)
	}

	paid, err := svc.MarkPaid(statement.ID, "payout-42")
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Status != constants.StatementStatusPaid || paid.PaidAt == nil || paid.PaymentReference != "payout-42" {
		t.Fatalf("unexpected paid statement: %+v", paid)
	}

	// 终态后不能重复流转
	if _, err := svc.MarkPaid(statement.ID, "again"); !errors.Is(err, ErrStatementStatusInvalid) {
		t.Fatalf("expected status invalid after paid, got: %v", err)
	}
}

func TestStatementServiceAutoFinalizeDue(t *testing.T) {
	svc, db := setupStatementServiceTest(t)
	user := createStatementTestUser(t, db, "artist@example.com")

	// 周期结束已超过宽限期
	dueStart, dueEnd := statementTestPeriod(2)
	due, err := svc.CreateStatement(CreateStatementInput{
		UserID:       user.ID,
		Platform:     constants.PlatformSpotify,
		PeriodStart:  dueStart,
		PeriodEnd:    dueEnd,
		GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Generated:    true,
	})
	if err != nil {
		t.Fatalf("create due statement failed: %v", err)
	}

	// 周期刚结束，仍在宽限期内
	recentEnd := time.Now().AddDate(0, 0, -1)
	recent, err := svc.CreateStatement(CreateStatementInput{
		UserID:       user.ID,
		Platform:     constants.PlatformAppleMusic,
		PeriodStart:  recentEnd.AddDate(0, -1, 0),
		PeriodEnd:    recentEnd,
		GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Generated:    true,
	})
	if err != nil {
		t.Fatalf("create recent statement failed: %v", err)
	}

	count, err := svc.AutoFinalizeDue()
	if err != nil {
		t.Fatalf("auto finalize failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 statement finalized, got: %d", count)
	}

	got, err := svc.GetStatement(due.ID, 0)
	if err != nil {
		t.Fatalf("get due statement failed: %v", err)
	}
	if got.Status != constants.StatementStatusFinalized {
		t.Fatalf("due statement not finalized: %s", got.Status)
	}
	got, err = svc.GetStatement(recent.ID, 0)
	if err != nil {
		t.Fatalf("get recent statement failed: %v", err)
	}
	if got.Status != constants.StatementStatusGenerated {
		t.Fatalf("recent statement should stay generated: %s", got.Status)
	}
}

func TestStatementServiceGetOwnership(t *testing.T) {
	svc, db := setupStatementServiceTest(t)
	user := createStatementTestUser(t, db, "artist@example.com")
	start, end := statementTestPeriod(1)

	statement, err := svc.CreateStatement(CreateStatementInput{
		UserID:       user.ID,
		Platform:     constants.PlatformSpotify,
		PeriodStart:  start,
		PeriodEnd:    end,
		GrossRevenue: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	})
	if err != nil {
		t.Fatalf("create statement failed: %v", err)
	}

	if _, err := svc.GetStatement(statement.ID, user.ID+1); !errors.Is(err, ErrStatementNotFound) {
		t.Fatalf("expected not found for foreign user, got: %v", err)
	}
	if _, err := svc.GetStatement(statement.ID, 0); err != nil {
		t.Fatalf("admin path get failed: %v", err)
	}
}
