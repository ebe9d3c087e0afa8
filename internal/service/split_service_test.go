package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/melodist-next/internal/constants"
	"github.com/melodist-next/internal/models"
	"github.com/melodist-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupSplitServiceTest(t *testing.T) (*SplitService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:split_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Release{},
		&models.Track{},
		&models.CollaboratorSplit{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	splitRepo := repository.NewSplitRepository(db)
	releaseRepo := repository.NewReleaseRepository(db)
	trackRepo := repository.NewTrackRepository(db)
	return NewSplitService(splitRepo, releaseRepo, trackRepo), db
}

func createSplitTestRelease(t *testing.T, db *gorm.DB, userID uint) *models.Release {
	t.Helper()
	now := time.Now()
	release := &models.Release{
		UserID:        userID,
		Title:         "Midnight Sessions",
		ReleaseType:   constants.ReleaseTypeSingle,
		PrimaryArtist: "Test Artist",
		Status:        constants.ReleaseStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Create(release).Error; err != nil {
		t.Fatalf("create release failed: %v", err)
	}
	return release
}

func createSplitTestTrack(t *testing.T, db *gorm.DB, releaseID, userID uint) *models.Track {
	t.Helper()
	now := time.Now()
	track := &models.Track{
		ReleaseID:       releaseID,
		UserID:          userID,
		Title:           "Track One",
		TrackNumber:     1,
		DurationSeconds: 180,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.Create(track).Error; err != nil {
		t.Fatalf("create track failed: %v", err)
	}
	return track
}

func TestSplitServiceAddSplitRoundsPercentage(t *testing.T) {
	svc, db := setupSplitServiceTest(t)
	release := createSplitTestRelease(t, db, 1)

	split, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeRelease,
		ScopeID:          release.ID,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      1,
		CollaboratorName: "Producer A",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromFloat(33.333)),
	})
	if err != nil {
		t.Fatalf("add split failed: %v", err)
	}
	if !split.Percentage.Decimal.Equal(decimal.NewFromFloat(33.3)) {
		t.Fatalf("percentage not rounded to one decimal: %s", split.Percentage.String())
	}
}

func TestSplitServiceAllocationExceeded(t *testing.T) {
	svc, db := setupSplitServiceTest(t)
	release := createSplitTestRelease(t, db, 1)

	if _, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeRelease,
		ScopeID:          release.ID,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      1,
		CollaboratorName: "Producer A",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(60)),
	}); err != nil {
		t.Fatalf("first split failed: %v", err)
	}

	_, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeRelease,
		ScopeID:          release.ID,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      1,
		CollaboratorName: "Producer B",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(50)),
	})
	if !errors.Is(err, ErrSplitAllocationExceeded) {
		t.Fatalf("expected allocation exceeded, got: %v", err)
	}
	var allocErr *AllocationExceededError
	if !errors.As(err, &allocErr) {
		t.Fatalf("expected AllocationExceededError, got: %T", err)
	}
	if !allocErr.Available.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected available headroom: %s", allocErr.Available.String())
	}
}

func TestSplitServiceAllocationIndependentPerTypeAndScope(t *testing.T) {
	svc, db := setupSplitServiceTest(t)
	release := createSplitTestRelease(t, db, 1)
	track := createSplitTestTrack(t, db, release.ID, 1)

	// 同一发行物的 master 分成占满 100%
	if _, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeRelease,
		ScopeID:          release.ID,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      1,
		CollaboratorName: "Producer A",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(100)),
	}); err != nil {
		t.Fatalf("master split failed: %v", err)
	}

	// publishing 类型与 track 范围各自独立计算
	if _, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeRelease,
		ScopeID:          release.ID,
		SplitType:        constants.SplitTypePublishing,
		OwnerUserID:      1,
		CollaboratorName: "Writer A",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(100)),
	}); err != nil {
		t.Fatalf("publishing split failed: %v", err)
	}
	if _, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeTrack,
		ScopeID:          track.ID,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      1,
		CollaboratorName: "Featured Artist",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(50)),
	}); err != nil {
		t.Fatalf("track split failed: %v", err)
	}
}

func TestSplitServiceScopeOwnership(t *testing.T) {
	svc, db := setupSplitServiceTest(t)
	release := createSplitTestRelease(t, db, 1)

	_, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeRelease,
		ScopeID:          release.ID,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      2,
		CollaboratorName: "Producer A",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(10)),
	})
	if !errors.Is(err, ErrReleaseNotFound) {
		t.Fatalf("expected release not found for foreign owner, got: %v", err)
	}
}

func TestSplitServiceFirstSplitOnEmptyScope(t *testing.T) {
	svc, db := setupSplitServiceTest(t)
	release := createSplitTestRelease(t, db, 1)
	track := createSplitTestTrack(t, db, release.ID, 1)

	// 范围首条分成没有既有分成行，准入依赖发行物/曲目行锁
	split, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeTrack,
		ScopeID:          track.ID,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      1,
		CollaboratorName: "Producer A",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(60)),
	})
	if err != nil {
		t.Fatalf("first split failed: %v", err)
	}
	if !split.Percentage.Decimal.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected percentage: %s", split.Percentage.String())
	}

	// 首条之后上限立即生效
	if _, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeTrack,
		ScopeID:          track.ID,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      1,
		CollaboratorName: "Producer B",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(50)),
	}); !errors.Is(err, ErrSplitAllocationExceeded) {
		t.Fatalf("expected allocation exceeded, got: %v", err)
	}
}

func TestSplitServiceScopeMissing(t *testing.T) {
	svc, db := setupSplitServiceTest(t)
	release := createSplitTestRelease(t, db, 1)
	track := createSplitTestTrack(t, db, release.ID, 1)

	if _, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeRelease,
		ScopeID:          999,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      1,
		CollaboratorName: "Producer A",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(10)),
	}); !errors.Is(err, ErrReleaseNotFound) {
		t.Fatalf("expected release not found, got: %v", err)
	}

	if _, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeTrack,
		ScopeID:          track.ID,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      2,
		CollaboratorName: "Producer A",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(10)),
	}); !errors.Is(err, ErrTrackNotFound) {
		t.Fatalf("expected track not found for foreign owner, got: %v", err)
	}
}

func TestSplitServicePercentageBounds(t *testing.T) {
	svc, db := setupSplitServiceTest(t)
	release := createSplitTestRelease(t, db, 1)

	for _, percentage := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5), decimal.NewFromFloat(100.1)} {
		_, err := svc.AddSplit(AddSplitInput{
			ScopeType:        constants.SplitScopeRelease,
			ScopeID:          release.ID,
			SplitType:        constants.SplitTypeMaster,
			OwnerUserID:      1,
			CollaboratorName: "Producer A",
			Percentage:       models.NewPercentFromDecimal(percentage),
		})
		if !errors.Is(err, ErrSplitPercentageInvalid) {
			t.Fatalf("expected percentage invalid for %s, got: %v", percentage.String(), err)
		}
	}
}

func TestSplitServiceRemoveDoesNotRebalance(t *testing.T) {
	svc, db := setupSplitServiceTest(t)
	release := createSplitTestRelease(t, db, 1)

	first, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeRelease,
		ScopeID:          release.ID,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      1,
		CollaboratorName: "Producer A",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(60)),
	})
	if err != nil {
		t.Fatalf("first split failed: %v", err)
	}
	if _, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeRelease,
		ScopeID:          release.ID,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      1,
		CollaboratorName: "Producer B",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(30)),
	}); err != nil {
		t.Fatalf("second split failed: %v", err)
	}

	if err := svc.RemoveSplit(first.ID, 1); err != nil {
		t.Fatalf("remove split failed: %v", err)
	}

	allocation, err := svc.GetAllocation(constants.SplitScopeRelease, release.ID, constants.SplitTypeMaster)
	if err != nil {
		t.Fatalf("get allocation failed: %v", err)
	}
	if !allocation.Allocated.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("remaining split should keep its percentage, got allocated: %s", allocation.Allocated.String())
	}
	if !allocation.Available.Decimal.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("unexpected available after removal: %s", allocation.Available.String())
	}
}

func TestSplitServiceRemoveForeignOwner(t *testing.T) {
	svc, db := setupSplitServiceTest(t)
	release := createSplitTestRelease(t, db, 1)

	split, err := svc.AddSplit(AddSplitInput{
		ScopeType:        constants.SplitScopeRelease,
		ScopeID:          release.ID,
		SplitType:        constants.SplitTypeMaster,
		OwnerUserID:      1,
		CollaboratorName: "Producer A",
		Percentage:       models.NewPercentFromDecimal(decimal.NewFromInt(10)),
	})
	if err != nil {
		t.Fatalf("add split failed: %v", err)
	}

	if err := svc.RemoveSplit(split.ID, 2); !errors.Is(err, ErrSplitNotFound) {
		t.Fatalf("expected split not found for foreign owner, got: %v", err)
	}
}
