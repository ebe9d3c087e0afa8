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
	"gorm.io/gorm"
)

func setupCatalogServiceTest(t *testing.T) (*CatalogService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:catalog_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Release{}, &models.Track{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	releaseRepo := repository.NewReleaseRepository(db)
	trackRepo := repository.NewTrackRepository(db)
	validator := NewMetadataValidator(DefaultMetadataRuleSet(), NewCatalogUniquenessChecker(releaseRepo, trackRepo))
	return NewCatalogService(releaseRepo, trackRepo, validator), db
}

func catalogTestReleaseInput() ReleaseInput {
	releaseDate := time.Now().AddDate(0, 0, 30)
	return ReleaseInput{
		Title:         "Midnight Sessions",
		ReleaseType:   constants.ReleaseTypeAlbum,
		PrimaryArtist: "Test Artist",
		LabelName:     "Indie Label",
		UPC:           "123456789012",
		Genre:         "pop",
		Language:      "en",
		ReleaseDate:   &releaseDate,
		ArtworkURL:    "https://cdn.example.com/artwork.jpg",
		ArtworkWidth:  3000,
		ArtworkHeight: 3000,
		ArtworkFormat: "jpg",
	}
}

func catalogTestTrackInput(number int) TrackInput {
	return TrackInput{
		Title:           fmt.Sprintf("Track %d", number),
		ISRC:            fmt.Sprintf("USRC1760783%d", number),
		TrackNumber:     number,
		DurationSeconds: 180,
		Language:        "en",
		AudioURL:        "https://cdn.example.com/audio.wav",
	}
}

func TestCatalogServiceCreateRelease(t *testing.T) {
	svc, _ := setupCatalogServiceTest(t)

	input := catalogTestReleaseInput()
	input.ReleaseType = "Album"
	release, err := svc.CreateRelease(1, input)
	if err != nil {
		t.Fatalf("create release failed: %v", err)
	}
	if release.Status != constants.ReleaseStatusDraft {
		t.Fatalf("new release should be draft, got: %s", release.Status)
	}
	if release.ReleaseType != constants.ReleaseTypeAlbum {
		t.Fatalf("release type not normalized: %s", release.ReleaseType)
	}
}

func TestCatalogServiceReleaseTypeValidation(t *testing.T) {
	svc, _ := setupCatalogServiceTest(t)

	// 缺省按 single 处理
	input := catalogTestReleaseInput()
	input.ReleaseType = ""
	release, err := svc.CreateRelease(1, input)
	if err != nil {
		t.Fatalf("create release failed: %v", err)
	}
	if release.ReleaseType != constants.ReleaseTypeSingle {
		t.Fatalf("empty type should default to single, got: %s", release.ReleaseType)
	}

	// 未知类型直接拒绝
	input = catalogTestReleaseInput()
	input.UPC = ""
	input.ReleaseType = "mixtape"
	if _, err := svc.CreateRelease(1, input); !errors.Is(err, ErrReleaseTypeInvalid) {
		t.Fatalf("expected release type invalid, got: %v", err)
	}

	input = catalogTestReleaseInput()
	input.UPC = ""
	input.ReleaseType = constants.ReleaseTypeEP
	release, err = svc.CreateRelease(1, input)
	if err != nil {
		t.Fatalf("create ep release failed: %v", err)
	}
	input.ReleaseType = "bootleg"
	if _, err := svc.UpdateRelease(release.ID, 1, input); !errors.Is(err, ErrReleaseTypeInvalid) {
		t.Fatalf("expected release type invalid on update, got: %v", err)
	}
}

func TestCatalogServiceGetReleaseOwnership(t *testing.T) {
	svc, _ := setupCatalogServiceTest(t)

	release, err := svc.CreateRelease(1, catalogTestReleaseInput())
	if err != nil {
		t.Fatalf("create release failed: %v", err)
	}

	if _, err := svc.GetRelease(release.ID, 2); !errors.Is(err, ErrReleaseNotFound) {
		t.Fatalf("expected not found for foreign user, got: %v", err)
	}
	if _, err := svc.GetRelease(release.ID, 0); err != nil {
		t.Fatalf("admin path get failed: %v", err)
	}
}

func TestCatalogServiceUpdateBlockedAfterLive(t *testing.T) {
	svc, db := setupCatalogServiceTest(t)

	release, err := svc.CreateRelease(1, catalogTestReleaseInput())
	if err != nil {
		t.Fatalf("create release failed: %v", err)
	}
	if err := db.Model(&models.Release{}).Where("id = ?", release.ID).
		Update("status", constants.ReleaseStatusLive).Error; err != nil {
		t.Fatalf("mark live failed: %v", err)
	}

	if _, err := svc.UpdateRelease(release.ID, 1, catalogTestReleaseInput()); !errors.Is(err, ErrReleaseStatusInvalid) {
		t.Fatalf("expected status invalid for live release, got: %v", err)
	}
	if _, err := svc.AddTrack(release.ID, 1, catalogTestTrackInput(1)); !errors.Is(err, ErrReleaseStatusInvalid) {
		t.Fatalf("expected status invalid for live release track add, got: %v", err)
	}
}

func TestCatalogServiceSubmitInvalidMetadata(t *testing.T) {
	svc, _ := setupCatalogServiceTest(t)

	input := catalogTestReleaseInput()
	input.Title = ""
	release, err := svc.CreateRelease(1, input)
	if err != nil {
		t.Fatalf("create release failed: %v", err)
	}

	_, report, err := svc.SubmitRelease(release.ID, 1, nil)
	if !errors.Is(err, ErrMetadataInvalid) {
		t.Fatalf("expected metadata invalid, got: %v", err)
	}
	if report == nil || report.Release == nil || len(report.Release.Errors) == 0 {
		t.Fatalf("expected validation report with errors, got: %+v", report)
	}

	got, err := svc.GetRelease(release.ID, 1)
	if err != nil {
		t.Fatalf("get release failed: %v", err)
	}
	if got.Status != constants.ReleaseStatusDraft {
		t.Fatalf("failed submit should keep draft, got: %s", got.Status)
	}
	if got.MetadataScore != report.Release.Score {
		t.Fatalf("score not written back: %d vs %d", got.MetadataScore, report.Release.Score)
	}
}

func TestCatalogServiceSubmitValid(t *testing.T) {
	svc, _ := setupCatalogServiceTest(t)

	release, err := svc.CreateRelease(1, catalogTestReleaseInput())
	if err != nil {
		t.Fatalf("create release failed: %v", err)
	}
	if _, err := svc.AddTrack(release.ID, 1, catalogTestTrackInput(1)); err != nil {
		t.Fatalf("add track failed: %v", err)
	}

	submitted, report, err := svc.SubmitRelease(release.ID, 1, []string{constants.PlatformSpotify})
	if err != nil {
		t.Fatalf("submit failed: %v (report: %+v)", err, report)
	}
	if submitted.Status != constants.ReleaseStatusSubmitted {
		t.Fatalf("unexpected status: %s", submitted.Status)
	}
	if submitted.MetadataScore == 0 {
		t.Fatalf("metadata score not written")
	}

	// 已提交的发行物不能再次提交
	if _, _, err := svc.SubmitRelease(release.ID, 1, nil); !errors.Is(err, ErrReleaseStatusInvalid) {
		t.Fatalf("expected status invalid on resubmit, got: %v", err)
	}
}

func TestCatalogServiceValidateWritesTrackScores(t *testing.T) {
	svc, db := setupCatalogServiceTest(t)

	release, err := svc.CreateRelease(1, catalogTestReleaseInput())
	if err != nil {
		t.Fatalf("create release failed: %v", err)
	}
	track, err := svc.AddTrack(release.ID, 1, catalogTestTrackInput(1))
	if err != nil {
		t.Fatalf("add track failed: %v", err)
	}

	report, err := svc.ValidateRelease(release.ID, 1, nil)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	result, ok := report.Tracks[track.ID]
	if !ok {
		t.Fatalf("track result missing from report")
	}

	var stored models.Track
	if err := db.First(&stored, track.ID).Error; err != nil {
		t.Fatalf("load track failed: %v", err)
	}
	if stored.MetadataScore != result.Score {
		t.Fatalf("track score not written back: %d vs %d", stored.MetadataScore, result.Score)
	}
}

func TestCatalogServiceDuplicateUPCAcrossReleases(t *testing.T) {
	svc, _ := setupCatalogServiceTest(t)

	if _, err := svc.CreateRelease(1, catalogTestReleaseInput()); err != nil {
		t.Fatalf("create first release failed: %v", err)
	}
	second, err := svc.CreateRelease(2, catalogTestReleaseInput())
	if err != nil {
		t.Fatalf("create second release failed: %v", err)
	}

	report, err := svc.ValidateRelease(second.ID, 2, nil)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	found := false
	for _, issue := range report.Release.Errors {
		if issue.Field == "upc" && issue.Code == "duplicate" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected duplicate upc error, got: %+v", report.Release.Errors)
	}
}
