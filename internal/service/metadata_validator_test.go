package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/melodist-next/internal/constants"
)

type stubUniquenessChecker struct {
	upcExists  bool
	isrcExists bool
}

func (s *stubUniquenessChecker) UPCExists(upc string, excludeReleaseID uint) (bool, error) {
	return s.upcExists, nil
}

func (s *stubUniquenessChecker) ISRCExists(isrc string, excludeTrackID uint) (bool, error) {
	return s.isrcExists, nil
}

func newTestValidator(checker UniquenessChecker) *MetadataValidator {
	return NewMetadataValidator(DefaultMetadataRuleSet(), checker)
}

func validReleaseFields() map[string]interface{} {
	return map[string]interface{}{
		"title":          "Midnight Sessions",
		"primary_artist": "Test Artist",
		"release_type":   constants.ReleaseTypeSingle,
		"release_date":   time.Now().AddDate(0, 0, 30),
		"genre":          "pop",
		"language":       "en",
		"artwork_url":    "https://cdn.example.com/artwork.jpg",
		"upc":            "123456789012",
		"label_name":     "Indie Label",
	}
}

func TestMetadataValidatorBrokenRulePattern(t *testing.T) {
	rules := MetadataRuleSet{
		Base: map[string][]MetadataRule{
			constants.ValidationEntityRelease: {
				{Field: "upc", Regex: "([0-9]"},
			},
		},
	}
	validator := NewMetadataValidator(rules, nil)

	// 无法编译的规则必须报错，而不是让字段悄悄失去校验
	_, err := validator.Validate(constants.ValidationEntityRelease, 0, map[string]interface{}{"upc": "123456789012"}, nil)
	if !errors.Is(err, ErrMetadataRuleInvalid) {
		t.Fatalf("expected metadata rule invalid, got: %v", err)
	}

	// 不支持的正则修饰符同样按规则错误处理
	rules.Base[constants.ValidationEntityRelease] = []MetadataRule{
		{Field: "upc", Regex: "/[0-9]+/x"},
	}
	validator = NewMetadataValidator(rules, nil)
	if _, err := validator.Validate(constants.ValidationEntityRelease, 0, map[string]interface{}{"upc": "123456789012"}, nil); !errors.Is(err, ErrMetadataRuleInvalid) {
		t.Fatalf("expected metadata rule invalid for bad flag, got: %v", err)
	}
}

func TestMetadataValidatorValidRelease(t *testing.T) {
	validator := newTestValidator(nil)

	result, err := validator.Validate(constants.ValidationEntityRelease, 0, validReleaseFields(), nil)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid, errors: %+v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got: %+v", result.Warnings)
	}
	// 可选字段加分后评分封顶 100
	if result.Score != 100 {
		t.Fatalf("expected score 100, got: %d", result.Score)
	}
}

func TestMetadataValidatorScoreDeterministic(t *testing.T) {
	validator := newTestValidator(nil)

	// 标题缺失与未知发行类型各扣 10，三个建议字段缺失各扣 5
	result, err := validator.Validate(constants.ValidationEntityRelease, 0, map[string]interface{}{
		"primary_artist": "Test Artist",
		"release_type":   "mixtape",
		"release_date":   time.Now().AddDate(0, 0, 30),
	}, nil)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	if len(result.Errors) != 2 || len(result.Warnings) != 3 {
		t.Fatalf("unexpected issue counts: %d errors, %d warnings", len(result.Errors), len(result.Warnings))
	}
	if result.Score != 65 {
		t.Fatalf("expected score 65, got: %d", result.Score)
	}
}

func TestMetadataValidatorWarningsOnlyStayValid(t *testing.T) {
	validator := newTestValidator(nil)

	fields := validReleaseFields()
	delete(fields, "genre")
	delete(fields, "language")
	delete(fields, "artwork_url")

	result, err := validator.Validate(constants.ValidationEntityRelease, 0, fields, nil)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("warnings should not invalidate, errors: %+v", result.Errors)
	}
	if len(result.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got: %+v", result.Warnings)
	}
	// 100 - 15 + 两个可选字段(upc/label_name)各加 2
	if result.Score != 89 {
		t.Fatalf("expected score 89, got: %d", result.Score)
	}
}

func TestMetadataValidatorSpotifyOverlay(t *testing.T) {
	validator := newTestValidator(nil)

	fields := validReleaseFields()
	fields["title"] = strings.Repeat("a", 120)
	fields["release_date"] = time.Now().AddDate(0, 0, 2)
	fields["artwork_width"] = 1000
	fields["artwork_height"] = 1000
	fields["artwork_format"] = "jpg"

	result, err := validator.Validate(constants.ValidationEntityRelease, 0, fields, []string{constants.PlatformSpotify})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 platform errors, got: %+v", result.Errors)
	}
	for _, issue := range result.Errors {
		if issue.Platform != constants.PlatformSpotify {
			t.Fatalf("expected spotify platform issue, got: %+v", issue)
		}
	}
}

func TestMetadataValidatorAppleMusicRequiresUPC(t *testing.T) {
	validator := newTestValidator(nil)

	fields := validReleaseFields()
	delete(fields, "upc")
	fields["artwork_width"] = 3000
	fields["artwork_height"] = 3000
	fields["artwork_format"] = "png"

	result, err := validator.Validate(constants.ValidationEntityRelease, 0, fields, []string{constants.PlatformAppleMusic})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	found := false
	for _, issue := range result.Errors {
		if issue.Field == "upc" && issue.Code == "required" && issue.Platform == constants.PlatformAppleMusic {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected apple_music upc required error, got: %+v", result.Errors)
	}
}

func TestMetadataValidatorSpotifyTrackRequiresISRC(t *testing.T) {
	validator := newTestValidator(nil)

	fields := map[string]interface{}{
		"title":            "Track One",
		"duration_seconds": 180,
		"track_number":     1,
		"language":         "en",
		"audio_url":        "https://cdn.example.com/audio.wav",
	}

	// 基础规则不强制 ISRC
	result, err := validator.Validate(constants.ValidationEntityTrack, 0, fields, nil)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("base rules should accept missing isrc, errors: %+v", result.Errors)
	}

	result, err = validator.Validate(constants.ValidationEntityTrack, 0, fields, []string{constants.PlatformSpotify})
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Valid {
		t.Fatalf("spotify should require isrc")
	}
}

func TestMetadataValidatorCodePatterns(t *testing.T) {
	validator := newTestValidator(nil)

	fields := validReleaseFields()
	fields["upc"] = "12345"
	result, err := validator.Validate(constants.ValidationEntityRelease, 0, fields, nil)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected invalid upc pattern")
	}

	trackFields := map[string]interface{}{
		"title":            "Track One",
		"duration_seconds": 180,
		"track_number":     1,
		"language":         "en",
		"audio_url":        "https://cdn.example.com/audio.wav",
		"isrc":             "usrc17607839",
	}
	result, err = validator.Validate(constants.ValidationEntityTrack, 0, trackFields, nil)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected invalid isrc pattern for lowercase code")
	}

	trackFields["isrc"] = "USRC17607839"
	result, err = validator.Validate(constants.ValidationEntityTrack, 0, trackFields, nil)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid isrc, errors: %+v", result.Errors)
	}
}

func TestMetadataValidatorDuplicateCodes(t *testing.T) {
	validator := newTestValidator(&stubUniquenessChecker{upcExists: true, isrcExists: true})

	result, err := validator.Validate(constants.ValidationEntityRelease, 1, validReleaseFields(), nil)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected duplicate upc error")
	}
	if result.Errors[0].Field != "upc" || result.Errors[0].Code != "duplicate" {
		t.Fatalf("unexpected error: %+v", result.Errors[0])
	}

	trackFields := map[string]interface{}{
		"title":            "Track One",
		"duration_seconds": 180,
		"track_number":     1,
		"language":         "en",
		"audio_url":        "https://cdn.example.com/audio.wav",
		"isrc":             "USRC17607839",
	}
	result, err = validator.Validate(constants.ValidationEntityTrack, 2, trackFields, nil)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected duplicate isrc error")
	}
}

func TestMetadataValidatorUnknownEntity(t *testing.T) {
	validator := newTestValidator(nil)

	if _, err := validator.Validate("playlist", 0, map[string]interface{}{}, nil); err == nil {
		t.Fatalf("expected error for unknown entity type")
	}
}
