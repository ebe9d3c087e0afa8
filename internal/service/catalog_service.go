package service

import (
	"strings"
	"time"

	"github.com/melodist-next/internal/constants"
	"github.com/melodist-next/internal/models"
	"github.com/melodist-next/internal/repository"
)

// CatalogService 曲库服务，管理发行物与曲目并在提交前执行元数据校验
type CatalogService struct {
	releaseRepo repository.ReleaseRepository
	trackRepo   repository.TrackRepository
	validator   *MetadataValidator
}

// NewCatalogService 创建曲库服务
func NewCatalogService(
	releaseRepo repository.ReleaseRepository,
	trackRepo repository.TrackRepository,
	validator *MetadataValidator,
) *CatalogService {
	return &CatalogService{
		releaseRepo: releaseRepo,
		trackRepo:   trackRepo,
		validator:   validator,
	}
}

// CatalogUniquenessChecker 基于仓储的编码唯一性检查实现
type CatalogUniquenessChecker struct {
	releaseRepo repository.ReleaseRepository
	trackRepo   repository.TrackRepository
}

// NewCatalogUniquenessChecker 创建编码唯一性检查器
func NewCatalogUniquenessChecker(releaseRepo repository.ReleaseRepository, trackRepo repository.TrackRepository) *CatalogUniquenessChecker {
	return &CatalogUniquenessChecker{
		releaseRepo: releaseRepo,
		trackRepo:   trackRepo,
	}
}

// UPCExists 判断 UPC 是否已被其他发行物占用
func (c *CatalogUniquenessChecker) UPCExists(upc string, excludeReleaseID uint) (bool, error) {
	release, err := c.releaseRepo.GetByUPC(upc)
	if err != nil {
		return false, err
	}
	return release != nil && release.ID != excludeReleaseID, nil
}

// ISRCExists 判断 ISRC 是否已被其他曲目占用
func (c *CatalogUniquenessChecker) ISRCExists(isrc string, excludeTrackID uint) (bool, error) {
	track, err := c.trackRepo.GetByISRC(isrc)
	if err != nil {
		return false, err
	}
	return track != nil && track.ID != excludeTrackID, nil
}

// ReleaseInput 发行物字段输入
type ReleaseInput struct {
	Title         string
	ReleaseType   string
	PrimaryArtist string
	LabelName     string
	UPC           string
	Genre         string
	Language      string
	ReleaseDate   *time.Time
	ArtworkURL    string
	ArtworkWidth  int
	ArtworkHeight int
	ArtworkFormat string
}

// TrackInput 曲目字段输入
type TrackInput struct {
	Title           string
	ISRC            string
	TrackNumber     int
	DurationSeconds int
	Explicit        bool
	Language        string
	AudioURL        string
	LyricsURL       string
}

// ReleaseValidationReport 发行物及其曲目的校验结果
type ReleaseValidationReport struct {
	Release *ValidationResult          `json:"release"`
	Tracks  map[uint]*ValidationResult `json:"tracks"`
}

// Valid 判断整体校验是否通过
func (r *ReleaseValidationReport) Valid() bool {
	if r == nil || r.Release == nil || !r.Release.Valid {
		return false
	}
	for _, result := range r.Tracks {
		if !result.Valid {
			return false
		}
	}
	return true
}

// CreateRelease 创建发行物（草稿状态）
func (s *CatalogService) CreateRelease(userID uint, input ReleaseInput) (*models.Release, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	releaseType, err := normalizeReleaseType(input.ReleaseType)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	release := &models.Release{
		UserID:        userID,
		Title:         strings.TrimSpace(input.Title),
		ReleaseType:   releaseType,
		PrimaryArtist: strings.TrimSpace(input.PrimaryArtist),
		LabelName:     strings.TrimSpace(input.LabelName),
		UPC:           strings.TrimSpace(input.UPC),
		Genre:         strings.TrimSpace(input.Genre),
		Language:      strings.TrimSpace(input.Language),
		ReleaseDate:   input.ReleaseDate,
		ArtworkURL:    strings.TrimSpace(input.ArtworkURL),
		ArtworkWidth:  input.ArtworkWidth,
		ArtworkHeight: input.ArtworkHeight,
		ArtworkFormat: strings.ToLower(strings.TrimSpace(input.ArtworkFormat)),
		Status:        constants.ReleaseStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.releaseRepo.Create(release); err != nil {
		return nil, err
	}
	return release, nil
}

// UpdateRelease 更新发行物，已上线或已下架的发行物不可修改
func (s *CatalogService) UpdateRelease(id uint, userID uint, input ReleaseInput) (*models.Release, error) {
	release, err := s.releaseRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, err
	}
	if release == nil {
		return nil, ErrReleaseNotFound
	}
	if release.Status == constants.ReleaseStatusLive || release.Status == constants.ReleaseStatusTakenDown {
		return nil, ErrReleaseStatusInvalid
	}
	releaseType, err := normalizeReleaseType(input.ReleaseType)
	if err != nil {
		return nil, err
	}

	release.Title = strings.TrimSpace(input.Title)
	release.ReleaseType = releaseType
	release.PrimaryArtist = strings.TrimSpace(input.PrimaryArtist)
	release.LabelName = strings.TrimSpace(input.LabelName)
	release.UPC = strings.TrimSpace(input.UPC)
	release.Genre = strings.TrimSpace(input.Genre)
	release.Language = strings.TrimSpace(input.Language)
	release.ReleaseDate = input.ReleaseDate
	release.ArtworkURL = strings.TrimSpace(input.ArtworkURL)
	release.ArtworkWidth = input.ArtworkWidth
	release.ArtworkHeight = input.ArtworkHeight
	release.ArtworkFormat = strings.ToLower(strings.TrimSpace(input.ArtworkFormat))
	release.UpdatedAt = time.Now()
	if err := s.releaseRepo.Update(release); err != nil {
		return nil, err
	}
	return release, nil
}

// GetRelease 查询发行物，userID 非 0 时校验归属
func (s *CatalogService) GetRelease(id uint, userID uint) (*models.Release, error) {
	var release *models.Release
	var err error
	if userID == 0 {
		release, err = s.releaseRepo.GetByID(id)
	} else {
		release, err = s.releaseRepo.GetByIDAndUser(id, userID)
	}
	if err != nil {
		return nil, err
	}
	if release == nil {
		return nil, ErrReleaseNotFound
	}
	return release, nil
}

// ListReleases 分页查询发行物
func (s *CatalogService) ListReleases(filter repository.ReleaseListFilter) ([]models.Release, int64, error) {
	return s.releaseRepo.List(filter)
}

// AddTrack 向发行物添加曲目
func (s *CatalogService) AddTrack(releaseID uint, userID uint, input TrackInput) (*models.Track, error) {
	release, err := s.releaseRepo.GetByIDAndUser(releaseID, userID)
	if err != nil {
		return nil, err
	}
	if release == nil {
		return nil, ErrReleaseNotFound
	}
	if release.Status == constants.ReleaseStatusLive || release.Status == constants.ReleaseStatusTakenDown {
		return nil, ErrReleaseStatusInvalid
	}

	now := time.Now()
	track := &models.Track{
		ReleaseID:       releaseID,
		UserID:          userID,
		Title:           strings.TrimSpace(input.Title),
		ISRC:            strings.ToUpper(strings.TrimSpace(input.ISRC)),
		TrackNumber:     input.TrackNumber,
		DurationSeconds: input.DurationSeconds,
		Explicit:        input.Explicit,
		Language:        strings.TrimSpace(input.Language),
		AudioURL:        strings.TrimSpace(input.AudioURL),
		LyricsURL:       strings.TrimSpace(input.LyricsURL),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.trackRepo.Create(track); err != nil {
		return nil, err
	}
	return track, nil
}

// UpdateTrack 更新曲目
func (s *CatalogService) UpdateTrack(id uint, userID uint, input TrackInput) (*models.Track, error) {
	track, err := s.trackRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, ErrTrackNotFound
	}

	track.Title = strings.TrimSpace(input.Title)
	track.ISRC = strings.ToUpper(strings.TrimSpace(input.ISRC))
	track.TrackNumber = input.TrackNumber
	track.DurationSeconds = input.DurationSeconds
	track.Explicit = input.Explicit
	track.Language = strings.TrimSpace(input.Language)
	track.AudioURL = strings.TrimSpace(input.AudioURL)
	track.LyricsURL = strings.TrimSpace(input.LyricsURL)
	track.UpdatedAt = time.Now()
	if err := s.trackRepo.Update(track); err != nil {
		return nil, err
	}
	return track, nil
}

// DeleteTrack 删除曲目
func (s *CatalogService) DeleteTrack(id uint, userID uint) error {
	track, err := s.trackRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return err
	}
	if track == nil {
		return ErrTrackNotFound
	}
	return s.trackRepo.Delete(id)
}

// ListTracks 分页查询曲目
func (s *CatalogService) ListTracks(filter repository.TrackListFilter) ([]models.Track, int64, error) {
	return s.trackRepo.List(filter)
}

// ValidateRelease 校验发行物及其全部曲目的元数据，并把评分回写到对应记录
func (s *CatalogService) ValidateRelease(id uint, userID uint, platforms []string) (*ReleaseValidationReport, error) {
	release, err := s.GetRelease(id, userID)
	if err != nil {
		return nil, err
	}

	releaseResult, err := s.validator.Validate(constants.ValidationEntityRelease, release.ID, releaseMetadataFields(release), platforms)
	if err != nil {
		return nil, err
	}
	release.MetadataScore = releaseResult.Score
	release.UpdatedAt = time.Now()
	if err := s.releaseRepo.Update(release); err != nil {
		return nil, err
	}

	tracks, err := s.trackRepo.ListByReleaseID(release.ID)
	if err != nil {
		return nil, err
	}
	report := &ReleaseValidationReport{
		Release: releaseResult,
		Tracks:  make(map[uint]*ValidationResult, len(tracks)),
	}
	for i := range tracks {
		track := &tracks[i]
		result, err := s.validator.Validate(constants.ValidationEntityTrack, track.ID, trackMetadataFields(track), platforms)
		if err != nil {
			return nil, err
		}
		track.MetadataScore = result.Score
		track.UpdatedAt = time.Now()
		if err := s.trackRepo.Update(track); err != nil {
			return nil, err
		}
		report.Tracks[track.ID] = result
	}
	return report, nil
}

// SubmitRelease 提交发行物分发。校验不通过时保持草稿状态并返回校验报告。
func (s *CatalogService) SubmitRelease(id uint, userID uint, platforms []string) (*models.Release, *ReleaseValidationReport, error) {
	release, err := s.GetRelease(id, userID)
	if err != nil {
		return nil, nil, err
	}
	if release.Status != constants.ReleaseStatusDraft {
		return nil, nil, ErrReleaseStatusInvalid
	}

	report, err := s.ValidateRelease(id, userID, platforms)
	if err != nil {
		return nil, nil, err
	}
	if !report.Valid() {
		return nil, report, ErrMetadataInvalid
	}

	release.Status = constants.ReleaseStatusSubmitted
	release.MetadataScore = report.Release.Score
	release.UpdatedAt = time.Now()
	if err := s.releaseRepo.Update(release); err != nil {
		return nil, nil, err
	}
	return release, report, nil
}

func releaseMetadataFields(release *models.Release) map[string]interface{} {
	return map[string]interface{}{
		"title":          release.Title,
		"release_type":   release.ReleaseType,
		"primary_artist": release.PrimaryArtist,
		"label_name":     release.LabelName,
		"upc":            release.UPC,
		"genre":          release.Genre,
		"language":       release.Language,
		"release_date":   release.ReleaseDate,
		"artwork_url":    release.ArtworkURL,
		"artwork_width":  release.ArtworkWidth,
		"artwork_height": release.ArtworkHeight,
		"artwork_format": release.ArtworkFormat,
	}
}

func trackMetadataFields(track *models.Track) map[string]interface{} {
	return map[string]interface{}{
		"title":            track.Title,
		"isrc":             track.ISRC,
		"track_number":     track.TrackNumber,
		"duration_seconds": track.DurationSeconds,
		"language":         track.Language,
		"audio_url":        track.AudioURL,
		"lyrics_url":       track.LyricsURL,
	}
}

// normalizeReleaseType 缺省按 single 处理，未知类型直接拒绝而不是静默改写
func normalizeReleaseType(releaseType string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(releaseType))
	if normalized == "" {
		return constants.ReleaseTypeSingle, nil
	}
	switch normalized {
	case constants.ReleaseTypeSingle, constants.ReleaseTypeEP, constants.ReleaseTypeAlbum, constants.ReleaseTypeCompilation:
		return normalized, nil
	default:
		return "", ErrReleaseTypeInvalid
	}
}
