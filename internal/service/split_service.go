package service

import (
	"strings"

	"github.com/melodist-next/internal/constants"
	"github.com/melodist-next/internal/models"
	"github.com/melodist-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var splitFullAllocation = decimal.NewFromInt(100)

// SplitService 协作者分成服务
type SplitService struct {
	splitRepo   repository.SplitRepository
	releaseRepo repository.ReleaseRepository
	trackRepo   repository.TrackRepository
}

// NewSplitService 创建协作者分成服务
func NewSplitService(
	splitRepo repository.SplitRepository,
	releaseRepo repository.ReleaseRepository,
	trackRepo repository.TrackRepository,
) *SplitService {
	return &SplitService{
		splitRepo:   splitRepo,
		releaseRepo: releaseRepo,
		trackRepo:   trackRepo,
	}
}

// AddSplitInput 新增分成输入
type AddSplitInput struct {
	ScopeType         string
	ScopeID           uint
	SplitType         string
	OwnerUserID       uint
	CollaboratorName  string
	CollaboratorEmail string
	Role              string
	Percentage        models.Percent
}

// SplitAllocation 某一范围某一分成类型的分配情况
type SplitAllocation struct {
	ScopeType string                     `json:"scope_type"`
	ScopeID   uint                       `json:"scope_id"`
	SplitType string                     `json:"split_type"`
	Allocated models.Percent             `json:"allocated"`
	Available models.Percent             `json:"available"`
	Splits    []models.CollaboratorSplit `json:"splits"`
}

// AddSplit 新增协作者分成。同一范围同一分成类型的合计不得超过 100%，
// 校验与写入在同一事务内完成，并对范围对应的发行物或曲目行加锁作为准入锚点。
// 分成行可能尚不存在，锁范围行才能覆盖首条分成。
func (s *SplitService) AddSplit(input AddSplitInput) (*models.CollaboratorSplit, error) {
	scopeType, err := normalizeSplitScope(input.ScopeType)
	if err != nil {
		return nil, err
	}
	splitType, err := normalizeSplitType(input.SplitType)
	if err != nil {
		return nil, err
	}
	if input.ScopeID == 0 {
		return nil, ErrSplitScopeInvalid
	}
	name := strings.TrimSpace(input.CollaboratorName)
	if name == "" {
		return nil, ErrSplitCollaboratorInvalid
	}

	percentage := input.Percentage.Decimal.Round(1)
	if percentage.LessThanOrEqual(decimal.Zero) || percentage.GreaterThan(splitFullAllocation) {
		return nil, ErrSplitPercentageInvalid
	}

	var created *models.CollaboratorSplit
	if err := s.splitRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.lockScopeOwned(tx, scopeType, input.ScopeID, input.OwnerUserID); err != nil {
			return err
		}

		repo := s.splitRepo.WithTx(tx)
		existing, err := repo.ListByScopeForUpdate(scopeType, input.ScopeID, splitType)
		if err != nil {
			return err
		}

		allocated := decimal.Zero
		for _, split := range existing {
			allocated = allocated.Add(split.Percentage.Decimal)
		}
		allocated = allocated.Round(1)

		if allocated.Add(percentage).GreaterThan(splitFullAllocation) {
			return &AllocationExceededError{
				ScopeType: scopeType,
				ScopeID:   input.ScopeID,
				SplitType: splitType,
				Requested: percentage,
				Available: splitFullAllocation.Sub(allocated).Round(1),
			}
		}

		split := &models.CollaboratorSplit{
			ScopeType:         scopeType,
			ScopeID:           input.ScopeID,
			SplitType:         splitType,
			OwnerUserID:       input.OwnerUserID,
			CollaboratorName:  name,
			CollaboratorEmail: strings.TrimSpace(input.CollaboratorEmail),
			Role:              strings.TrimSpace(input.Role),
			Percentage:        models.NewPercentFromDecimal(percentage),
		}
		if err := repo.Create(split); err != nil {
			return err
		}
		created = split
		return nil
	}); err != nil {
		return nil, err
	}
	return created, nil
}

// RemoveSplit 删除协作者分成，不对剩余分成做再平衡
func (s *SplitService) RemoveSplit(id uint, ownerUserID uint) error {
	split, err := s.splitRepo.GetByID(id)
	if err != nil {
		return err
	}
	if split == nil {
		return ErrSplitNotFound
	}
	if ownerUserID != 0 && split.OwnerUserID != ownerUserID {
		return ErrSplitNotFound
	}
	return s.splitRepo.Delete(id)
}

// GetAllocation 查询某一范围某一分成类型的分配情况
func (s *SplitService) GetAllocation(scopeType string, scopeID uint, splitType string) (*SplitAllocation, error) {
	normalizedScope, err := normalizeSplitScope(scopeType)
	if err != nil {
		return nil, err
	}
	normalizedType, err := normalizeSplitType(splitType)
	if err != nil {
		return nil, err
	}
	if scopeID == 0 {
		return nil, ErrSplitScopeInvalid
	}

	splits, err := s.splitRepo.ListByScope(normalizedScope, scopeID, normalizedType)
	if err != nil {
		return nil, err
	}
	allocated := decimal.Zero
	for _, split := range splits {
		allocated = allocated.Add(split.Percentage.Decimal)
	}
	allocated = allocated.Round(1)
	return &SplitAllocation{
		ScopeType: normalizedScope,
		ScopeID:   scopeID,
		SplitType: normalizedType,
		Allocated: models.NewPercentFromDecimal(allocated),
		Available: models.NewPercentFromDecimal(splitFullAllocation.Sub(allocated)),
		Splits:    splits,
	}, nil
}

// ListSplits 分页查询分成记录
func (s *SplitService) ListSplits(filter repository.SplitListFilter) ([]models.CollaboratorSplit, int64, error) {
	return s.splitRepo.List(filter)
}

func (s *SplitService) lockScopeOwned(tx *gorm.DB, scopeType string, scopeID uint, ownerUserID uint) error {
	switch scopeType {
	case constants.SplitScopeRelease:
		release, err := s.releaseRepo.WithTx(tx).GetByIDForUpdate(scopeID)
		if err != nil {
			return err
		}
		if release == nil {
			return ErrReleaseNotFound
		}
		if ownerUserID != 0 && release.UserID != ownerUserID {
			return ErrReleaseNotFound
		}
	case constants.SplitScopeTrack:
		track, err := s.trackRepo.WithTx(tx).GetByIDForUpdate(scopeID)
		if err != nil {
			return err
		}
		if track == nil {
			return ErrTrackNotFound
		}
		if ownerUserID != 0 && track.UserID != ownerUserID {
			return ErrTrackNotFound
		}
	default:
		return ErrSplitScopeInvalid
	}
	return nil
}

func normalizeSplitScope(scopeType string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(scopeType))
	switch normalized {
	case constants.SplitScopeRelease, constants.SplitScopeTrack:
		return normalized, nil
	default:
		return "", ErrSplitScopeInvalid
	}
}

func normalizeSplitType(splitType string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(splitType))
	switch normalized {
	case constants.SplitTypeMaster, constants.SplitTypePublishing, constants.SplitTypePerformance:
		return normalized, nil
	default:
		return "", ErrSplitTypeInvalid
	}
}
