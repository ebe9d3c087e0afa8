package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// 通用错误
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmailExists        = errors.New("email already exists")
	ErrUserDisabled       = errors.New("user disabled")
	ErrProfileEmpty       = errors.New("profile update is empty")
)

// 曲库错误
var (
	ErrReleaseNotFound      = errors.New("release not found")
	ErrTrackNotFound        = errors.New("track not found")
	ErrReleaseStatusInvalid = errors.New("release status invalid")
	ErrReleaseTypeInvalid   = errors.New("release type invalid")
	ErrMetadataInvalid      = errors.New("metadata validation failed")
	// ErrMetadataRuleInvalid 规则表本身配置错误，区别于元数据校验不通过
	ErrMetadataRuleInvalid = errors.New("metadata rule invalid")
)

// 分成错误
var (
	ErrSplitNotFound            = errors.New("split not found")
	ErrSplitScopeInvalid        = errors.New("split scope invalid")
	ErrSplitTypeInvalid         = errors.New("split type invalid")
	ErrSplitPercentageInvalid   = errors.New("split percentage invalid")
	ErrSplitCollaboratorInvalid = errors.New("split collaborator invalid")
	ErrSplitAllocationExceeded  = errors.New("split allocation exceeded")
)

// 结算单错误
var (
	ErrStatementNotFound        = errors.New("statement not found")
	ErrStatementExists          = errors.New("statement already exists for period")
	ErrStatementStatusInvalid   = errors.New("statement status invalid")
	ErrStatementAmountInvalid   = errors.New("statement amount invalid")
	ErrStatementPlatformInvalid = errors.New("statement platform invalid")
	ErrStatementPeriodInvalid   = errors.New("statement period invalid")
)

// 提现错误
var (
	// ErrPayoutStateInvalid 覆盖提现不存在与状态不允许两种情况，避免状态探测
	ErrPayoutStateInvalid     = errors.New("payout not found or state invalid")
	ErrPayoutAmountInvalid    = errors.New("payout amount invalid")
	ErrPayoutMethodInvalid    = errors.New("payout method invalid")
	ErrPayoutBelowMinimum     = errors.New("payout amount below minimum")
	ErrPayoutStatementInvalid = errors.New("payout statement reference invalid")
	ErrInsufficientBalance    = errors.New("insufficient balance")
)

// AllocationExceededError 分成超限错误，携带该范围剩余可分配比例
type AllocationExceededError struct {
	ScopeType string
	ScopeID   uint
	SplitType string
	Requested decimal.Decimal
	Available decimal.Decimal
}

// Error 实现 error 接口
func (e *AllocationExceededError) Error() string {
	return fmt.Sprintf("split allocation exceeded: requested %s, available %s",
		e.Requested.Round(1).StringFixed(1), e.Available.Round(1).StringFixed(1))
}

// Is 支持 errors.Is 与哨兵错误匹配
func (e *AllocationExceededError) Is(target error) bool {
	return target == ErrSplitAllocationExceeded
}

// InsufficientBalanceError 余额不足错误，携带计算时的余额快照
type InsufficientBalanceError struct {
	Requested decimal.Decimal
	Snapshot  BalanceSnapshot
}

// Error 实现 error 接口
func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s",
		e.Requested.Round(2).StringFixed(2), e.Snapshot.AvailableBalance.String())
}

// Is 支持 errors.Is 与哨兵错误匹配
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
