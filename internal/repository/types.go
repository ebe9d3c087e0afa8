package repository

import "time"

// ReleaseListFilter 查询发行物列表的过滤条件
type ReleaseListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	ReleaseType string
	Search      string
	WithTracks  bool
}

// TrackListFilter 查询曲目列表的过滤条件
type TrackListFilter struct {
	Page      int
	PageSize  int
	UserID    uint
	ReleaseID uint
	Search    string
}

// SplitListFilter 查询协作者分成列表的过滤条件
type SplitListFilter struct {
	Page        int
	PageSize    int
	ScopeType   string
	ScopeID     uint
	SplitType   string
	OwnerUserID uint
}

// StatementListFilter 查询版税结算单列表的过滤条件
type StatementListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Platform    string
	Status      string
	Currency    string
	PeriodFrom  *time.Time
	PeriodTo    *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PayoutListFilter 查询提现列表的过滤条件
type PayoutListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	Method      string
	Currency    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page          int
	PageSize      int
	Keyword       string
	Status        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	LastLoginFrom *time.Time
	LastLoginTo   *time.Time
}
