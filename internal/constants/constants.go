package constants

// 发行物状态常量
const (
	ReleaseStatusDraft     = "draft"
	ReleaseStatusSubmitted = "submitted"
	ReleaseStatusLive      = "live"
	ReleaseStatusTakenDown = "taken_down"
)

// 发行物类型常量
const (
	ReleaseTypeSingle      = "single"
	ReleaseTypeEP          = "ep"
	ReleaseTypeAlbum       = "album"
	ReleaseTypeCompilation = "compilation"
)

// 分成范围类型常量
const (
	SplitScopeRelease = "release"
	SplitScopeTrack   = "track"
)

// 分成类型常量
const (
	SplitTypeMaster      = "master"
	SplitTypePublishing  = "publishing"
	SplitTypePerformance = "performance"
)

// 分成协作者角色常量
const (
	SplitRolePrimaryArtist  = "primary_artist"
	SplitRoleFeaturedArtist = "featured_artist"
	SplitRoleProducer       = "producer"
	SplitRoleSongwriter     = "songwriter"
	SplitRoleLabel          = "label"
)

// 版税结算单状态常量
const (
	StatementStatusDraft     = "draft"
	StatementStatusGenerated = "generated"
	StatementStatusFinalized = "finalized"
	StatementStatusPaid      = "paid"
)

// 提现状态常量
const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusCancelled  = "cancelled"
	PayoutStatusFailed     = "failed"
)

// 提现方式常量
const (
	PayoutMethodBankTransfer = "bank_transfer"
	PayoutMethodPaypal       = "paypal"
	PayoutMethodPayoneer     = "payoneer"
)

// 提现取消原因常量
const (
	PayoutCancelReasonUser = "cancelled_by_user"
)

// 分发平台常量
const (
	PlatformSpotify    = "spotify"
	PlatformAppleMusic = "apple_music"
	PlatformYoutube    = "youtube_music"
	PlatformAmazon     = "amazon_music"
	PlatformDeezer     = "deezer"
	PlatformTidal      = "tidal"
)

// 元数据校验实体类型常量
const (
	ValidationEntityRelease = "release"
	ValidationEntityTrack   = "track"
)

// 元数据校验问题级别常量
const (
	ValidationSeverityError   = "error"
	ValidationSeverityWarning = "warning"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 队列常量
const (
	QueueDefault          = "default"
	TaskPayoutStatusEmail = "payout:status_email"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "mld"
)

// 币种常量
const (
	SiteCurrencyDefault = "USD"
)
