package models

import (
	"time"

	"gorm.io/gorm"
)

// Track 曲目表
type Track struct {
	ID              uint           `gorm:"primarykey" json:"id"`               // 主键
	ReleaseID       uint           `gorm:"not null;index" json:"release_id"`   // 所属发行物
	UserID          uint           `gorm:"not null;index" json:"user_id"`      // 归属艺人
	Title           string         `gorm:"not null" json:"title"`              // 标题
	ISRC            string         `gorm:"index" json:"isrc"`                  // ISRC 编码
	TrackNumber     int            `gorm:"default:1" json:"track_number"`      // 曲序
	DurationSeconds int            `gorm:"default:0" json:"duration_seconds"`  // 时长（秒）
	Explicit        bool           `gorm:"default:false" json:"explicit"`      // 是否含不雅内容
	Language        string         `gorm:"default:''" json:"language"`         // 语言
	AudioURL        string         `gorm:"default:''" json:"audio_url"`        // 音频地址
	LyricsURL       string         `gorm:"default:''" json:"lyrics_url"`       // 歌词地址
	MetadataScore   int            `gorm:"default:0" json:"metadata_score"`    // 最近一次元数据校验评分
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`            // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`            // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                     // 软删除时间
}

// TableName 指定表名
func (Track) TableName() string {
	return "tracks"
}
