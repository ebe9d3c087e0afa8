package models

import (
	"time"

	"gorm.io/gorm"
)

// Release 发行物表
type Release struct {
	ID            uint           `gorm:"primarykey" json:"id"`                    // 主键
	UserID        uint           `gorm:"not null;index" json:"user_id"`           // 归属艺人
	Title         string         `gorm:"not null" json:"title"`                   // 标题
	ReleaseType   string         `gorm:"default:'single';index" json:"release_type"` // 发行类型
	PrimaryArtist string         `gorm:"not null" json:"primary_artist"`          // 主艺人名
	LabelName     string         `gorm:"default:''" json:"label_name"`            // 厂牌
	UPC           string         `gorm:"index" json:"upc"`                        // UPC 条码
	Genre         string         `gorm:"default:''" json:"genre"`                 // 曲风
	Language      string         `gorm:"default:''" json:"language"`              // 语言
	ReleaseDate   *time.Time     `json:"release_date"`                            // 发行日期
	ArtworkURL    string         `gorm:"default:''" json:"artwork_url"`           // 封面地址
	ArtworkWidth  int            `gorm:"default:0" json:"artwork_width"`          // 封面宽度（像素）
	ArtworkHeight int            `gorm:"default:0" json:"artwork_height"`         // 封面高度（像素）
	ArtworkFormat string         `gorm:"default:''" json:"artwork_format"`        // 封面格式
	Status        string         `gorm:"default:'draft';index" json:"status"`     // 发行状态
	MetadataScore int            `gorm:"default:0" json:"metadata_score"`         // 最近一次元数据校验评分
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                 // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                          // 软删除时间

	Tracks []Track `gorm:"foreignKey:ReleaseID" json:"tracks,omitempty"` // 曲目列表
}

// TableName 指定表名
func (Release) TableName() string {
	return "releases"
}
