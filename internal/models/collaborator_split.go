package models

import (
	"time"
)

// CollaboratorSplit 协作者分成表
type CollaboratorSplit struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                          // 主键
	ScopeType         string    `gorm:"not null;index:idx_split_scope,priority:1" json:"scope_type"`   // 范围类型（release/track）
	ScopeID           uint      `gorm:"not null;index:idx_split_scope,priority:2" json:"scope_id"`     // 范围ID
	SplitType         string    `gorm:"not null;index:idx_split_scope,priority:3" json:"split_type"`   // 分成类型
	OwnerUserID       uint      `gorm:"not null;index" json:"owner_user_id"`                           // 范围归属艺人
	CollaboratorName  string    `gorm:"not null" json:"collaborator_name"`                             // 协作者名称
	CollaboratorEmail string    `gorm:"default:''" json:"collaborator_email"`                          // 协作者邮箱
	Role              string    `gorm:"default:''" json:"role"`                                        // 协作角色
	Percentage        Percent   `gorm:"type:decimal(4,1);not null" json:"percentage"`                  // 分成百分比
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt         time.Time `gorm:"index" json:"updated_at"`                                       // 更新时间
}

// TableName 指定表名
func (CollaboratorSplit) TableName() string {
	return "collaborator_splits"
}
