package models

import (
	"time"
)

// PayoutStatement 提现与结算单关联表
type PayoutStatement struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                                    // 主键
	PayoutID    uint      `gorm:"not null;uniqueIndex:idx_payout_statement,priority:1" json:"payout_id"`   // 提现ID
	StatementID uint      `gorm:"not null;uniqueIndex:idx_payout_statement,priority:2" json:"statement_id"` // 结算单ID
	CreatedAt   time.Time `json:"created_at"`                                                              // 创建时间
}

// TableName 指定表名
func (PayoutStatement) TableName() string {
	return "payout_statements"
}
