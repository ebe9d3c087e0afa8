package models

import (
	"time"
)

// RoyaltyStatement 版税结算单表
type RoyaltyStatement struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                                       // 主键
	UserID           uint       `gorm:"not null;uniqueIndex:idx_statement_period,priority:1" json:"user_id"`        // 归属艺人
	Platform         string     `gorm:"not null;uniqueIndex:idx_statement_period,priority:2" json:"platform"`       // 分发平台
	PeriodStart      time.Time  `gorm:"not null;uniqueIndex:idx_statement_period,priority:3" json:"period_start"`   // 结算周期开始
	PeriodEnd        time.Time  `gorm:"not null;uniqueIndex:idx_statement_period,priority:4" json:"period_end"`     // 结算周期结束
	Currency         string     `gorm:"size:8;default:'USD'" json:"currency"`                                       // 币种
	GrossRevenue     Money      `gorm:"type:decimal(12,2);default:0" json:"gross_revenue"`                          // 总收入
	FeeAmount        Money      `gorm:"type:decimal(12,2);default:0" json:"fee_amount"`                             // 平台费用
	NetRevenue       Money      `gorm:"type:decimal(12,2);default:0" json:"net_revenue"`                            // 净收入
	StreamCount      int64      `gorm:"default:0" json:"stream_count"`                                              // 播放量
	Status           string     `gorm:"default:'draft';index" json:"status"`                                        // 结算单状态
	FinalizedAt      *time.Time `json:"finalized_at"`                                                               // 定稿时间
	PaidAt           *time.Time `json:"paid_at"`                                                                    // 支付时间
	PaymentReference string     `gorm:"default:''" json:"payment_reference"`                                        // 支付参考号
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                                                    // 创建时间
	UpdatedAt        time.Time  `gorm:"index" json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (RoyaltyStatement) TableName() string {
	return "royalty_statements"
}
