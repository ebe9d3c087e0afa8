package models

import (
	"time"
)

// Payout 提现申请表
type Payout struct {
	ID               uint       `gorm:"primarykey" json:"id"`                             // 主键
	UserID           uint       `gorm:"not null;index" json:"user_id"`                    // 申请艺人
	Amount           Money      `gorm:"type:decimal(12,2);not null" json:"amount"`        // 提现金额
	Currency         string     `gorm:"size:8;default:'USD'" json:"currency"`             // 币种
	Method           string     `gorm:"not null" json:"method"`                           // 提现方式
	AccountDetails   string     `gorm:"type:text" json:"account_details"`                 // 收款账户信息
	Status           string     `gorm:"default:'pending';index" json:"status"`            // 提现状态
	ProcessedBy      *uint      `gorm:"index" json:"processed_by"`                        // 处理管理员
	PaymentReference string     `gorm:"default:''" json:"payment_reference"`              // 支付通道参考号
	TransactionID    string     `gorm:"default:''" json:"transaction_id"`                 // 通道交易号
	CancelReason     string     `gorm:"default:''" json:"cancel_reason"`                  // 取消原因
	FailReason       string     `gorm:"default:''" json:"fail_reason"`                    // 失败原因
	ProcessedAt      *time.Time `json:"processed_at"`                                     // 开始处理时间
	CompletedAt      *time.Time `json:"completed_at"`                                     // 完成时间
	CancelledAt      *time.Time `json:"cancelled_at"`                                     // 取消时间
	FailedAt         *time.Time `json:"failed_at"`                                        // 失败时间
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt        time.Time  `gorm:"index" json:"updated_at"`                          // 更新时间

	Statements []PayoutStatement `gorm:"foreignKey:PayoutID" json:"statements,omitempty"` // 关联结算单
}

// TableName 指定表名
func (Payout) TableName() string {
	return "payouts"
}
