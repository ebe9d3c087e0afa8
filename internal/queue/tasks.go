package queue

import (
	"encoding/json"

	"github.com/melodist-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPayoutStatusEmail 提现状态邮件通知任务
	TaskPayoutStatusEmail = constants.TaskPayoutStatusEmail
)

// PayoutStatusEmailPayload 提现状态邮件任务载荷
type PayoutStatusEmailPayload struct {
	PayoutID uint   `json:"payout_id"`
	Status   string `json:"status"`
}

// NewPayoutStatusEmailTask 创建提现状态邮件任务
func NewPayoutStatusEmailTask(payload PayoutStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPayoutStatusEmail, body), nil
}
