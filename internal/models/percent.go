package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Percent 统一百分比类型（保留 1 位小数）
type Percent struct {
	decimal.Decimal
}

// NewPercentFromDecimal 从 decimal 创建百分比
func NewPercentFromDecimal(value decimal.Decimal) Percent {
	return Percent{Decimal: value.Round(1)}
}

// MarshalJSON 统一输出 1 位小数的字符串
func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Decimal.Round(1).StringFixed(1))
}

// UnmarshalJSON 解析百分比（字符串或数字）
func (p *Percent) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		p.Decimal = d.Round(1)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	p.Decimal = decimal.NewFromFloat(f).Round(1)
	return nil
}

// Value 用于数据库写入
func (p Percent) Value() (driver.Value, error) {
	return p.Decimal.Round(1).Value()
}

// Scan 用于数据库读取
func (p *Percent) Scan(value interface{}) error {
	if err := p.Decimal.Scan(value); err != nil {
		return err
	}
	p.Decimal = p.Decimal.Round(1)
	return nil
}

// String 返回 1 位小数格式
func (p Percent) String() string {
	return p.Decimal.Round(1).StringFixed(1)
}
