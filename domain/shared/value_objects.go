package shared

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DefaultCurrency 店铺结算币种
const DefaultCurrency = "INR"

// minorUnitExponent INR 以 paise 为最小单位（1 INR = 100 paise）
const minorUnitExponent = 2

var (
	ErrCurrencyMismatch = errors.New("money currencies differ")
	ErrMoneyOverflow    = errors.New("money amount overflow")
)

// Money 值对象 - 表示金额
type Money struct {
	amount   int64  // 以最小货币单位存储（paise）
	currency string // 货币代码（INR）
}

// NewMoney 创建新的Money值对象
func NewMoney(amount int64, currency string) *Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Money{
		amount:   amount,
		currency: currency,
	}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return *NewMoney(0, currency)
}

// MoneyFromDecimal converts a major-unit decimal (e.g. 199.50) to minor units.
// Fractions below one paisa are rounded half away from zero.
func MoneyFromDecimal(major decimal.Decimal, currency string) (*Money, error) {
	minor := major.Shift(minorUnitExponent).Round(0)
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(1<<62)) || minor.LessThan(decimal.NewFromInt(-(1 << 62))) {
		return nil, ErrMoneyOverflow
	}
	return NewMoney(minor.IntPart(), currency), nil
}

// MoneyFromFloat is a convenience for JSON inputs carrying float64 amounts.
func MoneyFromFloat(major float64, currency string) (*Money, error) {
	return MoneyFromDecimal(decimal.NewFromFloat(major), currency)
}

// Amount 获取金额数量
func (m Money) Amount() int64 {
	return m.amount
}

// Currency 获取货币类型
func (m Money) Currency() string {
	return m.currency
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.amount, -minorUnitExponent)
}

// Add 金额相加，返回新的Money值对象
func (m Money) Add(other Money) (*Money, error) {
	if m.currency != other.currency {
		return nil, ErrCurrencyMismatch
	}
	sum := m.amount + other.amount
	if (other.amount > 0 && sum < m.amount) || (other.amount < 0 && sum > m.amount) {
		return nil, ErrMoneyOverflow
	}
	return &Money{amount: sum, currency: m.currency}, nil
}

// Subtract 金额相减，返回新的Money值对象
func (m Money) Subtract(other Money) (*Money, error) {
	if m.currency != other.currency {
		return nil, ErrCurrencyMismatch
	}
	return m.Add(Money{amount: -other.amount, currency: other.currency})
}

// Multiply 金额乘以数量（带溢出检查）
func (m Money) Multiply(quantity int) (*Money, error) {
	if quantity == 0 || m.amount == 0 {
		return &Money{amount: 0, currency: m.currency}, nil
	}
	product := m.amount * int64(quantity)
	if product/int64(quantity) != m.amount {
		return nil, ErrMoneyOverflow
	}
	return &Money{amount: product, currency: m.currency}, nil
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.amount < 0
}

// IsGreaterThan 比较金额是否大于另一个金额
func (m Money) IsGreaterThan(other Money) bool {
	return m.amount > other.amount
}

// IsGreaterThanOrEqual 比较金额是否大于或等于另一个金额
func (m Money) IsGreaterThanOrEqual(other Money) bool {
	return m.amount >= other.amount
}

// Equals 比较两个Money值对象是否相等
func (m Money) Equals(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}

func (m Money) String() string {
	return m.Decimal().StringFixed(minorUnitExponent) + " " + m.currency
}
