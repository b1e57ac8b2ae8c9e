package order

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest 表示创建订单的入参。
// 金额均为主币种单位（如 INR 卢比），服务端换算为最小单位。
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress AddressRequest     `json:"shippingAddress"`
	Shipping        ShippingRequest    `json:"shipping"`
	PaymentMethod   string             `json:"paymentMethod" binding:"required"`
	Discount        decimal.Decimal    `json:"discount"`
	Payment         *PaymentRequest    `json:"payment,omitempty"`
	Notes           string             `json:"notes,omitempty"`
}

// OrderItemRequest 表示创建订单时的单个商品项；名称与价格以目录为准。
type OrderItemRequest struct {
	ProductID string `json:"product" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type AddressRequest struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"address"`
	Line2      string `json:"address2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type ShippingRequest struct {
	Method       string          `json:"method"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
}

// PaymentRequest Razorpay checkout result
type PaymentRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
}

// UpdateOrderStatusRequest 表示更新订单状态入参。
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type ReturnOrderRequest struct {
	Reason         string `json:"reason"`
	TrackingNumber string `json:"trackingNumber"`
}

// RefundRequest nil Amount refunds the grand total.
type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// UnmarshalJSON also accepts refundedAmount, which takes precedence over amount.
func (r *RefundRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount         *decimal.Decimal `json:"amount"`
		RefundedAmount *decimal.Decimal `json:"refundedAmount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Amount = raw.Amount
	if raw.RefundedAmount != nil {
		r.Amount = raw.RefundedAmount
	}
	return nil
}

// ListOrdersQuery admin listing filter
type ListOrdersQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page" binding:"omitempty,min=1,max=1000000"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}

// OrderResponse 表示订单返回模型。
type OrderResponse struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"userId"`
	Items         []OrderItemResponse    `json:"items"`
	Shipping      ShippingResponse       `json:"shipping"`
	PaymentMethod string                 `json:"paymentMethod"`
	PaymentStatus string                 `json:"paymentStatus"`
	Payment       *PaymentRequest        `json:"payment,omitempty"`
	Status        string                 `json:"status"`
	StatusHistory []StatusChangeResponse `json:"statusHistory"`
	Notes         []NoteResponse         `json:"notes"`
	Cancellation  *CancellationResponse  `json:"cancellation,omitempty"`
	Return        *ReturnResponse        `json:"return,omitempty"`
	Subtotal      decimal.Decimal        `json:"subtotal"`
	Discount      decimal.Decimal        `json:"discount"`
	GrandTotal    decimal.Decimal        `json:"grandTotal"`
	Currency      string                 `json:"currency"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// OrderItemResponse 表示订单项返回模型。
type OrderItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type ShippingResponse struct {
	TrackingNumber    string          `json:"trackingNumber"`
	Carrier           string          `json:"carrier"`
	Method            string          `json:"method"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
	ShippingCost      decimal.Decimal `json:"shippingCost"`
	Address           AddressRequest  `json:"address"`
}

type StatusChangeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

type NoteResponse struct {
	Content    string    `json:"content"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	IsInternal bool      `json:"isInternal"`
	Timestamp  time.Time `json:"timestamp"`
}

type CancellationResponse struct {
	IsCancelled    bool             `json:"isCancelled"`
	Reason         string           `json:"reason"`
	CancelledAt    time.Time        `json:"cancelledAt"`
	RefundStatus   string           `json:"refundStatus"`
	RefundedAmount *decimal.Decimal `json:"refundedAmount,omitempty"`
	RefundedAt     *time.Time       `json:"refundedAt,omitempty"`
}

type ReturnResponse struct {
	IsReturned     bool             `json:"isReturned"`
	Reason         string           `json:"reason"`
	ReturnedAt     time.Time        `json:"returnedAt"`
	TrackingNumber string           `json:"trackingNumber,omitempty"`
	RefundStatus   string           `json:"refundStatus"`
	RefundedAmount *decimal.Decimal `json:"refundedAmount,omitempty"`
	RefundedAt     *time.Time       `json:"refundedAt,omitempty"`
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalOrders int64 `json:"totalOrders"`
}

type ListOrdersResponse struct {
	Orders     []*OrderResponse `json:"orders"`
	Pagination Pagination       `json:"pagination"`
}

// TrackingResponse read-only tracking projection
type TrackingResponse struct {
	OrderID           string                 `json:"orderId"`
	Status            string                 `json:"status"`
	StatusHistory     []StatusChangeResponse `json:"statusHistory"`
	Shipping          ShippingResponse       `json:"shipping"`
	Items             []OrderItemResponse    `json:"items"`
	CreatedAt         time.Time              `json:"createdAt"`
	EstimatedDelivery time.Time              `json:"estimatedDelivery"`
}

// HistoryEntry one line of the customer-facing order timeline
type HistoryEntry struct {
	Status      string    `json:"status"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}
