package models

import "time"

// InvoiceStatus is the verification lifecycle of an invoice. Transitions are
// monotonic: draft -> pending -> completed|cancelled. A draft whose session
// lapsed without completion stays draft forever and is simply excluded from
// standard listings.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusPending   InvoiceStatus = "pending"
	StatusCompleted InvoiceStatus = "completed"
	StatusCancelled InvoiceStatus = "cancelled"
)

// PaymentStatus tracks settlement, independent of verification.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentPartial   PaymentStatus = "partial"
	PaymentCancelled PaymentStatus = "cancelled"
)

// PaymentMethod enumerates accepted tender types.
type PaymentMethod string

const (
	PayCash   PaymentMethod = "cash"
	PayCard   PaymentMethod = "card"
	PayUPI    PaymentMethod = "upi"
	PayCheque PaymentMethod = "cheque"
	PayCredit PaymentMethod = "credit"
)

// DiscountType selects how InvoiceItem.Discount is interpreted.
type DiscountType string

const (
	DiscountAmount     DiscountType = "amount"
	DiscountPercentage DiscountType = "percentage"
)

// ValidPaymentMethod reports whether m is an accepted tender type.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PayCash, PayCard, PayUPI, PayCheque, PayCredit:
		return true
	}
	return false
}

// Invoice is a billing document. While status is draft it is owned by the
// cashier's session and mutable through the billing service; from pending
// onward only the verification service may touch it.
type Invoice struct {
	ID            string        `bson:"_id" json:"id"`
	InvoiceNumber string        `bson:"invoice_number" json:"invoiceNumber"`
	UserID        string        `bson:"user_id" json:"userId"`
	SessionID     string        `bson:"session_id" json:"sessionId"`
	Status        InvoiceStatus `bson:"status" json:"status"`

	CustomerName    string `bson:"customer_name,omitempty" json:"customerName,omitempty"`
	CustomerPhone   string `bson:"customer_phone,omitempty" json:"customerPhone,omitempty"`
	CustomerEmail   string `bson:"customer_email,omitempty" json:"customerEmail,omitempty"`
	CustomerAddress string `bson:"customer_address,omitempty" json:"customerAddress,omitempty"`
	Notes           string `bson:"notes,omitempty" json:"notes,omitempty"`

	// Derived money fields, always recomputed from current items.
	Subtotal    float64 `bson:"subtotal" json:"subtotal"`
	TotalGST    float64 `bson:"total_gst" json:"totalGst"`
	TotalAmount float64 `bson:"total_amount" json:"totalAmount"`

	PaymentMethod PaymentMethod `bson:"payment_method" json:"paymentMethod"`
	PaymentStatus PaymentStatus `bson:"payment_status" json:"paymentStatus"`

	AdminVerified bool      `bson:"admin_verified" json:"adminVerified"`
	VerifiedBy    string    `bson:"verified_by,omitempty" json:"verifiedBy,omitempty"`
	VerifiedAt    time.Time `bson:"verified_at,omitempty" json:"verifiedAt,omitempty"`

	SessionStartTime time.Time `bson:"session_start_time" json:"sessionStartTime"`
	SessionEndTime   time.Time `bson:"session_end_time" json:"sessionEndTime"`
	IsSessionExpired bool      `bson:"is_session_expired" json:"isSessionExpired"`

	PrintCount    int       `bson:"print_count" json:"printCount"`
	LastPrintedAt time.Time `bson:"last_printed_at,omitempty" json:"lastPrintedAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`

	Items []InvoiceItem `bson:"-" json:"items,omitempty"`
}

// CanTransitionTo reports whether moving to next is a legal edge of the
// verification lifecycle.
func (inv *Invoice) CanTransitionTo(next InvoiceStatus) bool {
	switch inv.Status {
	case StatusDraft:
		return next == StatusPending
	case StatusPending:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// InvoiceItem is one priced product line on an invoice. Product fields are
// snapshotted at add-time so later catalog edits never change historical
// invoices.
type InvoiceItem struct {
	ID        string `bson:"_id" json:"id"`
	InvoiceID string `bson:"invoice_id" json:"invoiceId"`
	ProductID string `bson:"product_id" json:"productId"`

	ProductName string `bson:"product_name" json:"productName"`
	ProductCode string `bson:"product_code,omitempty" json:"productCode,omitempty"`
	HSNCode     string `bson:"hsn_code,omitempty" json:"hsnCode,omitempty"`
	Unit        string `bson:"unit" json:"unit"`

	Quantity     float64      `bson:"quantity" json:"quantity"`
	UnitPrice    float64      `bson:"unit_price" json:"unitPrice"`
	MRP          float64      `bson:"mrp" json:"mrp"`
	Discount     float64      `bson:"discount" json:"discount"`
	DiscountType DiscountType `bson:"discount_type" json:"discountType"`
	GSTRate      float64      `bson:"gst_rate" json:"gstRate"`

	// Derived by the pricing calculator.
	GSTAmount   float64 `bson:"gst_amount" json:"gstAmount"`
	LineTotal   float64 `bson:"line_total" json:"lineTotal"`
	TotalAmount float64 `bson:"total_amount" json:"totalAmount"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
