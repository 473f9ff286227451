package tickets

import (
	"math"
	"time"
)

type Type string

const (
	TypeAdult      Type = "adult"
	TypeChild      Type = "child"
	TypeSenior     Type = "senior"
	TypeStudent    Type = "student"
	TypeGroup      Type = "group"
	TypeAnnualPass Type = "annual_pass"
	TypeVIP        Type = "vip"
)

func (t Type) Valid() bool {
	switch t {
	case TypeAdult, TypeChild, TypeSenior, TypeStudent, TypeGroup, TypeAnnualPass, TypeVIP:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash          PaymentMethod = "cash"
	PaymentCreditCard    PaymentMethod = "credit_card"
	PaymentDebitCard     PaymentMethod = "debit_card"
	PaymentOnline        PaymentMethod = "online"
	PaymentVoucher       PaymentMethod = "voucher"
	PaymentComplimentary PaymentMethod = "complimentary"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentOnline, PaymentVoucher, PaymentComplimentary:
		return true
	}
	return false
}

// Ticket pasa de unused a used una sola vez. Refunded es otro estado
// terminal que solo aplica a tickets sin usar.
type Ticket struct {
	ID              string        `json:"id" bson:"_id"`
	TicketID        string        `json:"ticket_id" bson:"ticket_id"`
	VisitorID       string        `json:"visitor_id" bson:"visitor_id"`
	Type            Type          `json:"type" bson:"type"`
	Price           float64       `json:"price" bson:"price"`
	DiscountApplied float64       `json:"discount_applied" bson:"discount_applied"` // porcentaje 0-100
	DiscountCode    string        `json:"discount_code,omitempty" bson:"discount_code,omitempty"`
	PaymentMethod   PaymentMethod `json:"payment_method" bson:"payment_method"`
	TransactionID   string        `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	PurchaseDate    time.Time     `json:"purchase_date" bson:"purchase_date"`
	VisitDate       time.Time     `json:"visit_date" bson:"visit_date"`
	ValidUntil      *time.Time    `json:"valid_until,omitempty" bson:"valid_until,omitempty"`
	IsUsed          bool          `json:"is_used" bson:"is_used"`
	UsedAt          *time.Time    `json:"used_at,omitempty" bson:"used_at,omitempty"`
	Refunded        bool          `json:"refunded" bson:"refunded"`
	RefundDate      *time.Time    `json:"refund_date,omitempty" bson:"refund_date,omitempty"`
	RefundAmount    float64       `json:"refund_amount,omitempty" bson:"refund_amount,omitempty"`
	RefundReason    string        `json:"refund_reason,omitempty" bson:"refund_reason,omitempty"`
	Notes           string        `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" bson:"updated_at"`
}

// FinalPrice aplica el descuento, redondeado a centavos.
func (t Ticket) FinalPrice() float64 {
	if t.DiscountApplied <= 0 {
		return t.Price
	}
	return math.Round(t.Price*(1-t.DiscountApplied/100)*100) / 100
}

// IsValid: sin usar, sin reembolso y dentro de valid_until si lo tiene.
func (t Ticket) IsValid(now time.Time) bool {
	if t.IsUsed || t.Refunded {
		return false
	}
	return t.ValidUntil == nil || !now.After(*t.ValidUntil)
}

// ValidOn compara el día calendario de la visita con el de now en loc.
func (t Ticket) ValidOn(now time.Time, loc *time.Location) bool {
	vy, vm, vd := t.VisitDate.In(loc).Date()
	ny, nm, nd := now.In(loc).Date()
	return vy == ny && vm == nm && vd == nd
}
