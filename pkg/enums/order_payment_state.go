package enums

// OrderPaymentState reflects the payment result reported by the order service.
type OrderPaymentState string

const (
	OrderPaymentStatePending OrderPaymentState = "pending"
	OrderPaymentStatePaid    OrderPaymentState = "paid"
	OrderPaymentStateFailed  OrderPaymentState = "failed"
)
