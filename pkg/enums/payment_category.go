package enums

// PaymentCategory groups payment methods by how autoship charges them.
type PaymentCategory string

const (
	PaymentCategoryCreditCard PaymentCategory = "creditcard"
	PaymentCategoryCash       PaymentCategory = "cash"
)
