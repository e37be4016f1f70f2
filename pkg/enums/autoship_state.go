package enums

// AutoshipState tracks the lifecycle of a recurring-order subscription.
type AutoshipState string

const (
	// AutoshipStateCart is the initial state before a payment method is attached.
	AutoshipStateCart AutoshipState = "cart"
	// AutoshipStateComplete means the subscription is active and eligible for runs.
	AutoshipStateComplete AutoshipState = "complete"
	// AutoshipStateCancelled is terminal; set on explicit cancel or payment-attach failure.
	AutoshipStateCancelled AutoshipState = "cancelled"
)

func (s AutoshipState) Valid() bool {
	switch s {
	case AutoshipStateCart, AutoshipStateComplete, AutoshipStateCancelled:
		return true
	}
	return false
}
