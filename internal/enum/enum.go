package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "Pending"
	OrderStatusNew       = "New"
	OrderStatusPreparing = "Preparing"
	OrderStatusReady     = "Ready"
	OrderStatusCompleted = "Completed"
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
)

const (
	OrderTypePOS     = "pos"
	OrderTypeWebsite = "website"
)

const (
	DraftStatusStarted   = "Started"
	DraftStatusCompleted = "Completed"
	DraftStatusRepaired  = "Repaired"
	DraftStatusAbandoned = "Abandoned"
)

// ── Access (CHECK constrained in DB) ──

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// ── Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash   = "Cash"
	PaymentMethodVisa   = "Visa"
	PaymentMethodWallet = "Wallet"
)

const (
	SugarZero   = "Zero"
	SugarMedium = "Medium"
	SugarExtra  = "Extra"
)

const (
	InventoryReasonQuickUpdate = "Quick Update"
	InventoryReasonManualEdit  = "Manual Edit"
)

// Placeholder identity recorded on orders without a known customer.
const (
	WalkInName  = "Walk-in"
	WalkInPhone = "000000000"
	UnknownName = "Unknown"
)

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodVisa, PaymentMethodWallet:
		return true
	}
	return false
}

// ValidSugarLevel reports whether s is one of the sugar levels offered at the register.
func ValidSugarLevel(s string) bool {
	switch s {
	case SugarZero, SugarMedium, SugarExtra:
		return true
	}
	return false
}

// RoleRank orders roles so that a higher rank includes every lower one. Unknown roles rank 0.
func RoleRank(role string) int {
	switch role {
	case RoleAdmin:
		return 3
	case RoleManager:
		return 2
	case RoleUser:
		return 1
	}
	return 0
}

var orderTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusNew, OrderStatusCancelled},
	OrderStatusNew:       {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusDelivered, OrderStatusCompleted},
	OrderStatusCompleted: {OrderStatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
