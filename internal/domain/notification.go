package domain

type NotificationKind string

const (
	NotifyStockLimit      NotificationKind = "stock_limit"
	NotifyVariantRequired NotificationKind = "variant_required"
)

// Notification is a user-facing signal; rendering is up to the caller.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}

type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }
