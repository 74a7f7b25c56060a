package model

type NotificationKind string

const (
	NotificationKindPayment NotificationKind = "payment"
	NotificationKindOther   NotificationKind = "other"
)

// NotificationEvent is the parsed webhook payload. It only signals "something
// changed" for a gateway payment; the authoritative status is always
// re-fetched from the gateway, never read from the notification itself.
type NotificationEvent struct {
	Kind             NotificationKind
	GatewayPaymentID string
}
