package adapter

// CodeEncoder renders a transfer-code string as a scannable image. Pure; may
// fail, and failure is never allowed to fail the payment it decorates.
type CodeEncoder interface {
	Encode(text string) ([]byte, error)
}
