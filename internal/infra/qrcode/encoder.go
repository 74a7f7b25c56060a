package qrcode

import (
	qr "github.com/skip2/go-qrcode"

	"ticket-payment-service/internal/domain/ports/adapter"
)

var _ adapter.CodeEncoder = (*Encoder)(nil)

// Encoder renders transfer codes as PNG QR images.
type Encoder struct {
	size int
}

func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = 256
	}
	return &Encoder{size: size}
}

func (e *Encoder) Encode(text string) ([]byte, error) {
	return qr.Encode(text, qr.Medium, e.size)
}
