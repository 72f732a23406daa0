// Package qr renders reservation numbers as QR codes guests show on arrival.
package qr

import (
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	minSize = 64
	maxSize = 1024
)

// Renderer encodes content as PNG QR codes.
type Renderer struct {
	Level qrcode.RecoveryLevel
}

func NewRenderer() Renderer {
	return Renderer{Level: qrcode.Medium}
}

// PNG returns a size x size PNG.  Sizes are clamped to a sane range.
func (r Renderer) PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr: empty content")
	}
	if size < minSize {
		size = minSize
	}
	if size > maxSize {
		size = maxSize
	}
	return qrcode.Encode(content, r.Level, size)
}
