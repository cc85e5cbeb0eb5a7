// Package qrcode renders payloads into scannable PNG images, returned as
// base64 data URIs so they can be stored on the product record and rendered
// directly by a browser.
package qrcode

import (
	"encoding/base64"
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

const defaultSize = 256

type Generator struct {
	size int
}

func NewGenerator() *Generator {
	return &Generator{size: defaultSize}
}

// Encode renders payload as a PNG QR code with medium error correction and
// returns it as a data URI. Pure function of its input.
func (g *Generator) Encode(payload string) (string, error) {
	png, err := qr.Encode(payload, qr.Medium, g.size)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
