package share

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// QRCode renders link as a PNG QR code of size×size pixels
func QRCode(link string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

// QRTerminal renders link as block characters for a terminal
func QRTerminal(link string) (string, error) {
	code, err := qrcode.New(link, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}
	return code.ToSmallString(false), nil
}
