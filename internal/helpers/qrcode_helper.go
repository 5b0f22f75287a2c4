package helpers

import (
	"github.com/skip2/go-qrcode"
)

const QRCodeSize = 256

// EncodeQRCodePNG renders content as a PNG QR code.
func EncodeQRCodePNG(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, QRCodeSize)
}
