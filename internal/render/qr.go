package render

import (
	"github.com/skip2/go-qrcode"
)

const qrPixels = 256

// QRCode encodes text (the report id) as a PNG.
func QRCode(text string) ([]byte, error) {
	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	return qr.PNG(qrPixels)
}
