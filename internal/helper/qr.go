package helper

import (
	"encoding/base64"

	qrCode "github.com/skip2/go-qrcode"
)

const qrDataURLPrefix = "data:image/png;base64,"

// QRDataURL renders a raw QR payload as a PNG data URL.
func QRDataURL(payload string) (string, error) {
	png, err := qrCode.Encode(payload, qrCode.Medium, 256)
	if err != nil {
		return "", err
	}
	return qrDataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
