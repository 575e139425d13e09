package notify

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// PickupQR renders the order number as a QR image for the confirmation
// email, base64-encoded for inline embedding.
func PickupQR(orderNumber int64) (string, error) {
	png, err := qrcode.Encode(fmt.Sprintf("order:%d", orderNumber), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
