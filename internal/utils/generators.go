package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// NewID returns a random UUID v4 string, the PK format for all entities.
func NewID() string {
	return uuid.NewString()
}

// GenerateReceiptID builds a human-traceable receipt reference for gateway
// orders.
func GenerateReceiptID(orderNumber int64) string {
	return fmt.Sprintf("rcpt_order_%d", orderNumber)
}

// GenerateTransactionID builds a fallback transaction reference for payments
// settled outside the gateway (COD confirmations).
func GenerateTransactionID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999999))
	return fmt.Sprintf("txn_%d_%09d", timestamp, randomNum.Int64())
}
