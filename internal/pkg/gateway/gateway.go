// Package gateway builds checkout parameters for the hash-based payment gateway
// and verifies the signed notifications it posts back.
package gateway

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Gateway status codes posted in notifications.
const (
	StatusSuccess     = 2
	StatusPending     = 0
	StatusCanceled    = -1
	StatusFailed      = -2
	StatusChargedback = -3
)

type Config struct {
	MerchantID     string
	MerchantSecret string
	Currency       string
	CheckoutURL    string
	ReturnURL      string
	CancelURL      string
	NotifyURL      string
}

// Signer computes and verifies gateway hashes for one merchant.
type Signer struct {
	cfg        Config
	secretHash string
}

func NewSigner(cfg Config) *Signer {
	return &Signer{
		cfg:        cfg,
		secretHash: md5Upper(cfg.MerchantSecret),
	}
}

func (s *Signer) Config() Config {
	return s.cfg
}

// FormatAmount renders an amount the way the gateway hashes it: two decimals, no grouping.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// Hash returns the checkout hash
// UPPER(MD5(merchant_id + order_id + amount + currency + UPPER(MD5(secret)))).
// It is handed to the buyer and is never accepted as a notification signature.
func (s *Signer) Hash(orderID string, amount decimal.Decimal, currency string) string {
	return md5Upper(s.cfg.MerchantID + orderID + FormatAmount(amount) + currency + s.secretHash)
}

// NotifySignature returns the md5sig the gateway posts with a notification:
// UPPER(MD5(merchant_id + order_id + amount + currency + status_code + UPPER(MD5(secret)))).
func (s *Signer) NotifySignature(orderID string, amount decimal.Decimal, currency string, statusCode int) string {
	return md5Upper(s.cfg.MerchantID + orderID + FormatAmount(amount) + currency + strconv.Itoa(statusCode) + s.secretHash)
}

// Verify checks a notification signature, which attests the status code as
// well as the order. The amount is reformatted to two decimals so "1500" and
// "1500.00" hash the same.
func (s *Signer) Verify(merchantID, orderID, amount, currency string, statusCode int, signature string) bool {
	if signature == "" || merchantID != s.cfg.MerchantID {
		return false
	}
	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return false
	}
	expected := s.NotifySignature(orderID, parsed, currency, statusCode)
	return hmac.Equal([]byte(expected), []byte(strings.ToUpper(strings.TrimSpace(signature))))
}

func md5Upper(v string) string {
	sum := md5.Sum([]byte(v))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
