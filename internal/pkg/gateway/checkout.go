package gateway

import (
	"github.com/shopspring/decimal"
)

// Customer holds the buyer fields the gateway requires on checkout.
type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// CheckoutParams is returned to the client, which posts them to CheckoutURL.
type CheckoutParams struct {
	CheckoutURL string `json:"checkout_url"`
	MerchantID  string `json:"merchant_id"`
	ReturnURL   string `json:"return_url"`
	CancelURL   string `json:"cancel_url"`
	NotifyURL   string `json:"notify_url"`
	OrderID     string `json:"order_id"`
	Items       string `json:"items"`
	Currency    string `json:"currency"`
	Amount      string `json:"amount"`
	Hash        string `json:"hash"`
	Customer
}

// Checkout assembles signed checkout parameters for an order.
func (s *Signer) Checkout(orderID, items string, amount decimal.Decimal, currency string, customer Customer) CheckoutParams {
	if currency == "" {
		currency = s.cfg.Currency
	}
	if customer.Country == "" {
		customer.Country = "Sri Lanka"
	}
	return CheckoutParams{
		CheckoutURL: s.cfg.CheckoutURL,
		MerchantID:  s.cfg.MerchantID,
		ReturnURL:   s.cfg.ReturnURL,
		CancelURL:   s.cfg.CancelURL,
		NotifyURL:   s.cfg.NotifyURL,
		OrderID:     orderID,
		Items:       items,
		Currency:    currency,
		Amount:      FormatAmount(amount),
		Hash:        s.Hash(orderID, amount, currency),
		Customer:    customer,
	}
}

// Notification is the form body posted to the notify URL.
type Notification struct {
	MerchantID     string `form:"merchant_id" json:"merchant_id"`
	OrderID        string `form:"order_id" json:"order_id"`
	PaymentID      string `form:"payment_id" json:"payment_id"`
	Amount         string `form:"payhere_amount" json:"payhere_amount"`
	Currency       string `form:"payhere_currency" json:"payhere_currency"`
	StatusCode     int    `form:"status_code" json:"status_code"`
	Signature      string `form:"md5sig" json:"md5sig"`
	Method         string `form:"method" json:"method,omitempty"`
	StatusMessage  string `form:"status_message" json:"status_message,omitempty"`
	CardHolderName string `form:"card_holder_name" json:"card_holder_name,omitempty"`
}

// VerifyNotification checks the notification signature.
func (s *Signer) VerifyNotification(n Notification) bool {
	return s.Verify(n.MerchantID, n.OrderID, n.Amount, n.Currency, n.StatusCode, n.Signature)
}
