// Package payment abstracts the third-party payment gateways behind a
// charge/verify seam. The gateways themselves are external collaborators:
// the ledger core only needs a transaction id up front and a verified
// callback to reconcile against.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
)

var (
	ErrGatewayNotFound  = errors.New("payment gateway not found")
	ErrInvalidSignature = errors.New("invalid callback signature")
	ErrChargeFailed     = errors.New("charge creation failed")
)

// ChargeRequest describes a deposit charge to create upstream.
type ChargeRequest struct {
	Amount        float64
	Currency      string
	CustomerName  string
	CustomerEmail string
}

// Charge is the upstream gateway's handle for a created charge. Exactly one
// of PaymentURL (redirect gateways) or ClientSecret (embedded card forms)
// is set.
type Charge struct {
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url,omitempty"`
	ClientSecret  string `json:"client_secret,omitempty"`
}

// Verification is the outcome of validating a gateway callback payload.
type Verification struct {
	Success       bool
	TransactionID string
	Amount        float64
}

// Gateway is a payment provider able to create charges and verify callbacks.
type Gateway interface {
	// Name returns the provider key used in API routes and deposit records.
	Name() string

	// CreateCharge creates a charge upstream and returns its handle.
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)

	// VerifyCallback validates a callback payload and extracts its outcome.
	// An invalid signature returns ErrInvalidSignature.
	VerifyCallback(params map[string]string) (*Verification, error)
}

// Registry holds the configured gateways by name.
type Registry struct {
	gateways map[string]Gateway
}

// NewRegistry creates a gateway registry.
func NewRegistry(gateways ...Gateway) *Registry {
	m := make(map[string]Gateway, len(gateways))
	for _, g := range gateways {
		m[g.Name()] = g
	}
	return &Registry{gateways: m}
}

// Get returns the gateway registered under name.
func (r *Registry) Get(name string) (Gateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, ErrGatewayNotFound
	}
	return g, nil
}

// signParams computes the HMAC-SHA256 signature over the params (sorted
// key=value pairs joined with "&", signature key excluded).
func signParams(secret string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(h.Sum(nil))
}

// verifySignature checks the payload's signature field against the secret.
func verifySignature(secret string, params map[string]string) bool {
	expected := signParams(secret, params)
	return hmac.Equal([]byte(expected), []byte(params["signature"]))
}
