// Package payment models the external payment and refund capabilities. The
// orchestrator only sees the interfaces; the bundled implementation mocks a
// gateway with a configurable success rate.
package payment

import (
	"context"
	"encoding/hex"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

type Result struct {
	Success   bool
	PaymentID string
}

// Gateway attempts to charge a booking. Decline is a normal outcome carried
// in Result, not an error.
type Gateway interface {
	Attempt(ctx context.Context, method string) (Result, error)
}

// Refunder issues a refund and returns its identifier. Assumed to succeed
// once called; de-duplication is the caller's job.
type Refunder interface {
	Attempt(ctx context.Context) (string, error)
}

type MockGateway struct {
	successRate float64
}

func NewMockGateway(successRate float64) *MockGateway {
	return &MockGateway{successRate: successRate}
}

func (g *MockGateway) Attempt(ctx context.Context, method string) (Result, error) {
	return Result{
		Success:   rand.Float64() < g.successRate,
		PaymentID: NewID("PAY", 12),
	}, nil
}

type MockRefunder struct{}

func NewMockRefunder() *MockRefunder {
	return &MockRefunder{}
}

func (r *MockRefunder) Attempt(ctx context.Context) (string, error) {
	return NewID("REF", 12), nil
}

// NewID builds an identifier from a prefix plus the first n upper-hex
// characters of a fresh UUID, e.g. PAY9C41F07A2B3D.
func NewID(prefix string, n int) string {
	u := uuid.New()
	return prefix + strings.ToUpper(hex.EncodeToString(u[:]))[:n]
}

var (
	_ Gateway  = (*MockGateway)(nil)
	_ Refunder = (*MockRefunder)(nil)
)
