package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"time"
)

const (
	suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffixLength   = 8
	tokenBytes     = 32
)

// NumberGenerator produces order numbers of the form yyyyMMdd-SSS-XXXXXXXX.
// Uniqueness is backed by the orders.order_number constraint, not by the generator.
type NumberGenerator struct {
	now    func() time.Time
	loc    *time.Location
	random io.Reader
}

func NewNumberGenerator(loc *time.Location) *NumberGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &NumberGenerator{now: time.Now, loc: loc, random: rand.Reader}
}

func (g *NumberGenerator) Next(storeID int64) (string, error) {
	suffix, err := randomSuffix(g.random)
	if err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return fmt.Sprintf("%s-%03d-%s", g.now().In(g.loc).Format("20060102"), storeID, suffix), nil
}

func randomSuffix(r io.Reader) (string, error) {
	base := big.NewInt(int64(len(suffixAlphabet)))
	b := make([]byte, suffixLength)
	for i := range b {
		n, err := rand.Int(r, base)
		if err != nil {
			return "", err
		}
		b[i] = suffixAlphabet[n.Int64()]
	}
	return string(b), nil
}

// NewAccessToken returns 64 hex characters a guest uses to prove order ownership.
func NewAccessToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// New builds a PENDING, PAID order with a fresh number and access token.
// The total is always derived from the items.
func New(gen *NumberGenerator, storeID, seatID int64, items []OrderItem) (*Order, error) {
	number, err := gen.Next(storeID)
	if err != nil {
		return nil, err
	}
	token, err := NewAccessToken()
	if err != nil {
		return nil, err
	}
	return &Order{
		OrderNumber:   number,
		AccessToken:   token,
		StoreID:       storeID,
		SeatID:        seatID,
		TotalAmount:   SumItems(items),
		Status:        InitialStatus(),
		PaymentStatus: PaymentStatusPaid,
		Items:         items,
	}, nil
}
