package middleware

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var _ tokenValidator = (*operatorTokens)(nil)

type issuedToken struct {
	operatorID uuid.UUID
	role       string
}

// operatorTokens accepts a fixed set of bearer tokens and records every token
// it was asked about.
type operatorTokens struct {
	issued map[string]issuedToken

	mu   sync.Mutex
	seen []string
}

func newOperatorTokens(issued map[string]issuedToken) *operatorTokens {
	return &operatorTokens{issued: issued}
}

func (v *operatorTokens) ValidateToken(_ context.Context, token string) (uuid.UUID, string, error) {
	v.mu.Lock()
	v.seen = append(v.seen, token)
	v.mu.Unlock()

	it, ok := v.issued[token]
	if !ok {
		return uuid.Nil, "", errors.New("token not issued")
	}
	return it.operatorID, it.role, nil
}

func (v *operatorTokens) Seen() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.seen...)
}
