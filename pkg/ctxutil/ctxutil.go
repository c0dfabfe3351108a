package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	operatorIDKey ctxKey = "operator_id"
	roleKey       ctxKey = "role"
	requestIDKey  ctxKey = "request_id"
)

const adminRole = "admin"

// WithOperator stores the authenticated operator and their role in the context.
func WithOperator(ctx context.Context, id uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, operatorIDKey, id)
	return context.WithValue(ctx, roleKey, role)
}

// OperatorIDFromCtx extracts the operator ID from the context.
// Returns uuid.Nil and false if the value is missing, nil UUID, or wrong type.
func OperatorIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(operatorIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// RoleFromCtx returns the operator role, or "" when unauthenticated.
func RoleFromCtx(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

// IsAdminCtx reports whether the context carries the admin role.
func IsAdminCtx(ctx context.Context) bool {
	return RoleFromCtx(ctx) == adminRole
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
