package logging

import (
	"context"

	"github.com/google/uuid"
)

// RequestContext holds the per-request values carried through ctx.
type RequestContext struct {
	RequestID      string
	OrganizationID string
	EnvironmentID  string
}

// ToContext stores the non-empty fields in ctx.
func (rc RequestContext) ToContext(ctx context.Context) context.Context {
	if rc.RequestID != "" {
		ctx = context.WithValue(ctx, RequestIDKey, rc.RequestID)
	}
	if rc.OrganizationID != "" {
		ctx = context.WithValue(ctx, OrganizationIDKey, rc.OrganizationID)
	}
	if rc.EnvironmentID != "" {
		ctx = context.WithValue(ctx, EnvironmentIDKey, rc.EnvironmentID)
	}
	return ctx
}

// FromContext extracts a RequestContext from ctx.
func FromContext(ctx context.Context) RequestContext {
	return RequestContext{
		RequestID:      stringValue(ctx, RequestIDKey),
		OrganizationID: stringValue(ctx, OrganizationIDKey),
		EnvironmentID:  stringValue(ctx, EnvironmentIDKey),
	}
}

// WithRequestID returns a copy of ctx carrying the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithTenant returns a copy of ctx carrying the organization and environment.
func WithTenant(ctx context.Context, organizationID, environmentID string) context.Context {
	return RequestContext{
		OrganizationID: organizationID,
		EnvironmentID:  environmentID,
	}.ToContext(ctx)
}

// GetRequestID returns the request ID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetTenant returns the organization and environment stored in ctx.
func GetTenant(ctx context.Context) (organizationID, environmentID string) {
	return stringValue(ctx, OrganizationIDKey), stringValue(ctx, EnvironmentIDKey)
}

// GenerateRequestID returns a new random request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}
