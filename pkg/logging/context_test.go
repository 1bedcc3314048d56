package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestContext_RoundTrip(t *testing.T) {
	rc := RequestContext{
		RequestID:      "req-1",
		OrganizationID: "org-1",
		EnvironmentID:  "env-1",
	}

	assert.Equal(t, rc, FromContext(rc.ToContext(context.Background())))
}

func TestRequestContext_PartialValues(t *testing.T) {
	ctx := RequestContext{RequestID: "req-1"}.ToContext(context.Background())

	assert.Equal(t, "req-1", GetRequestID(ctx))
	org, env := GetTenant(ctx)
	assert.Empty(t, org)
	assert.Empty(t, env)
}

func TestWithTenant(t *testing.T) {
	ctx := WithTenant(context.Background(), "org-1", "env-1")

	org, env := GetTenant(ctx)
	assert.Equal(t, "org-1", org)
	assert.Equal(t, "env-1", env)
	assert.Empty(t, GetRequestID(ctx))
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGenerateRequestID(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
