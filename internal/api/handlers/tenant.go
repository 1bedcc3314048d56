package handlers

import (
	"context"
	"net/http"

	"github.com/bargom/notifydal/internal/api/types"
	"github.com/bargom/notifydal/pkg/logging"
)

type tenantKey struct{}

// RequireTenant rejects requests without valid X-Organization-Id and
// X-Environment-Id headers and stores the tenant in the request context.
func (h *Handler) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := types.TenantHeaders{
			OrganizationID: r.Header.Get(logging.RequestHeaderOrganizationID),
			EnvironmentID:  r.Header.Get(logging.RequestHeaderEnvironmentID),
		}
		if err := h.validate.Struct(tenant); err != nil {
			h.respondValidationError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), tenantKey{}, tenant)
		ctx = logging.WithTenant(ctx, tenant.OrganizationID, tenant.EnvironmentID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantFromContext returns the tenant stored by RequireTenant.
func TenantFromContext(ctx context.Context) (types.TenantHeaders, bool) {
	t, ok := ctx.Value(tenantKey{}).(types.TenantHeaders)
	return t, ok
}
