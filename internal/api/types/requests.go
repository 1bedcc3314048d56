// Package types defines API request and response types.
package types

// TenantHeaders scopes every /v1 request to one organization and environment.
type TenantHeaders struct {
	OrganizationID string `validate:"required,mongodb"`
	EnvironmentID  string `validate:"required,mongodb"`
}

// ActiveListParams are the query parameters of the active list endpoint.
type ActiveListParams struct {
	Active string `validate:"omitempty,boolean"`
}

// TemplateIDParam is the {id} path parameter.
type TemplateIDParam struct {
	ID string `validate:"required,mongodb"`
}
