// Package pagination provides skip/limit pagination for list queries.
package pagination

const (
	// DefaultLimit is the number of items returned when no limit is given.
	DefaultLimit = 10
	// MaxLimit is the largest limit accepted from external callers.
	MaxLimit = 100
)

// PageRequest contains skip/limit pagination parameters.
type PageRequest struct {
	Skip  int64 `json:"skip"`
	Limit int64 `json:"limit"`
}

// Result is a page of items together with the total number of matches.
type Result[T any] struct {
	TotalCount int64 `json:"totalCount"`
	Data       []T   `json:"data"`
}

// DefaultPageRequest returns the first page with the default limit.
func DefaultPageRequest() PageRequest {
	return PageRequest{Skip: 0, Limit: DefaultLimit}
}

// NewPageRequest builds a normalized PageRequest.
func NewPageRequest(skip, limit int64) PageRequest {
	pr := PageRequest{Skip: skip, Limit: limit}
	pr.Normalize()
	return pr
}

// Normalize replaces a negative skip with 0 and a non-positive limit with
// DefaultLimit. It does not cap the limit; see Clamp.
func (pr *PageRequest) Normalize() {
	if pr.Skip < 0 {
		pr.Skip = 0
	}
	if pr.Limit <= 0 {
		pr.Limit = DefaultLimit
	}
}

// Clamp normalizes the request and caps the limit at max.
func (pr *PageRequest) Clamp(max int64) {
	pr.Normalize()
	if max > 0 && pr.Limit > max {
		pr.Limit = max
	}
}

// NewResult builds a Result. A nil data slice becomes empty so it encodes as [].
func NewResult[T any](data []T, totalCount int64) *Result[T] {
	if data == nil {
		data = []T{}
	}
	return &Result[T]{
		TotalCount: totalCount,
		Data:       data,
	}
}
