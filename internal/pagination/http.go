package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// ErrInvalidPageParam is returned when skip or limit is not a non-negative integer.
var ErrInvalidPageParam = errors.New("invalid pagination parameter")

// ParsePageRequest extracts skip and limit from the query string. Missing
// values take their defaults and limit is capped at MaxLimit.
func ParsePageRequest(r *http.Request) (PageRequest, error) {
	req := DefaultPageRequest()
	q := r.URL.Query()

	if skip := q.Get("skip"); skip != "" {
		s, err := strconv.ParseInt(skip, 10, 64)
		if err != nil || s < 0 {
			return PageRequest{}, fmt.Errorf("%w: skip=%q", ErrInvalidPageParam, skip)
		}
		req.Skip = s
	}

	if limit := q.Get("limit"); limit != "" {
		l, err := strconv.ParseInt(limit, 10, 64)
		if err != nil || l < 0 {
			return PageRequest{}, fmt.Errorf("%w: limit=%q", ErrInvalidPageParam, limit)
		}
		req.Limit = l
	}

	req.Clamp(MaxLimit)
	return req, nil
}
