package domain

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrBookNotFound        = errors.New("book not found")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrStoreUnavailable    = errors.New("loan store unavailable")
	ErrPublishFailed       = errors.New("failed to publish event")
	ErrMalformedEvent      = errors.New("malformed event payload")
)
