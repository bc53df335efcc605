package domain

import "errors"

var (
	// ErrValidation is returned when a product fails validation on insert
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a product (or its history) cannot be found
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned when an operation receives unusable input,
	// such as an empty set to aggregate
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrAPIFailure is returned when a request to the price API fails
	ErrAPIFailure = errors.New("price API request failed")
)
