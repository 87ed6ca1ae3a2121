package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Config Entry Errors =====
var (
	ErrConfigExists   = errors.New("config entry already exists")
	ErrConfigNotFound = errors.New("config entry not found")
	ErrKeyRequired    = errors.New("config key is required")
)

// ===== Feature Aggregation Errors =====
var (
	ErrServiceNotFound = errors.New("service not found")
	ErrUpstream        = errors.New("upstream service request failed")
	ErrAggregation     = errors.New("can't load services config")
)
