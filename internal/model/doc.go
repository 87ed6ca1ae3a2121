// Package model defines the data structures shared by every layer of the
// config broker.
//
// # Domain Types
//
//   - ConfigEntry: a key with string, number, timestamp or object content
//   - FeatureObject: an opaque feature record published by a peer service
//   - ServiceDescriptor: a registry entry (name and base URL)
//   - InternalDescriptor: the body every service serves at GET /internal
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type   string `json:"type"`
//	    Title  string `json:"title"`
//	    Status int    `json:"status"`
//	    Detail string `json:"detail,omitempty"`
//	}
package model
