package model

import "encoding/json"

// FeatureObject is one feature record published by a peer service.
// The broker never interprets it; it only concatenates lists of them.
type FeatureObject = json.RawMessage

// ServiceDescriptor identifies a registered service and where to reach it.
type ServiceDescriptor struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// InternalDescriptor is the body served by every fleet member at
// GET {url}/internal. Only Config.Features is consumed by the aggregator.
type InternalDescriptor struct {
	Name    string         `json:"name"`
	Version string         `json:"version,omitempty"`
	URL     string         `json:"url,omitempty"`
	Config  InternalConfig `json:"config"`
}

// InternalConfig carries the features a service exposes.
type InternalConfig struct {
	Features []FeatureObject `json:"features"`
}
