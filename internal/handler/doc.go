// Package handler provides the HTTP route layer of the config broker.
//
// Handlers are thin: they decode the request, call one service method and
// encode the result. Each handler registers its own routes:
//
//	mux := http.NewServeMux()
//	handler.NewConfigHandler(configService).RegisterRoutes(mux)
//	handler.NewFeatureHandler(collector).RegisterRoutes(mux)
//
// # Routes
//
//	GET    /config/{key}            resolved entry {"<key>": content}
//	GET    /config                  persisted entries [{key, content}]
//	POST   /config                  create {key, content}; 409 if it exists
//	PUT    /config                  update {key, content}; 404 if absent
//	DELETE /config/{key}            true; 404 if absent
//	DELETE /config                  true
//	GET    /features                merged fleet feature list
//	GET    /services/{name}/config  raw /internal body of one service
//	GET    /internal                this service's descriptor
//	GET    /health                  store reachability
//
// # Errors
//
// Service errors go through MapServiceError and are written as RFC 9457
// Problem Details with Content-Type application/problem+json.
package handler
