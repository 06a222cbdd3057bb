// Package httpapi exposes a soundalike engine over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /v1/categories
//	GET  /v1/clusters
//	GET  /v1/assignments
//	GET  /v1/recommendations/track/{id}?n=5
//	GET  /v1/recommendations/category/{name}?n=5
//	POST /v1/reload
//	GET  /metrics
//
// Errors are returned as {"error": "...", "code": "..."}.
package httpapi
