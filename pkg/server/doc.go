// Package server exposes a [view.View] over HTTP.
//
// Routes:
//
//	GET  /healthz                 liveness probe
//	GET  /v1/model                current render model (JSON)
//	POST /v1/nodes/{id}/toggle    expand or collapse a group, returns the new model
//	GET  /v1/visibility           ids of the expanded groups
//	PUT  /v1/visibility           replace the expanded set, returns the new model
//	GET  /v1/diagnostics          diagnostics of the last cycle
//	POST /v1/refresh              recompute the layout
//	GET  /v1/render.svg           current model as SVG (?theme=dark)
//	GET  /metrics                 Prometheus metrics, when enabled
//
// Errors are returned as {"error": message, "code": code} with the HTTP
// status derived from the error code: an unknown node is 404, a superseded
// toggle is 409, a failed or timed out layout is 502 or 504. A failed layout
// leaves the previous model in place, so GET /v1/model keeps working.
//
// Every response carries the X-View-ID header identifying the view instance.
package server
