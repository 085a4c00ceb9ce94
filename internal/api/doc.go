// Package api exposes the deployment request service over HTTP.
//
// Routes:
//
//	POST /api/deploy              accept a deployment request
//	GET  /api/deployments         most recent deployment requests
//	GET  /api/deployments/{id}    a single deployment request
//	GET  /healthz                 liveness
//	GET  /readyz                  readiness (database ping)
//	GET  /metrics                 Prometheus metrics
package api
