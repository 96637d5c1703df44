// Package admin provides the administrative HTTP API for the ACL
// authorizer.
//
// Endpoints:
//
//	GET  /healthz    liveness probe
//	GET  /readyz     readiness probe with the active rule count
//	GET  /metrics    Prometheus metrics
//	POST /v1/reload  force a rule reload (rate limited)
//	POST /v1/check   evaluate an authorization request, for operators
//	GET  /v1/rules   dump the active rule snapshot
//	GET  /v1/cache   verdict cache statistics
//	POST /v1/authenticate  verify credentials (when a verifier is wired)
//
// The check endpoint goes through the same CheckAccess path as the
// broker hook, including freshness checks and verdict caching, so an
// operator sees exactly what the broker would see.
package admin
