// Package audit provides an audit trail for authorization decisions
// and rule reloads.
//
// Events are written as one JSON object per line to stdout, stderr, or
// a file. The authorizer emits a decision event for every verdict and
// a reload event for every reload attempt, so operators can reconstruct
// who was allowed to do what, and when the active rule set changed.
//
// The sink is an interface so brokers that already have a logging
// pipeline can supply their own implementation.
package audit
