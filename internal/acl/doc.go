// Package acl implements the authorization decision engine for a
// multi-tenant message broker.
//
// The engine answers allow/deny for (principal type, principal name,
// operation, resource) tuples against an ordered rule set loaded from
// a Source, typically a JSON file. Rules grant access only; there are
// no deny rules, and any request no rule grants is denied.
//
// # Freshness
//
// The rule set is re-checked against the source at most once per
// freshness window (10s by default): on the first request past the
// window the engine compares the source's modification marker and
// reloads only when it changed. A failed reload is logged and the
// last successfully loaded rules keep serving.
//
// # Caching
//
// For rule sets larger than a threshold (10 by default) verdicts for
// named-user principals are memoized in a cache that is rebuilt
// wholesale on every reload. Cache inserts happen under the engine's
// read lock, so the cache synchronizes its own mutations.
//
// # Usage
//
//	source := acl.NewFileSource("/etc/broker/acl.json")
//	authorizer, err := acl.New(source,
//	    acl.WithLogger(logger),
//	    acl.WithFreshnessWindow(10*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	allowed := authorizer.CheckAccess("User", "alice", "Write", "Topic:orders")
//
// # Rule file format
//
// A JSON array of objects:
//
//	[
//	  {
//	    "principal_type": "User",
//	    "principal": "alice",
//	    "operation": "Write",
//	    "resource_type": "Topic",
//	    "resource_pattern": "orders"
//	  }
//	]
//
// principal, operation and resource_type accept "*" as a full
// wildcard; resource_pattern additionally supports a trailing "*" for
// prefix matching ("orders-*"). principal_type is always matched
// exactly.
package acl
