package acl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vyrodovalexey/avmqacl/internal/audit"
	"github.com/vyrodovalexey/avmqacl/internal/observability"
)

// Authorizer is the ACL decision engine. It answers allow/deny for
// (principal type, principal name, operation, resource) tuples against
// a rule set that is reloaded from its Source when the source changes,
// at most once per freshness window.
//
// A single read/write lock guards the rule snapshot, the verdict cache
// and the freshness state as one unit, so a reader never observes a
// cache built for a different snapshot. Readers hold only the read
// lock; a reload holds the write lock exclusively.
type Authorizer struct {
	source Source

	mu           sync.RWMutex
	entries      []Entry
	cache        *verdictCache // nil when caching is disabled
	governor     freshnessGovernor
	marker       time.Time
	markerLoaded bool

	cacheThreshold int
	logger         observability.Logger
	metrics        *Metrics
	audit          audit.Logger
	nowFunc        func() time.Time
}

// Option is a functional option for the authorizer.
type Option func(*Authorizer)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(a *Authorizer) {
		a.logger = logger
	}
}

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(a *Authorizer) {
		a.metrics = metrics
	}
}

// WithAuditLogger sets the audit sink for decision and reload events.
func WithAuditLogger(sink audit.Logger) Option {
	return func(a *Authorizer) {
		a.audit = sink
	}
}

// WithFreshnessWindow sets the maximum interval between source change
// checks. Default is DefaultFreshnessWindow.
func WithFreshnessWindow(window time.Duration) Option {
	return func(a *Authorizer) {
		a.governor.window = window
	}
}

// WithCacheThreshold sets the rule count above which verdict caching
// is enabled. Default is DefaultCacheThreshold.
func WithCacheThreshold(threshold int) Option {
	return func(a *Authorizer) {
		a.cacheThreshold = threshold
	}
}

// New creates an authorizer and performs one synchronous reload, so
// the first CheckAccess call is never served against an empty rule
// set. It fails if the initial load fails.
func New(source Source, opts ...Option) (*Authorizer, error) {
	a := &Authorizer{
		source:         source,
		governor:       freshnessGovernor{window: DefaultFreshnessWindow},
		cacheThreshold: DefaultCacheThreshold,
		logger:         observability.NopLogger(),
		audit:          audit.NewNopLogger(),
		nowFunc:        time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.metrics == nil {
		a.metrics = NewMetrics("authorizer")
	}
	if a.governor.window <= 0 {
		a.governor.window = DefaultFreshnessWindow
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.governor.record(a.nowFunc())
	if _, err := a.reloadLocked(); err != nil {
		return nil, fmt.Errorf("initial rule load failed: %w", err)
	}

	return a, nil
}

// CheckAccess returns the allow/deny verdict for a request. The
// resource argument is formatted as "<resourceType>:<resourceName>".
//
// CheckAccess is total: it always returns a verdict and never fails
// past its boundary. A reload failure is logged and the request is
// evaluated against the last successfully loaded rules.
func (a *Authorizer) CheckAccess(principalType, principalName, operation, resource string) bool {
	start := a.nowFunc()

	// Verdicts are cached only for named-user principals.
	var key string
	if principalType == PrincipalTypeUser {
		key = cacheKey(resource, operation, principalName, principalType)
	}

	// Loop until the verdict is evaluated against fresh-enough state.
	for {
		a.mu.RLock()
		if !a.governor.due(start) {
			verdict, cached := a.evaluateLocked(key, principalType, principalName, operation, resource)
			a.mu.RUnlock()

			a.observeDecision(verdict, cached, principalType, principalName, operation, resource, a.nowFunc().Sub(start))
			return verdict
		}
		a.mu.RUnlock()

		a.mu.Lock()
		// Re-check under the write lock: another goroutine may have
		// reloaded while this one waited.
		if a.governor.due(start) {
			a.governor.record(start)
			if _, err := a.reloadLocked(); err != nil {
				a.logger.Error("rule reload failed, serving last-known-good rules",
					observability.Error(err),
				)
			}
		}
		a.mu.Unlock()
	}
}

// evaluateLocked produces a verdict under the read lock: verdict cache
// lookup first, then a first-match scan of the rule snapshot. Cache
// inserts are additive and per-key, safe under concurrent readers.
func (a *Authorizer) evaluateLocked(key, principalType, principalName, operation, resource string) (verdict, cached bool) {
	if key != "" && a.cache != nil {
		if v, ok := a.cache.get(key); ok {
			a.metrics.RecordCacheHit()
			return v, true
		}
		a.metrics.RecordCacheMiss()
	}

	for i := range a.entries {
		if a.entries[i].Matches(principalType, principalName, operation, resource) {
			verdict = true
			break
		}
	}

	if key != "" && a.cache != nil {
		a.cache.set(key, verdict)
	}

	return verdict, false
}

// observeDecision logs, audits and measures a decision. Allow is logged
// at debug, deny at info, mirroring the relative rarity operators care
// about.
func (a *Authorizer) observeDecision(verdict, cached bool, principalType, principalName, operation, resource string, elapsed time.Duration) {
	fields := []observability.Field{
		observability.String("operation", operation),
		observability.String("resource", resource),
		observability.String("principal_type", principalType),
		observability.String("principal", principalName),
		observability.Bool("cached", cached),
	}
	if verdict {
		a.logger.Debug("access allowed", fields...)
	} else {
		a.logger.Info("access denied", fields...)
	}

	a.metrics.RecordDecision(verdict, cached, elapsed)
	a.audit.LogEvent(context.Background(),
		audit.NewDecisionEvent(verdict, principalType, principalName, operation, resource, cached))
}

// ForceReload performs the write-locked reload path outside the normal
// freshness check, for operator-triggered refresh. It returns whether
// the active rule set actually changed. Failures keep the previous
// rules, identically to the periodic path.
func (a *Authorizer) ForceReload() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.governor.record(a.nowFunc())
	changed, err := a.reloadLocked()
	if err != nil {
		a.logger.Error("forced rule reload failed, serving last-known-good rules",
			observability.Error(err),
		)
	}
	return changed
}

// reloadLocked queries the source marker and, when it differs from the
// last known one, replaces the rule snapshot and verdict cache in one
// atomic publish. Caller must hold the write lock.
//
// Any failure leaves the previous snapshot and marker untouched and is
// returned for the caller to log; the whole candidate rule set is
// rejected on a parse error, never partially applied.
func (a *Authorizer) reloadLocked() (changed bool, err error) {
	marker, err := a.source.ModificationMarker()
	if err != nil {
		a.metrics.RecordReload("failure")
		a.audit.LogEvent(context.Background(), audit.NewReloadEvent(audit.OutcomeFailure, err.Error()))
		return false, err
	}

	if a.markerLoaded && marker.Equal(a.marker) {
		a.metrics.RecordReload("unchanged")
		return false, nil
	}

	entries, err := a.source.LoadEntries()
	if err != nil {
		a.metrics.RecordReload("failure")
		a.audit.LogEvent(context.Background(), audit.NewReloadEvent(audit.OutcomeFailure, err.Error()))
		return false, err
	}

	// Cache only pays off for non-trivial rule sets; below the
	// threshold a scan is cheaper than unbounded cache growth.
	if len(entries) > a.cacheThreshold {
		a.cache = newVerdictCache()
	} else {
		a.cache = nil
	}

	a.entries = entries
	a.marker = marker
	a.markerLoaded = true

	a.metrics.RecordReload("changed")
	a.metrics.SetRuleCount(len(entries))
	a.logger.Info("rules reloaded",
		observability.Int("count", len(entries)),
		observability.Bool("cache_enabled", a.cache != nil),
	)
	a.audit.LogEvent(context.Background(),
		audit.NewReloadEvent(audit.OutcomeChanged, fmt.Sprintf("%d rules active", len(entries))))

	return true, nil
}

// Entries returns a copy of the active rule snapshot.
func (a *Authorizer) Entries() []Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries := make([]Entry, len(a.entries))
	copy(entries, a.entries)
	return entries
}

// CacheStats returns verdict cache activity for the current snapshot.
func (a *Authorizer) CacheStats() CacheStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.cache == nil {
		return CacheStats{}
	}
	return CacheStats{
		Enabled: true,
		Hits:    a.cache.hits.Load(),
		Misses:  a.cache.misses.Load(),
	}
}
