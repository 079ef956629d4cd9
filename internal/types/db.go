package types

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// LockScope represents the scope of a database advisory lock
type LockScope string

const (
	// LockScopeDeferredRevenueInvoice serializes Open calls for the same invoice so the
	// one-active-record rule cannot be raced.
	LockScopeDeferredRevenueInvoice LockScope = "deferred_revenue_invoice"

	// LockScopeWIPPeriod serializes accumulation into a single (project, period) row.
	LockScopeWIPPeriod LockScope = "wip_period"
)

const DefaultLockTimeout = 30 * time.Second

// LockRequest describes an advisory lock to take inside the current transaction.
type LockRequest struct {
	Key     string
	Timeout *time.Duration
}

// GetTimeout returns the configured timeout, defaulting to DefaultLockTimeout when unset.
func (r LockRequest) GetTimeout() time.Duration {
	if r.Timeout == nil {
		return DefaultLockTimeout
	}
	return *r.Timeout
}

// GenerateLockKey builds a deterministic advisory-lock key of the form
// scope:k1=v1:k2=v2 with keys sorted. The tenant from ctx is included unless params set
// tenant_id explicitly.
func GenerateLockKey(ctx context.Context, scope LockScope, params map[string]interface{}) string {
	fields := lo.Assign(map[string]interface{}{}, params)
	if _, ok := fields["tenant_id"]; !ok {
		if tenantID := GetTenantID(ctx); tenantID != "" {
			fields["tenant_id"] = tenantID
		}
	}

	names := lo.Keys(fields)
	sort.Strings(names)

	parts := append([]string{string(scope)}, lo.Map(names, func(name string, _ int) string {
		return fmt.Sprintf("%s=%v", name, fields[name])
	})...)
	return strings.Join(parts, ":")
}
