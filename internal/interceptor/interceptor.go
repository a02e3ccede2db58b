// Package interceptor implements the catalog interceptor chain (spec.md
// §4.G): a registry of pre/post hooks, filtered by namespace.table pattern,
// invoked around catalog mutations and around transaction commit.
package interceptor

import "fmt"

// Kind discriminates the point in the catalog/commit lifecycle a hook fires
// at (spec.md §4.G).
type Kind int

const (
	TablePreInsert Kind = iota
	TablePostInsert
	TablePreUpdate
	TablePostUpdate
	TablePreDelete
	TablePostDelete
	ViewPreInsert
	ViewPostInsert
	ViewPreUpdate
	ViewPostUpdate
	ViewPreDelete
	ViewPostDelete
	PreCommit
	PostCommit
)

func (k Kind) String() string {
	names := [...]string{
		"TablePreInsert", "TablePostInsert", "TablePreUpdate", "TablePostUpdate",
		"TablePreDelete", "TablePostDelete", "ViewPreInsert", "ViewPostInsert",
		"ViewPreUpdate", "ViewPostUpdate", "ViewPreDelete", "ViewPostDelete",
		"PreCommit", "PostCommit",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return names[k]
}

// Filter matches a `namespace.table` address, with "*" as a wildcard
// segment (spec.md §4.G "InterceptFilter (namespace.table with
// wildcards)").
type Filter struct {
	Namespace string // "*" matches any namespace
	Table     string // "*" matches any table
}

// Matches reports whether the filter selects the given namespace.table.
func (f Filter) Matches(namespace, table string) bool {
	if f.Namespace != "*" && f.Namespace != namespace {
		return false
	}
	if f.Table != "*" && f.Table != table {
		return false
	}
	return true
}

// Event carries the context passed to a hook invocation: the target
// namespace/table, (for row-level hooks) the before/after row values as
// opaque encoded rows, and the identity of the caller whose transaction
// triggered it (spec.md §6 "the core does not enforce fine-grained policy;
// it carries the principal through to hooks") — IdentityID is empty and
// IsRoot is false for transactions opened without an external identity.
type Event struct {
	Namespace string
	Table     string
	Pre, Post []byte // row.Values, nil if not applicable to this Kind

	IdentityID string
	IsRoot     bool
}

// Interceptor is one registered hook. Implementations are expected to hold
// no shared mutable state across transactions; a Command transaction clones
// the chain it runs against (spec.md §4.G "the chain is cloned per
// transaction so hooks may hold transaction-scoped state").
type Interceptor interface {
	Intercept(ev Event) error
}

// InterceptorFunc adapts a plain function to the Interceptor interface.
type InterceptorFunc func(ev Event) error

func (f InterceptorFunc) Intercept(ev Event) error { return f(ev) }

type registration struct {
	filter      Filter
	interceptor Interceptor
}

// Chain is a registry of interceptors, one ordered list per Kind. A pre-hook
// returning an error aborts the operation; the remaining hooks in that
// kind's chain are not invoked.
type Chain struct {
	hooks map[Kind][]registration
}

// NewChain builds an empty chain.
func NewChain() *Chain {
	return &Chain{hooks: make(map[Kind][]registration)}
}

// Register appends interceptor to kind's chain, selected by filter. Hooks
// run in registration order.
func (c *Chain) Register(kind Kind, filter Filter, interceptor Interceptor) {
	c.hooks[kind] = append(c.hooks[kind], registration{filter: filter, interceptor: interceptor})
}

// Run invokes every registered hook of kind whose filter matches ev's
// namespace.table, in registration order, stopping at the first error.
func (c *Chain) Run(kind Kind, ev Event) error {
	for _, reg := range c.hooks[kind] {
		if !reg.filter.Matches(ev.Namespace, ev.Table) {
			continue
		}
		if err := reg.interceptor.Intercept(ev); err != nil {
			return fmt.Errorf("interceptor %s on %s.%s: %w", kind, ev.Namespace, ev.Table, err)
		}
	}
	return nil
}

// Clone returns a chain sharing the same registrations but with its own
// hook-list backing storage, safe for a transaction to carry and extend
// (e.g. registering a one-shot transaction-scoped hook) without mutating
// the catalog-wide chain (spec.md §4.G "cloned per transaction").
func (c *Chain) Clone() *Chain {
	clone := &Chain{hooks: make(map[Kind][]registration, len(c.hooks))}
	for kind, regs := range c.hooks {
		clone.hooks[kind] = append([]registration(nil), regs...)
	}
	return clone
}
