package interceptor

import "testing"

func TestFilterWildcards(t *testing.T) {
	f := Filter{Namespace: "demo", Table: "*"}
	if !f.Matches("demo", "users") {
		t.Fatal("expected wildcard table to match")
	}
	if f.Matches("other", "users") {
		t.Fatal("expected namespace mismatch to reject")
	}
}

func TestChainRunsInRegistrationOrder(t *testing.T) {
	c := NewChain()
	var order []string
	c.Register(TablePreInsert, Filter{Namespace: "*", Table: "*"}, InterceptorFunc(func(ev Event) error {
		order = append(order, "first")
		return nil
	}))
	c.Register(TablePreInsert, Filter{Namespace: "*", Table: "*"}, InterceptorFunc(func(ev Event) error {
		order = append(order, "second")
		return nil
	}))

	if err := c.Run(TablePreInsert, Event{Namespace: "demo", Table: "users"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestPreHookErrorAbortsRemainingChain(t *testing.T) {
	c := NewChain()
	ran := false
	c.Register(TablePreInsert, Filter{Namespace: "*", Table: "*"}, InterceptorFunc(func(ev Event) error {
		return errBoom
	}))
	c.Register(TablePreInsert, Filter{Namespace: "*", Table: "*"}, InterceptorFunc(func(ev Event) error {
		ran = true
		return nil
	}))

	err := c.Run(TablePreInsert, Event{Namespace: "demo", Table: "users"})
	if err == nil {
		t.Fatal("expected error from first hook")
	}
	if ran {
		t.Fatal("expected second hook not to run after first aborted")
	}
}

func TestFilterRestrictsInvocation(t *testing.T) {
	c := NewChain()
	called := false
	c.Register(TablePreInsert, Filter{Namespace: "demo", Table: "users"}, InterceptorFunc(func(ev Event) error {
		called = true
		return nil
	}))
	c.Run(TablePreInsert, Event{Namespace: "demo", Table: "orders"})
	if called {
		t.Fatal("expected hook filtered to a different table not to run")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := NewChain()
	c.Register(PreCommit, Filter{Namespace: "*", Table: "*"}, InterceptorFunc(func(ev Event) error { return nil }))
	clone := c.Clone()
	clone.Register(PreCommit, Filter{Namespace: "*", Table: "*"}, InterceptorFunc(func(ev Event) error { return nil }))

	if len(c.hooks[PreCommit]) != 1 {
		t.Fatalf("expected original chain untouched, got %d hooks", len(c.hooks[PreCommit]))
	}
	if len(clone.hooks[PreCommit]) != 2 {
		t.Fatalf("expected clone to have its own extra hook, got %d hooks", len(clone.hooks[PreCommit]))
	}
}

type boomError struct{}

func (boomError) Error() string { return "boom" }

var errBoom = boomError{}
