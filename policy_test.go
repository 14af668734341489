package settings

import "testing"

func TestAllowAllPermitsEverything(t *testing.T) {
	policy := AllowAll()
	for _, op := range []Operation{OpSaveAll, OpFlipAutoload, OpErase} {
		if !policy.Allow(op, WriteContext{Operation: op}) {
			t.Fatalf("AllowAll denied %s", op)
		}
	}
}

func TestPolicyChainGenericVeto(t *testing.T) {
	chain := PolicyChain{
		Generic: WritePolicyFunc(func(op Operation, _ WriteContext) bool {
			return op != OpErase
		}),
	}
	if chain.Allow(OpErase, WriteContext{Scope: SiteScope()}) {
		t.Fatalf("generic gate must veto erase")
	}
	if !chain.Allow(OpSaveAll, WriteContext{Scope: SiteScope()}) {
		t.Fatalf("generic gate must permit save")
	}
}

func TestPolicyChainScopedGate(t *testing.T) {
	var consulted int
	chain := PolicyChain{
		Scoped: map[ScopeKind]WritePolicy{
			ScopeNetwork: WritePolicyFunc(func(Operation, WriteContext) bool {
				consulted++
				return false
			}),
		},
	}

	if chain.Allow(OpSaveAll, WriteContext{Scope: NetworkScope()}) {
		t.Fatalf("scoped gate must veto network writes")
	}
	if consulted != 1 {
		t.Fatalf("scoped gate consulted %d times, want 1", consulted)
	}
	// Other scope kinds skip the network gate.
	if !chain.Allow(OpSaveAll, WriteContext{Scope: SiteScope()}) {
		t.Fatalf("unbound scope kinds must pass")
	}
}

func TestPolicyChainGenericShortCircuitsScoped(t *testing.T) {
	var scopedConsulted bool
	chain := PolicyChain{
		Generic: WritePolicyFunc(func(Operation, WriteContext) bool { return false }),
		Scoped: map[ScopeKind]WritePolicy{
			ScopeSite: WritePolicyFunc(func(Operation, WriteContext) bool {
				scopedConsulted = true
				return true
			}),
		},
	}
	if chain.Allow(OpSaveAll, WriteContext{Scope: SiteScope()}) {
		t.Fatalf("generic veto must win")
	}
	if scopedConsulted {
		t.Fatalf("scoped gate must not run after a generic veto")
	}
}

func TestNilWritePolicyFuncPermits(t *testing.T) {
	var fn WritePolicyFunc
	if !fn.Allow(OpSaveAll, WriteContext{}) {
		t.Fatalf("nil func must permit")
	}
}
