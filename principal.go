package reifydb

// Principal identifies the caller of QueryAs/CommandAs/Subscribe (spec.md
// §6 "Identity / Auth"). The core never inspects Capabilities itself — it
// only carries the value through to catalog interceptor hooks, which are
// the layer a collaborator (the network front-end, in the full repo) uses
// to enforce policy.
type Principal struct {
	IdentityID   string
	IsRoot       bool
	Capabilities []string
}

// RootPrincipal returns the principal embedded callers (tests, the
// in-process engine) use when there is no external identity to carry.
func RootPrincipal() Principal {
	return Principal{IdentityID: "root", IsRoot: true}
}

// Can reports whether p carries capability. Root always can; this is the
// only policy decision the core itself makes, and it exists so internal
// bootstrapping code (creating the first namespace, running migrations)
// doesn't need to special-case "no principal" versus "root principal".
func (p Principal) Can(capability string) bool {
	if p.IsRoot {
		return true
	}
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
