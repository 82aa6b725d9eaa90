package permission

// ID identifies one permission granted through the session claims.
type ID string

// Actions used by the resource screens.
const (
	View    = "view"
	Create  = "create"
	Update  = "update"
	Delete  = "delete"
	Print   = "print"
	Export  = "export"
	Confirm = "confirm"
)

// For names the permission id for an entity/action pair, e.g. customer.create.
func For(entity, action string) ID {
	return ID(entity + "." + action)
}

// Gate answers membership checks against the permissions of the current claims.
// The zero Gate grants nothing.
type Gate struct {
	ids map[ID]struct{}
}

// NewGate builds a gate from the claims' permission list.
func NewGate(ids []string) Gate {
	g := Gate{ids: make(map[ID]struct{}, len(ids))}
	for _, id := range ids {
		g.ids[ID(id)] = struct{}{}
	}
	return g
}

// Has reports whether id was granted.
func (g Gate) Has(id ID) bool {
	if g.ids == nil || id == "" {
		return false
	}
	_, ok := g.ids[id]
	return ok
}

// Len is the number of granted permissions.
func (g Gate) Len() int {
	return len(g.ids)
}
