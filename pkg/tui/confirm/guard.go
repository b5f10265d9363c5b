package confirm

// Guard enforces that at most one modal in the tree is open.
// A single Guard is created by the root and handed to every modal.
// Access happens only on the update loop, so it is not locked.
type Guard struct {
	holder int
}

// NewGuard returns a free guard
func NewGuard() *Guard {
	return &Guard{}
}

// Acquire claims the guard for modal id. It fails when another modal holds it.
func (g *Guard) Acquire(id int) bool {
	if g.holder != 0 && g.holder != id {
		return false
	}
	g.holder = id
	return true
}

// Release frees the guard if id holds it
func (g *Guard) Release(id int) {
	if g.holder == id {
		g.holder = 0
	}
}

// Busy reports whether any modal is open
func (g *Guard) Busy() bool {
	return g.holder != 0
}

// Holder returns the id of the open modal, or 0
func (g *Guard) Holder() int {
	return g.holder
}
