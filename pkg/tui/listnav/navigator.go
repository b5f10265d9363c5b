// Package listnav keeps cursor and scroll position for a rendered list.
// It does not render.
package listnav

// Navigator tracks the cursor and the first visible row of a list whose
// contents are owned elsewhere and may be replaced at any time.
type Navigator struct {
	cursor int
	offset int
	count  int
	height int
}

// New returns a navigator with a ten-row viewport
func New() *Navigator {
	return &Navigator{height: 10}
}

// Cursor returns the index under the cursor
func (n *Navigator) Cursor() int {
	return n.cursor
}

// Offset returns the index of the first visible row
func (n *Navigator) Offset() int {
	return n.offset
}

// SetCount records the list length after a reload and clamps the cursor
func (n *Navigator) SetCount(count int) {
	if count < 0 {
		count = 0
	}
	n.count = count
	n.clamp()
}

// SetHeight sets the number of visible rows
func (n *Navigator) SetHeight(h int) {
	if h < 1 {
		h = 1
	}
	n.height = h
	n.clamp()
}

// Up moves the cursor one row up
func (n *Navigator) Up() bool {
	if n.cursor == 0 {
		return false
	}
	n.cursor--
	n.clamp()
	return true
}

// Down moves the cursor one row down
func (n *Navigator) Down() bool {
	if n.cursor >= n.count-1 {
		return false
	}
	n.cursor++
	n.clamp()
	return true
}

// Top jumps to the first row
func (n *Navigator) Top() bool {
	if n.cursor == 0 {
		return false
	}
	n.cursor = 0
	n.clamp()
	return true
}

// Bottom jumps to the last row
func (n *Navigator) Bottom() bool {
	if n.count == 0 || n.cursor == n.count-1 {
		return false
	}
	n.cursor = n.count - 1
	n.clamp()
	return true
}

// Set moves the cursor to idx, clamped to the list
func (n *Navigator) Set(idx int) {
	n.cursor = idx
	n.clamp()
}

// Window returns the half-open range of visible rows
func (n *Navigator) Window() (start, end int) {
	end = n.offset + n.height
	if end > n.count {
		end = n.count
	}
	return n.offset, end
}

// clamp keeps the cursor inside the list and the cursor inside the window
func (n *Navigator) clamp() {
	if n.count == 0 {
		n.cursor, n.offset = 0, 0
		return
	}
	if n.cursor < 0 {
		n.cursor = 0
	}
	if n.cursor >= n.count {
		n.cursor = n.count - 1
	}
	if n.cursor < n.offset {
		n.offset = n.cursor
	}
	if n.cursor >= n.offset+n.height {
		n.offset = n.cursor - n.height + 1
	}
	if maxOffset := max(0, n.count-n.height); n.offset > maxOffset {
		n.offset = maxOffset
	}
}
