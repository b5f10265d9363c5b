package listnav

import "testing"

func TestNavigator_MovesWithinBounds(t *testing.T) {
	n := New()
	n.SetHeight(2)
	n.SetCount(3)

	if n.Up() {
		t.Fatal("Up() at the top must report no change")
	}
	if !n.Down() || !n.Down() {
		t.Fatal("expected two successful Down() calls")
	}
	if n.Down() {
		t.Fatal("Down() at the bottom must report no change")
	}
	if n.Cursor() != 2 || n.Offset() != 1 {
		t.Fatalf("cursor=%d offset=%d, want 2/1", n.Cursor(), n.Offset())
	}
	if start, end := n.Window(); start != 1 || end != 3 {
		t.Fatalf("Window() = %d,%d, want 1,3", start, end)
	}
}

func TestNavigator_ShrinkingListClampsCursor(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		cursor     int
		newCount   int
		wantCursor int
	}{
		{"shrinks below cursor", 5, 4, 2, 1},
		{"emptied", 5, 3, 0, 0},
		{"grows", 2, 1, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New()
			n.SetCount(tt.count)
			n.Set(tt.cursor)
			n.SetCount(tt.newCount)
			if n.Cursor() != tt.wantCursor {
				t.Errorf("Cursor() = %d, want %d", n.Cursor(), tt.wantCursor)
			}
		})
	}
}

func TestNavigator_TopBottom(t *testing.T) {
	n := New()
	n.SetHeight(3)
	n.SetCount(8)

	if !n.Bottom() || n.Cursor() != 7 || n.Offset() != 5 {
		t.Fatalf("Bottom(): cursor=%d offset=%d", n.Cursor(), n.Offset())
	}
	if !n.Top() || n.Cursor() != 0 || n.Offset() != 0 {
		t.Fatalf("Top(): cursor=%d offset=%d", n.Cursor(), n.Offset())
	}
}
