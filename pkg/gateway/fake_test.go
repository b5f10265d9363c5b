package gateway

import (
	"context"
)

type fakeBackend = MemoryBackend

func newFakeBackend() *fakeBackend {
	return NewMemoryBackend(
		SeedDatabase{Name: "admin", Collections: []string{"system.version"}},
		SeedDatabase{Name: "shop", Collections: []string{"orders", "users", "images.files", "images.chunks"}},
	)
}

// fakeDialer hands out backends and counts dials
type fakeDialer struct {
	dials   int
	backend func() *fakeBackend
	err     error
	last    *fakeBackend
}

func (d *fakeDialer) Dial(ctx context.Context, details ConnectionDetails) (Backend, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	if d.backend != nil {
		d.last = d.backend()
	} else {
		d.last = newFakeBackend()
	}
	return d.last, nil
}
