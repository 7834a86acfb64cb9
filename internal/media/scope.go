package media

import "sync"

// Scope owns a set of handles and releases all of them on Close.
// Minting or adopting into a closed scope releases immediately.
type Scope struct {
	reg     *Registry
	mu      sync.Mutex
	handles []*Handle
	closed  bool
}

// Mint mints an asset owned by the scope.
func (s *Scope) Mint(asset Asset) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrScopeClosed
	}

	h, err := s.reg.Mint(asset)
	if err != nil {
		return nil, err
	}

	s.handles = append(s.handles, h)

	return h, nil
}

// Adopt transfers ownership of an existing handle to the scope.
func (s *Scope) Adopt(h *Handle) {
	if h == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		h.Release()
		return
	}

	s.handles = append(s.handles, h)
}

// Close releases every handle the scope owns. Safe to call more than once.
func (s *Scope) Close() {
	s.mu.Lock()
	handles := s.handles
	s.handles = nil
	s.closed = true
	s.mu.Unlock()

	for _, h := range handles {
		h.Release()
	}
}

// Len returns the number of handles currently owned.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.handles)
}
