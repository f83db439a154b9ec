package export

import (
	"fmt"
	"sync"
)

// Names hands out collision-free output names. The first claim of a base
// name gets it unchanged; later claims get a numeric suffix in claim
// order: icon, icon_1, icon_2.
type Names struct {
	mu    sync.Mutex
	taken map[string]int
}

// NewNames creates an empty name allocator.
func NewNames() *Names {
	return &Names{taken: make(map[string]int)}
}

// Allocate claims a unique name derived from base. Safe for concurrent
// use, though callers that need stable suffixes must allocate in a fixed
// order.
func (n *Names) Allocate(base string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	count, ok := n.taken[base]
	if !ok {
		n.taken[base] = 0
		return base
	}

	for {
		count++
		candidate := fmt.Sprintf("%s_%d", base, count)
		if _, clash := n.taken[candidate]; !clash {
			n.taken[base] = count
			n.taken[candidate] = 0
			return candidate
		}
	}
}
