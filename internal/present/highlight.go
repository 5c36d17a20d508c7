package present

import "sync"

var highlight struct {
	mu     sync.Mutex
	target string
	open   bool
}

// BeginFrame opens a frame in which the agent with id target is
// highlighted, and returns the function closing it. An empty target
// highlights nothing.
func BeginFrame(target string) (end func()) {
	highlight.mu.Lock()
	highlight.target = target
	highlight.open = true
	highlight.mu.Unlock()
	return func() {
		highlight.mu.Lock()
		highlight.target = ""
		highlight.open = false
		highlight.mu.Unlock()
	}
}

// Highlighted returns the highlighted agent id, if a frame is open and has
// one.
func Highlighted() (string, bool) {
	highlight.mu.Lock()
	defer highlight.mu.Unlock()
	return highlight.target, highlight.open && highlight.target != ""
}
