package chat

// HistoryIndex is a subscriber's scrollback position, counted back from the
// newest line. The zero value is "none": the subscriber is reading live.
type HistoryIndex struct {
	i   int
	set bool
}

// Get returns the position, or false when none.
func (h HistoryIndex) Get() (int, bool) { return h.i, h.set }

// Inc moves one line older. From none it goes to the newest line; at last it
// stays put. A negative last means there is no history.
func (h *HistoryIndex) Inc(last int) {
	if last < 0 {
		return
	}
	if !h.set {
		h.i, h.set = 0, true
		return
	}
	if h.i < last {
		h.i++
	}
}

// Dec moves one line newer. Below the newest line it becomes none, and none
// stays none.
func (h *HistoryIndex) Dec() {
	if !h.set {
		return
	}
	if h.i == 0 {
		h.set = false
		return
	}
	h.i--
}

func (h *HistoryIndex) Reset() { *h = HistoryIndex{} }
