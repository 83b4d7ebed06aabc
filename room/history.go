package room

// History is the linear undo/redo stack of full-frame canvas snapshots
// for one room. Frames are opaque encoded blobs; step -1 means the
// canvas is empty. Drawing after an undo truncates the abandoned redo
// branch, so the history is always a single line, never a tree.
//
// History is not safe for concurrent use; callers mutate it under the
// owning room's lock.
type History struct {
	frames   []string
	step     int
	maxDepth int
}

// NewHistory returns an empty history. maxDepth bounds the number of
// retained frames; once exceeded the oldest frame is evicted. A
// maxDepth of zero or less disables the bound.
func NewHistory(maxDepth int) *History {
	return &History{step: -1, maxDepth: maxDepth}
}

// Draw appends frame as the new current step, discarding any frames
// that were still redoable.
func (h *History) Draw(frame string) {
	h.frames = append(h.frames[:h.step+1], frame)
	h.step = len(h.frames) - 1

	if h.maxDepth > 0 && len(h.frames) > h.maxDepth {
		overflow := len(h.frames) - h.maxDepth
		h.frames = append(h.frames[:0], h.frames[overflow:]...)
		h.step -= overflow
	}
}

// Undo steps back one frame and reports the frame now current, nil
// meaning the canvas is empty again. Undoing past the beginning changes
// nothing and returns ok=false.
func (h *History) Undo() (frame *string, ok bool) {
	if h.step < 0 {
		return nil, false
	}
	h.step--
	return h.Current(), true
}

// Redo steps forward one frame. Redoing past the end changes nothing
// and returns ok=false.
func (h *History) Redo() (frame *string, ok bool) {
	if h.step >= len(h.frames)-1 {
		return nil, false
	}
	h.step++
	return h.Current(), true
}

// Current returns the frame at the current step, or nil when the
// canvas is empty.
func (h *History) Current() *string {
	if h.step < 0 {
		return nil
	}
	frame := h.frames[h.step]
	return &frame
}

// Len reports the number of retained frames.
func (h *History) Len() int { return len(h.frames) }

// Step reports the current step index, -1 for an empty canvas.
func (h *History) Step() int { return h.step }
