package room

import "testing"

func TestHistory_Linearity(t *testing.T) {
	h := NewHistory(0)

	frames := []string{"F1", "F2", "F3", "F4"}
	for _, frame := range frames {
		h.Draw(frame)
	}

	if h.Len() != len(frames) {
		t.Fatalf("Expected %d frames, got %d", len(frames), h.Len())
	}
	if h.Step() != len(frames)-1 {
		t.Errorf("Expected step %d, got %d", len(frames)-1, h.Step())
	}

	current := h.Current()
	if current == nil || *current != "F4" {
		t.Errorf("Expected current frame F4, got %v", current)
	}
}

func TestHistory_EmptyCanvas(t *testing.T) {
	h := NewHistory(0)

	if h.Step() != -1 {
		t.Errorf("Expected step -1 on empty history, got %d", h.Step())
	}
	if h.Current() != nil {
		t.Error("Expected nil current frame on empty history")
	}
}

func TestHistory_UndoRedoRoundTrip(t *testing.T) {
	h := NewHistory(0)
	h.Draw("F1")
	h.Draw("F2")

	stepBefore := h.Step()

	frame, ok := h.Undo()
	if !ok {
		t.Fatal("Undo() should succeed with two frames")
	}
	if frame == nil || *frame != "F1" {
		t.Errorf("Expected F1 after undo, got %v", frame)
	}

	frame, ok = h.Redo()
	if !ok {
		t.Fatal("Redo() should succeed after undo")
	}
	if frame == nil || *frame != "F2" {
		t.Errorf("Expected F2 after redo, got %v", frame)
	}
	if h.Step() != stepBefore {
		t.Errorf("Step not restored: got %d, want %d", h.Step(), stepBefore)
	}
}

func TestHistory_UndoToEmpty(t *testing.T) {
	h := NewHistory(0)
	h.Draw("F1")

	frame, ok := h.Undo()
	if !ok {
		t.Fatal("Undo() should succeed at step 0")
	}
	if frame != nil {
		t.Errorf("Expected nil frame (empty canvas), got %q", *frame)
	}
	if h.Step() != -1 {
		t.Errorf("Expected step -1, got %d", h.Step())
	}

	// Past the beginning undo is a no-op.
	if _, ok := h.Undo(); ok {
		t.Error("Undo() past the beginning should report no change")
	}
	if h.Step() != -1 {
		t.Errorf("No-op undo moved step to %d", h.Step())
	}
}

func TestHistory_RedoAtEnd(t *testing.T) {
	h := NewHistory(0)
	h.Draw("F1")

	if _, ok := h.Redo(); ok {
		t.Error("Redo() at the end of history should report no change")
	}

	// Redo on an empty history is also a no-op.
	empty := NewHistory(0)
	if _, ok := empty.Redo(); ok {
		t.Error("Redo() on empty history should report no change")
	}
}

func TestHistory_RedoDiscard(t *testing.T) {
	h := NewHistory(0)
	h.Draw("F1")
	h.Draw("F2")
	h.Draw("F3")

	h.Undo()
	h.Undo()
	h.Draw("F4")

	if h.Len() != 2 {
		t.Fatalf("Expected 2 frames after redo discard, got %d", h.Len())
	}

	// F2 and F3 are permanently unreachable.
	if _, ok := h.Redo(); ok {
		t.Error("Redo() should find nothing after the branch was discarded")
	}

	current := h.Current()
	if current == nil || *current != "F4" {
		t.Errorf("Expected current frame F4, got %v", current)
	}

	frame, ok := h.Undo()
	if !ok || frame == nil || *frame != "F1" {
		t.Errorf("Expected F1 below the new branch, got %v", frame)
	}
}

func TestHistory_RedoAfterUndoToEmpty(t *testing.T) {
	h := NewHistory(0)
	h.Draw("F1")
	h.Undo()

	frame, ok := h.Redo()
	if !ok || frame == nil || *frame != "F1" {
		t.Errorf("Expected F1 redone from empty canvas, got %v", frame)
	}
}

func TestHistory_DepthEviction(t *testing.T) {
	h := NewHistory(3)

	for _, frame := range []string{"F1", "F2", "F3", "F4", "F5"} {
		h.Draw(frame)
	}

	if h.Len() != 3 {
		t.Fatalf("Expected history capped at 3 frames, got %d", h.Len())
	}

	current := h.Current()
	if current == nil || *current != "F5" {
		t.Errorf("Expected current frame F5, got %v", current)
	}

	// Only the two retained predecessors are undoable.
	frame, _ := h.Undo()
	if frame == nil || *frame != "F4" {
		t.Errorf("Expected F4, got %v", frame)
	}
	frame, _ = h.Undo()
	if frame == nil || *frame != "F3" {
		t.Errorf("Expected F3, got %v", frame)
	}
	frame, ok := h.Undo()
	if !ok || frame != nil {
		t.Errorf("Expected empty canvas below evicted frames, got %v", frame)
	}
}

func TestHistory_UnboundedWhenDepthZero(t *testing.T) {
	h := NewHistory(0)

	for i := 0; i < 1000; i++ {
		h.Draw("frame")
	}

	if h.Len() != 1000 {
		t.Errorf("Expected 1000 frames with no bound, got %d", h.Len())
	}
}
