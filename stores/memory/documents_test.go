package memory

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"whiteboard-server/core"
)

const frameFixture = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUg=="

func frameDoc(data string) *core.Document {
	return &core.Document{Data: *bytes.NewBufferString(data)}
}

func TestExportRoundTrip(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	id, err := store.Create(ctx, frameDoc(frameFixture))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if len(id) != 26 {
		t.Errorf("Expected a 26-character ULID, got %q", id)
	}

	retrieved, err := store.FindID(ctx, id)
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if retrieved.Data.String() != frameFixture {
		t.Errorf("Frame mismatch: got %q, want %q", retrieved.Data.String(), frameFixture)
	}
}

func TestFindUnknownID(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	for _, id := range []string{"01ARZ3NDEKTSV4RRFFQ69G5FAV", ""} {
		_, err := store.FindID(ctx, id)
		if err == nil {
			t.Fatalf("FindID(%q) should fail for an unknown id", id)
		}
		want := fmt.Sprintf("document with id %s not found", id)
		if err.Error() != want {
			t.Errorf("FindID(%q) error mismatch: got %q, want %q", id, err.Error(), want)
		}
	}
}

func TestPayloadFidelity(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	cases := []struct {
		name string
		data string
	}{
		{"frame", frameFixture},
		{"empty", ""},
		{"binary", "\x89PNG\r\n\x1a\n\x00\x01\x02"},
		{"large frame", "data:image/png;base64," + strings.Repeat("A", 1024*1024)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := store.Create(ctx, frameDoc(tc.data))
			if err != nil {
				t.Fatalf("Create() failed: %v", err)
			}
			retrieved, err := store.FindID(ctx, id)
			if err != nil {
				t.Fatalf("FindID() failed: %v", err)
			}
			if retrieved.Data.String() != tc.data {
				t.Errorf("Export not stored verbatim: got %d bytes, want %d", retrieved.Data.Len(), len(tc.data))
			}
		})
	}
}

func TestStoredFrameIsolatedFromCallers(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	posted := frameDoc(frameFixture)
	id, err := store.Create(ctx, posted)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// Mutating the posted buffer and a retrieved copy must not reach
	// the stored frame.
	posted.Data.Reset()
	posted.Data.WriteString("clobbered")

	first, err := store.FindID(ctx, id)
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	first.Data.Reset()

	second, err := store.FindID(ctx, id)
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if second.Data.String() != frameFixture {
		t.Errorf("Stored frame was mutated through a caller's buffer: got %q", second.Data.String())
	}
}

func TestStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store1 := NewDocumentStore()
	store2 := NewDocumentStore()

	id, err := store1.Create(ctx, frameDoc(frameFixture))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if _, err := store2.FindID(ctx, id); err == nil {
		t.Error("FindID() on a second store instance should not see exports from the first")
	}
}

func TestConcurrentCreate(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	numWriters := 50

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]bool)
	)
	for i := 0; i < numWriters; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			id, err := store.Create(ctx, frameDoc(fmt.Sprintf("frame-%d", index)))
			if err != nil {
				t.Errorf("Concurrent Create() failed: %v", err)
				return
			}
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(ids) != numWriters {
		t.Errorf("Expected %d unique ids, got %d", numWriters, len(ids))
	}
}

func TestRoomRegistry(t *testing.T) {
	ctx := context.Background()
	registry := NewDocumentStore().(*exportStore)

	if err := registry.TouchRoom(ctx, ""); err == nil {
		t.Error("TouchRoom() should reject an empty room id")
	}

	if err := registry.TouchRoom(ctx, "room-a"); err != nil {
		t.Fatalf("TouchRoom() failed: %v", err)
	}
	if err := registry.TouchRoom(ctx, "room-b"); err != nil {
		t.Fatalf("TouchRoom() failed: %v", err)
	}

	rooms, err := registry.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms() failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("Expected 2 rooms, got %d", len(rooms))
	}
	for _, room := range rooms {
		if room.LastActive <= 0 {
			t.Errorf("Room %s has no last-active timestamp", room.ID)
		}
	}

	if err := registry.DeleteRoom(ctx, "room-a"); err != nil {
		t.Fatalf("DeleteRoom() failed: %v", err)
	}

	rooms, err = registry.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms() failed: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != "room-b" {
		t.Errorf("Expected only room-b after delete, got %v", rooms)
	}
}
