package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"whiteboard-server/core"
)

// exportStore keeps exported canvas frames and room activity records in
// process memory. It is the default backend: a restart losing share
// links matches the restart-loses-rooms scope of the whole server.
//
// Frames are stored as copied byte slices, so a caller mutating the
// buffer it posted or received never corrupts the stored frame. The
// export map and the room registry have independent locks; a slow frame
// copy never delays a room touch.
type exportStore struct {
	exportMu sync.RWMutex
	exports  map[string][]byte

	roomMu sync.Mutex
	rooms  map[string]int64
}

func NewDocumentStore() core.DocumentStore {
	return &exportStore{
		exports: make(map[string][]byte),
		rooms:   make(map[string]int64),
	}
}

func (s *exportStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)

	s.exportMu.RLock()
	frame, ok := s.exports[id]
	s.exportMu.RUnlock()

	if !ok {
		log.Warn("export with specified ID not found")
		return nil, fmt.Errorf("document with id %s not found", id)
	}

	log.Debug("export retrieved")
	return &core.Document{Data: *bytes.NewBuffer(append([]byte(nil), frame...))}, nil
}

func (s *exportStore) Create(ctx context.Context, document *core.Document) (string, error) {
	id := ulid.Make().String()
	frame := append([]byte(nil), document.Data.Bytes()...)

	s.exportMu.Lock()
	s.exports[id] = frame
	s.exportMu.Unlock()

	logrus.WithFields(logrus.Fields{
		"document_id": id,
		"data_length": len(frame),
	}).Info("canvas export stored")

	return id, nil
}

func (s *exportStore) TouchRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}

	s.roomMu.Lock()
	s.rooms[roomID] = time.Now().UnixMilli()
	s.roomMu.Unlock()

	return nil
}

func (s *exportStore) ListRooms(ctx context.Context) ([]core.Room, error) {
	s.roomMu.Lock()
	rooms := make([]core.Room, 0, len(s.rooms))
	for id, last := range s.rooms {
		rooms = append(rooms, core.Room{ID: id, LastActive: last})
	}
	s.roomMu.Unlock()

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].LastActive == rooms[j].LastActive {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].LastActive > rooms[j].LastActive
	})

	return rooms, nil
}

func (s *exportStore) DeleteRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}

	s.roomMu.Lock()
	delete(s.rooms, roomID)
	s.roomMu.Unlock()

	return nil
}
