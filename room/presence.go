package room

import (
	"sync"

	"whiteboard-server/core"
)

// Presence tracks which connection is joined to which room as which
// user. Entries are keyed by connection id; a secondary index from room
// id to connection ids keeps roster lookups from scanning the whole
// table. The model deliberately never deduplicates by user id. A user
// joined from two tabs holds two entries.
//
// Presence is process-wide and safe for concurrent use.
type Presence struct {
	mu     sync.RWMutex
	byConn map[string]core.PresenceEntry
	byRoom map[string][]string // connection ids in join order
}

func NewPresence() *Presence {
	return &Presence{
		byConn: make(map[string]core.PresenceEntry),
		byRoom: make(map[string][]string),
	}
}

// Join records a connection's presence in a room. Rejoining the same
// room on the same connection keeps the entry's position in the roster
// but adopts the latest user id. A connection switching rooms drops its
// old entry first.
func (p *Presence) Join(connID, userID, roomID string) core.PresenceEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.byConn[connID]; ok {
		if existing.RoomID == roomID {
			if existing.UserID != userID {
				existing.UserID = userID
				p.byConn[connID] = existing
			}
			return existing
		}
		p.removeLocked(connID, existing.RoomID)
	}

	entry := core.PresenceEntry{UserID: userID, RoomID: roomID, ConnectionID: connID}
	p.byConn[connID] = entry
	p.byRoom[roomID] = append(p.byRoom[roomID], connID)
	return entry
}

// Leave removes and returns the entry for a connection. Leaving an
// unknown connection is a no-op, not an error.
func (p *Presence) Leave(connID string) (core.PresenceEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.byConn[connID]
	if !ok {
		return core.PresenceEntry{}, false
	}
	p.removeLocked(connID, entry.RoomID)
	return entry, true
}

// Get returns the entry for a connection without removing it.
func (p *Presence) Get(connID string) (core.PresenceEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.byConn[connID]
	return entry, ok
}

// ListByRoom returns the room's roster in join order.
func (p *Presence) ListByRoom(roomID string) []core.PresenceEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	connIDs := p.byRoom[roomID]
	roster := make([]core.PresenceEntry, 0, len(connIDs))
	for _, connID := range connIDs {
		roster = append(roster, p.byConn[connID])
	}
	return roster
}

// CountByRoom reports the number of connections joined to a room.
func (p *Presence) CountByRoom(roomID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.byRoom[roomID])
}

// Rooms returns member counts for every room with at least one
// connection present.
func (p *Presence) Rooms() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rooms := make(map[string]int, len(p.byRoom))
	for roomID, connIDs := range p.byRoom {
		rooms[roomID] = len(connIDs)
	}
	return rooms
}

func (p *Presence) removeLocked(connID, roomID string) {
	delete(p.byConn, connID)

	connIDs := p.byRoom[roomID]
	for i, id := range connIDs {
		if id == connID {
			connIDs = append(connIDs[:i], connIDs[i+1:]...)
			break
		}
	}
	if len(connIDs) == 0 {
		delete(p.byRoom, roomID)
	} else {
		p.byRoom[roomID] = connIDs
	}
}
