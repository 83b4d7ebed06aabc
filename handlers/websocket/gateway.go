package websocket

import (
	"context"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"whiteboard-server/core"
	"whiteboard-server/room"
)

type (
	// Conn is the slice of a live transport session the gateway needs:
	// a stable id, direct emits, room subscription, and a fanout to the
	// rest of the connection's room.
	Conn interface {
		ID() string
		Emit(event string, args ...any)
		Subscribe(roomID string)
		Unsubscribe(roomID string)
		// Broadcast delivers to every other connection in the room.
		Broadcast(roomID, event string, args ...any)
	}

	// Broadcaster delivers an event to every connection currently
	// subscribed to a room, the sender included.
	Broadcaster interface {
		ToRoom(roomID, event string, args ...any)
	}
)

// Gateway is the single entry point translating inbound client events
// into room-engine mutations and outbound broadcasts. A connection
// moves Unjoined -> Joined -> Disconnected; mutation events from an
// unjoined connection are dropped without error, and the joined room
// recorded in presence is authoritative over any room id a payload
// claims.
type Gateway struct {
	rooms    *room.Store
	presence *room.Presence
	fanout   Broadcaster
	registry core.RoomRegistry // optional
}

func NewGateway(rooms *room.Store, presence *room.Presence, fanout Broadcaster, registry core.RoomRegistry) *Gateway {
	return &Gateway{
		rooms:    rooms,
		presence: presence,
		fanout:   fanout,
		registry: registry,
	}
}

// Rooms exposes the room store, for the REST listing.
func (g *Gateway) Rooms() *room.Store { return g.rooms }

// Presence exposes the presence registry, for the REST listing.
func (g *Gateway) Presence() *room.Presence { return g.presence }

// ActiveRooms reports member counts for every room with at least one
// live connection.
func (g *Gateway) ActiveRooms() map[string]int { return g.presence.Rooms() }

type (
	joinPayload struct {
		UserID string `mapstructure:"userId"`
		RoomID string `mapstructure:"roomId"`
	}

	drawPayload struct {
		RoomID string  `mapstructure:"roomId"`
		Image  *string `mapstructure:"image"`
	}
)

// HandleJoin registers the connection's presence, resyncs it with the
// room's full current state, and announces the grown roster to the
// rest of the room.
func (g *Gateway) HandleJoin(conn Conn, raw any) {
	var p joinPayload
	if !decode(raw, &p) || p.UserID == "" || p.RoomID == "" {
		logrus.WithField("connection_id", conn.ID()).Debug("dropping malformed join")
		return
	}

	// A connection switching rooms leaves its old room first.
	if prev, ok := g.presence.Get(conn.ID()); ok && prev.RoomID != p.RoomID {
		g.presence.Leave(conn.ID())
		conn.Unsubscribe(prev.RoomID)
		g.afterLeave(prev)
	}

	g.presence.Join(conn.ID(), p.UserID, p.RoomID)
	conn.Subscribe(p.RoomID)
	state := g.rooms.GetOrCreate(p.RoomID)

	var (
		frame  *string
		boards []core.Item
		images []core.Item
	)
	state.Update(func(canvas *room.History, b, i *room.Items) {
		frame = canvas.Current()
		boards = b.Snapshot()
		images = i.Snapshot()
	})
	users := g.presence.ListByRoom(p.RoomID)

	// Full resync for the joiner, then the roster for everyone else.
	conn.Emit("userIsJoined", map[string]any{"success": true, "users": users})
	conn.Emit("draw", drawMessage(p.RoomID, frame))
	conn.Emit("boards:sync", boards)
	conn.Emit("images:sync", images)
	conn.Broadcast(p.RoomID, "allUsers", users)

	g.touchRoom(p.RoomID)

	logrus.WithFields(logrus.Fields{
		"connection_id": conn.ID(),
		"user_id":       p.UserID,
		"room_id":       p.RoomID,
		"room_users":    len(users),
	}).Info("user joined room")
}

// HandleDraw appends a full-frame snapshot to the room's history and
// echoes it to the whole room, sender included, so every client tracks
// the server-confirmed state.
func (g *Gateway) HandleDraw(conn Conn, raw any) {
	entry, ok := g.joined(conn, "draw")
	if !ok {
		return
	}

	var p drawPayload
	if !decode(raw, &p) || p.Image == nil {
		logrus.WithField("connection_id", conn.ID()).Debug("dropping malformed draw")
		return
	}

	state := g.rooms.GetOrCreate(entry.RoomID)
	state.Update(func(canvas *room.History, _, _ *room.Items) {
		canvas.Draw(*p.Image)
	})

	g.fanout.ToRoom(entry.RoomID, "draw", drawMessage(entry.RoomID, p.Image))
}

// HandleUndo steps the room's history back one frame and broadcasts
// the frame now current, null meaning a cleared canvas. Undo at the
// beginning of history is a silent no-op.
func (g *Gateway) HandleUndo(conn Conn, raw any) {
	g.stepHistory(conn, "undo", func(canvas *room.History) (*string, bool) {
		return canvas.Undo()
	})
}

// HandleRedo steps the room's history forward one frame. Redo at the
// end of history is a silent no-op.
func (g *Gateway) HandleRedo(conn Conn, raw any) {
	g.stepHistory(conn, "redo", func(canvas *room.History) (*string, bool) {
		return canvas.Redo()
	})
}

func (g *Gateway) stepHistory(conn Conn, event string, step func(*room.History) (*string, bool)) {
	entry, ok := g.joined(conn, event)
	if !ok {
		return
	}

	state := g.rooms.GetOrCreate(entry.RoomID)
	var (
		frame   *string
		changed bool
	)
	state.Update(func(canvas *room.History, _, _ *room.Items) {
		frame, changed = step(canvas)
	})
	if !changed {
		return
	}

	g.fanout.ToRoom(entry.RoomID, "draw", drawMessage(entry.RoomID, frame))
}

// HandleDisconnect removes the connection's presence and announces the
// shrunken roster to whoever remains. The room aggregate is dropped
// once its last member is gone.
func (g *Gateway) HandleDisconnect(conn Conn) {
	entry, ok := g.presence.Leave(conn.ID())
	if !ok {
		return
	}
	g.afterLeave(entry)

	logrus.WithFields(logrus.Fields{
		"connection_id": conn.ID(),
		"user_id":       entry.UserID,
		"room_id":       entry.RoomID,
	}).Info("user left room")
}

func (g *Gateway) afterLeave(entry core.PresenceEntry) {
	users := g.presence.ListByRoom(entry.RoomID)
	if len(users) == 0 {
		g.rooms.Drop(entry.RoomID)
		return
	}
	g.fanout.ToRoom(entry.RoomID, "allUsers", users)
}

// joined resolves the connection's presence entry, dropping the event
// with a debug log when the connection never completed a join. A client
// racing a mutation ahead of its join acknowledgment loses that one
// event.
func (g *Gateway) joined(conn Conn, event string) (core.PresenceEntry, bool) {
	entry, ok := g.presence.Get(conn.ID())
	if !ok {
		logrus.WithFields(logrus.Fields{
			"connection_id": conn.ID(),
			"event":         event,
		}).Debug("dropping event from unjoined connection")
	}
	return entry, ok
}

func (g *Gateway) touchRoom(roomID string) {
	if g.registry == nil {
		return
	}
	if err := g.registry.TouchRoom(context.Background(), roomID); err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Warn("failed to touch room in registry")
	}
}

func decode(raw any, out any) bool {
	if raw == nil {
		return false
	}
	if err := mapstructure.Decode(raw, out); err != nil {
		logrus.WithError(err).Debug("failed to decode event payload")
		return false
	}
	return true
}

// drawMessage builds the canonical draw broadcast. A nil frame encodes
// as a JSON null image, the explicit clear-canvas signal.
func drawMessage(roomID string, frame *string) map[string]any {
	msg := map[string]any{"roomId": roomID, "image": nil}
	if frame != nil {
		msg["image"] = *frame
	}
	return msg
}
