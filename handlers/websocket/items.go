package websocket

import (
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"whiteboard-server/core"
	"whiteboard-server/room"
)

// itemKind parametrizes the board and image registries, which share one
// contract and differ only in wire field names: board events carry
// boardData/boardId, image events imageData/imageId.
type itemKind string

const (
	kindBoard itemKind = "board"
	kindImage itemKind = "image"
)

func (k itemKind) dataKey() string        { return string(k) + "Data" }
func (k itemKind) idKey() string          { return string(k) + "Id" }
func (k itemKind) event(op string) string { return string(k) + ":" + op }

func (k itemKind) pick(boards, images *room.Items) *room.Items {
	if k == kindBoard {
		return boards
	}
	return images
}

// HandleBoardAdd inserts a board and broadcasts the full record.
func (g *Gateway) HandleBoardAdd(conn Conn, raw any) { g.addItem(conn, raw, kindBoard) }

// HandleBoardUpdate replaces a board wholesale and broadcasts the new
// record. Updates for unknown ids are dropped; they can legitimately
// race a concurrent delete.
func (g *Gateway) HandleBoardUpdate(conn Conn, raw any) { g.updateItem(conn, raw, kindBoard) }

// HandleBoardDelete removes a board and broadcasts its bare id so
// clients drop their local copy.
func (g *Gateway) HandleBoardDelete(conn Conn, raw any) { g.deleteItem(conn, raw, kindBoard) }

// HandleImageAdd, HandleImageUpdate and HandleImageDelete mirror the
// board handlers against the image registry.
func (g *Gateway) HandleImageAdd(conn Conn, raw any)    { g.addItem(conn, raw, kindImage) }
func (g *Gateway) HandleImageUpdate(conn Conn, raw any) { g.updateItem(conn, raw, kindImage) }
func (g *Gateway) HandleImageDelete(conn Conn, raw any) { g.deleteItem(conn, raw, kindImage) }

func (g *Gateway) addItem(conn Conn, raw any, kind itemKind) {
	entry, ok := g.joined(conn, kind.event("add"))
	if !ok {
		return
	}
	item, ok := kind.decodeItem(conn, raw)
	if !ok {
		return
	}

	state := g.rooms.GetOrCreate(entry.RoomID)
	added := false
	state.Update(func(_ *room.History, boards, images *room.Items) {
		added = kind.pick(boards, images).Add(item)
	})
	if !added {
		// The id is already present; echoing the stale record could
		// clobber a newer update on some client.
		logrus.WithFields(logrus.Fields{
			"room_id": entry.RoomID,
			"item_id": room.Key(item.ID),
		}).Debug("ignoring duplicate item add")
		return
	}

	g.fanout.ToRoom(entry.RoomID, kind.event("add"), item)
}

func (g *Gateway) updateItem(conn Conn, raw any, kind itemKind) {
	entry, ok := g.joined(conn, kind.event("update"))
	if !ok {
		return
	}
	item, ok := kind.decodeItem(conn, raw)
	if !ok {
		return
	}

	state := g.rooms.GetOrCreate(entry.RoomID)
	updated := false
	state.Update(func(_ *room.History, boards, images *room.Items) {
		updated = kind.pick(boards, images).Update(item)
	})
	if !updated {
		return
	}

	g.fanout.ToRoom(entry.RoomID, kind.event("update"), item)
}

func (g *Gateway) deleteItem(conn Conn, raw any, kind itemKind) {
	entry, ok := g.joined(conn, kind.event("delete"))
	if !ok {
		return
	}
	id, ok := kind.decodeID(conn, raw)
	if !ok {
		return
	}

	state := g.rooms.GetOrCreate(entry.RoomID)
	deleted := false
	state.Update(func(_ *room.History, boards, images *room.Items) {
		deleted = kind.pick(boards, images).Delete(id)
	})
	if !deleted {
		return
	}

	g.fanout.ToRoom(entry.RoomID, kind.event("delete"), id)
}

// decodeItem pulls the kind's data field out of the payload and decodes
// it into an Item. Records without an id are malformed and dropped.
func (k itemKind) decodeItem(conn Conn, raw any) (core.Item, bool) {
	payload, ok := raw.(map[string]any)
	if !ok {
		logrus.WithField("connection_id", conn.ID()).Debug("dropping malformed item payload")
		return core.Item{}, false
	}

	var item core.Item
	if err := mapstructure.Decode(payload[k.dataKey()], &item); err != nil || item.ID == nil {
		logrus.WithFields(logrus.Fields{
			"connection_id": conn.ID(),
			"event":         k.event("?"),
		}).Debug("dropping item payload without a usable record")
		return core.Item{}, false
	}
	return item, true
}

func (k itemKind) decodeID(conn Conn, raw any) (any, bool) {
	payload, ok := raw.(map[string]any)
	if !ok {
		logrus.WithField("connection_id", conn.ID()).Debug("dropping malformed item payload")
		return nil, false
	}

	id, ok := payload[k.idKey()]
	if !ok || id == nil {
		logrus.WithField("connection_id", conn.ID()).Debug("dropping item delete without an id")
		return nil, false
	}
	return id, true
}
