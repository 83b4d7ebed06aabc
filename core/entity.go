package core

import (
	"bytes"
	"context"
)

type (
	// Position is an item's top-left corner in canvas coordinates. The
	// server never validates geometry; negative and off-canvas values
	// are legal.
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// Item is a movable room object: a rich-text board or a placed
	// image. ID is an opaque client-chosen key, unique within its
	// registry; clients typically send a millisecond timestamp, so the
	// raw wire value (number or string) is preserved and echoed back
	// untouched. Content is an opaque payload (an HTML fragment for
	// boards, encoded image data for images) stored and relayed
	// verbatim.
	Item struct {
		ID       any      `json:"id"`
		Name     string   `json:"name"`
		Position Position `json:"position"`
		Content  string   `json:"content"`
	}

	// PresenceEntry links one live connection to a user and a room.
	// The connection id is transport-internal and never serialized.
	PresenceEntry struct {
		UserID       string `json:"userId"`
		RoomID       string `json:"roomId"`
		ConnectionID string `json:"-"`
	}

	// Document is an exported canvas frame stored for sharing.
	Document struct {
		Data bytes.Buffer
	}

	DocumentStore interface {
		FindID(ctx context.Context, id string) (*Document, error)
		Create(ctx context.Context, document *Document) (string, error)
	}

	Room struct {
		ID         string
		LastActive int64
	}

	// RoomRegistry records room activity so recently used room ids stay
	// listable after their members leave. Stores that persist nothing
	// simply don't implement it.
	RoomRegistry interface {
		ListRooms(ctx context.Context) ([]Room, error)
		TouchRoom(ctx context.Context, roomID string) error
		DeleteRoom(ctx context.Context, roomID string) error
	}
)
