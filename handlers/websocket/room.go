package websocket

import (
	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"

	"whiteboard-server/core"
	"whiteboard-server/room"
)

// DefaultHistoryDepth bounds a room's canvas history when no explicit
// depth is configured. Frames are full raster snapshots, so the bound
// is what keeps per-room memory from growing with every stroke.
const DefaultHistoryDepth = 256

// SetupSocketIO builds the socket.io server and wires its events to a
// fresh Gateway. registry may be nil when the active store keeps no
// room activity records.
func SetupSocketIO(registry core.RoomRegistry, historyDepth int) (*socketio.Server, *Gateway) {
	if historyDepth <= 0 {
		historyDepth = DefaultHistoryDepth
	}

	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin: "*",
	})
	srv := socketio.NewServer(nil, opts)

	gw := NewGateway(room.NewStore(historyDepth), room.NewPresence(), &serverFanout{srv: srv}, registry)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		conn := &socketConn{socket: socket}
		logrus.WithField("connection_id", conn.ID()).Debug("socket connected")

		handle := func(event string, fn func(Conn, any)) {
			//nolint:errcheck // Socket.IO event handlers do not return useful errors
			socket.On(event, func(datas ...any) {
				fn(conn, first(datas))
			})
		}

		handle("userJoined", gw.HandleJoin)
		handle("draw", gw.HandleDraw)
		handle("undo", gw.HandleUndo)
		handle("redo", gw.HandleRedo)

		handle("board:add", gw.HandleBoardAdd)
		handle("board:update", gw.HandleBoardUpdate)
		handle("board:delete", gw.HandleBoardDelete)

		handle("image:add", gw.HandleImageAdd)
		handle("image:update", gw.HandleImageUpdate)
		handle("image:delete", gw.HandleImageDelete)

		socket.On("disconnect", func(datas ...any) {
			gw.HandleDisconnect(conn)
			socket.RemoveAllListeners("")
		})
	})

	return srv, gw
}

func first(datas []any) any {
	if len(datas) == 0 {
		return nil
	}
	return datas[0]
}

// socketConn adapts a live socket.io socket to the gateway's Conn.
type socketConn struct {
	socket *socketio.Socket
}

func (c *socketConn) ID() string { return string(c.socket.Id()) }

func (c *socketConn) Emit(event string, args ...any) {
	if err := c.socket.Emit(event, args...); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"connection_id": c.ID(),
			"event":         event,
		}).Warn("failed to emit to connection")
	}
}

func (c *socketConn) Subscribe(roomID string) {
	c.socket.Join(socketio.Room(roomID))
}

func (c *socketConn) Unsubscribe(roomID string) {
	c.socket.Leave(socketio.Room(roomID))
}

func (c *socketConn) Broadcast(roomID, event string, args ...any) {
	if err := c.socket.Broadcast().To(socketio.Room(roomID)).Emit(event, args...); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"room_id": roomID,
			"event":   event,
		}).Warn("failed to broadcast to room")
	}
}

// serverFanout delivers room-wide events through the server so the
// sender receives its own echo. A send failure to one connection stays
// inside the socket.io layer and never aborts delivery to the rest.
type serverFanout struct {
	srv *socketio.Server
}

func (f *serverFanout) ToRoom(roomID, event string, args ...any) {
	if err := f.srv.In(socketio.Room(roomID)).Emit(event, args...); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"room_id": roomID,
			"event":   event,
		}).Warn("failed to fan out to room")
	}
}
