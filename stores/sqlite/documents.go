package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	stdlog "log"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"whiteboard-server/core"
)

// exportStore keeps exported canvas frames and the room activity
// registry in a single SQLite database, so share links and the
// recently-active room list survive restarts.
type exportStore struct {
	db *sql.DB
}

func NewDocumentStore(dataSourceName string) core.DocumentStore {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		stdlog.Fatal(err)
	}

	documentsTable := `CREATE TABLE IF NOT EXISTS documents (id TEXT PRIMARY KEY, data BLOB);`
	if _, err := db.Exec(documentsTable); err != nil {
		stdlog.Fatal(err)
	}

	roomsTable := `CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		last_active INTEGER NOT NULL
	);`
	if _, err := db.Exec(roomsTable); err != nil {
		stdlog.Fatal(err)
	}

	return &exportStore{db}
}

func (s *exportStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)

	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM documents WHERE id = ?", id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Warn("export with specified ID not found")
			return nil, fmt.Errorf("document with id %s not found", id)
		}
		log.WithError(err).Error("failed to retrieve export")
		return nil, err
	}

	log.Debug("export retrieved")
	return &core.Document{Data: *bytes.NewBuffer(data)}, nil
}

func (s *exportStore) Create(ctx context.Context, document *core.Document) (string, error) {
	id := ulid.Make().String()
	data := document.Data.Bytes()
	log := logrus.WithFields(logrus.Fields{
		"document_id": id,
		"data_length": len(data),
	})

	if _, err := s.db.ExecContext(ctx, "INSERT INTO documents (id, data) VALUES (?, ?)", id, data); err != nil {
		log.WithError(err).Error("failed to store export")
		return "", err
	}

	log.Info("canvas export stored")
	return id, nil
}

func (s *exportStore) TouchRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO rooms (id, last_active) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET last_active = excluded.last_active",
		roomID, time.Now().UnixMilli())
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("failed to touch room")
		return err
	}
	return nil
}

func (s *exportStore) ListRooms(ctx context.Context) ([]core.Room, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, last_active FROM rooms ORDER BY last_active DESC, id ASC")
	if err != nil {
		logrus.WithError(err).Error("failed to list rooms")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("failed to close room rows")
		}
	}()

	var rooms []core.Room
	for rows.Next() {
		var room core.Room
		if err := rows.Scan(&room.ID, &room.LastActive); err != nil {
			logrus.WithError(err).Error("failed to scan room row")
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (s *exportStore) DeleteRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", roomID); err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("failed to delete room")
		return err
	}
	return nil
}
