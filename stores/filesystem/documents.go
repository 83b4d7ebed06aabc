package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"whiteboard-server/core"
)

// exportStore writes exported canvas frames to a flat directory, one
// file per document named by its ULID. Share links survive a restart,
// which is all the persistence this server offers.
type exportStore struct {
	basePath string
}

func NewDocumentStore(basePath string) core.DocumentStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		logrus.WithError(err).WithField("base_path", basePath).Fatal("failed to create export directory")
	}
	return &exportStore{basePath: basePath}
}

func (s *exportStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)

	filePath, err := s.resolve(id)
	if err != nil {
		log.WithError(err).Warn("rejecting export id outside the base directory")
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("export with specified ID not found")
			return nil, fmt.Errorf("document with id %s not found", id)
		}
		log.WithError(err).Error("failed to read export")
		return nil, err
	}

	log.Debug("export retrieved")
	return &core.Document{Data: *bytes.NewBuffer(data)}, nil
}

func (s *exportStore) Create(ctx context.Context, document *core.Document) (string, error) {
	id := ulid.Make().String()
	filePath := filepath.Join(s.basePath, id)
	log := logrus.WithFields(logrus.Fields{
		"document_id": id,
		"data_length": document.Data.Len(),
	})

	if err := os.WriteFile(filePath, document.Data.Bytes(), 0644); err != nil {
		log.WithError(err).Error("failed to write export")
		return "", err
	}

	log.Info("canvas export stored")
	return id, nil
}

// resolve maps an export id to its file, refusing ids that would
// escape the base directory.
func (s *exportStore) resolve(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("document with id %s not found", id)
	}

	filePath := filepath.Join(s.basePath, id)
	if filepath.Dir(filePath) != filepath.Clean(s.basePath) {
		return "", fmt.Errorf("document with id %s not found", id)
	}
	return filePath, nil
}
