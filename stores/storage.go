package stores

import (
	"os"

	"github.com/sirupsen/logrus"

	"whiteboard-server/core"
	"whiteboard-server/stores/filesystem"
	"whiteboard-server/stores/memory"
	"whiteboard-server/stores/sqlite"
)

// GetStore picks the canvas-export backend from STORAGE_TYPE. The
// default in-memory store loses share links on restart, matching the
// server's overall restart-loses-state scope.
func GetStore() core.DocumentStore {
	storageType := os.Getenv("STORAGE_TYPE")
	var store core.DocumentStore

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		storageField["basePath"] = basePath
		store = filesystem.NewDocumentStore(basePath)
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		storageField["dataSourceName"] = dataSourceName
		store = sqlite.NewDocumentStore(dataSourceName)
	default:
		store = memory.NewDocumentStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
