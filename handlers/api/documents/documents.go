package documents

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"whiteboard-server/core"
)

type DocumentCreateResponse struct {
	ID string `json:"id"`
}

// HandleCreate stores an exported canvas payload verbatim and answers
// with the generated share id. The payload is opaque; the server never
// inspects it.
func HandleCreate(documentStore core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			logrus.WithError(err).Error("Failed to read request body")
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}

		document := core.Document{Data: *bytes.NewBuffer(data)}
		id, err := documentStore.Create(r.Context(), &document)
		if err != nil {
			logrus.WithError(err).Error("Failed to save document")
			http.Error(w, "Failed to save document", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, DocumentCreateResponse{ID: id})
	}
}

// HandleGet streams a stored export back to the client.
func HandleGet(documentStore core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		document, err := documentStore.FindID(r.Context(), id)
		if err != nil {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := w.Write(document.Data.Bytes()); err != nil {
			logrus.WithError(err).WithField("document_id", id).Error("Failed to write response")
		}
	}
}
