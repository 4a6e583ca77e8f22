package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/garagehub/garagehub-api/api"
	"github.com/garagehub/garagehub-api/config"
	"github.com/garagehub/garagehub-api/databases"
	"github.com/garagehub/garagehub-api/models"
	"github.com/garagehub/garagehub-api/rules"
)

// Stream bridges MongoDB change streams to WebSocket clients, scoped by the
// same ownership predicates the REST reads use
type Stream struct {
	DB    databases.DatabaseHelper
	Rules *rules.Rules
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamableCollections are the collections a client may subscribe to
var streamableCollections = map[string]bool{
	"cars":        true,
	"maintenance": true,
	"projects":    true,
	"events":      true,
}

// StreamHandler upgrades the connection and forwards every change document
// in the principal's visible subset until the client disconnects. Closing
// the socket tears down the change stream; consumers that never detach would
// otherwise leak the stream for the lifetime of the process.
func (s Stream) StreamHandler(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	if !streamableCollections[collection] {
		config.ErrorStatus("unknown collection", http.StatusBadRequest, w, fmt.Errorf("collection %q is not streamable", collection))
		return
	}

	principal := api.PrincipalFromContext(r.Context())
	if !s.Rules.IsAuthenticated(principal) {
		config.DeniedStatus(w)
		return
	}

	pipeline := s.scopePipeline(collection, principal)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := s.DB.Collection(collection).Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		zap.S().Errorw("failed to open change stream", "collection", collection, "error", err)
		_ = conn.WriteJSON(map[string]string{"error": "failed to open change stream"})
		return
	}
	defer stream.Close(context.Background())

	// The read pump exists only to observe the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for stream.Next(ctx) {
		var change bson.M
		if err := stream.Decode(&change); err != nil {
			zap.S().Warnw("failed to decode change document", "error", err)
			continue
		}
		if err := conn.WriteJSON(change); err != nil {
			// A failed push ends this subscription only; other views are
			// unaffected.
			zap.S().Debugw("client write failed, detaching", "error", err)
			return
		}
	}
}

// scopePipeline builds the change-stream match stage for the principal's
// visible subset of the collection
func (s Stream) scopePipeline(collection string, principal *models.Principal) mongo.Pipeline {
	if s.Rules.IsAdmin(principal) {
		return mongo.Pipeline{}
	}
	if collection == "events" {
		return mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"$or": []bson.M{
				{"fullDocument.isPublic": true},
				{"fullDocument.organizer.id": principal.ID},
			}}}},
		}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"fullDocument.ownerID": principal.ID}}},
	}
}
