// Package handler holds the HTTP endpoints. Handlers parse the request,
// call one service operation and write the response envelope.
package handler

import (
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/httputil"
	"vidtube/internal/transport/http/middleware"
)

// requireUser returns the authenticated user id, answering 401 when absent.
func requireUser(w http.ResponseWriter, r *http.Request) (bson.ObjectID, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Unauthorized request")
		return bson.NilObjectID, false
	}
	return userID, true
}

// viewerID is the caller on routes where authentication is optional.
func viewerID(r *http.Request) bson.ObjectID {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	return userID
}

// pathID parses a path id, answering 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (bson.ObjectID, bool) {
	id, err := httputil.PathID(r, name)
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return bson.NilObjectID, false
	}
	return id, true
}
