package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/model"
	"vidtube/internal/pagination"
)

// MaxJSONBodyBytes bounds JSON request bodies.
const MaxJSONBodyBytes = 1 << 20

// DecodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return model.Invalid("Invalid request body")
	}
	return nil
}

// PathID parses a 24-hex object id from a chi URL parameter.
func PathID(r *http.Request, name string) (bson.ObjectID, error) {
	return model.ParseID(chi.URLParam(r, name))
}

// QueryID parses an optional id query parameter; absent yields the zero id.
func QueryID(r *http.Request, name string) (bson.ObjectID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return bson.NilObjectID, nil
	}
	return model.ParseID(raw)
}

// PageOptions reads page and limit from the query string.
func PageOptions(r *http.Request) pagination.Options {
	q := r.URL.Query()
	return pagination.ParseOptions(q.Get("page"), q.Get("limit"))
}

// FormFile returns the uploaded file of a parsed multipart form, or nil when
// the field is absent. The caller closes the file.
func FormFile(r *http.Request, field string) (*model.FileInput, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, model.Invalid("Invalid %s upload", field)
	}
	return &model.FileInput{File: file, Header: header}, nil
}

// ParseMultipart parses a multipart form bounded by maxBytes.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	// Parts above 32MB spill to temp files.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return model.Invalid("Content-Type must be multipart/form-data")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.ErrFileTooLarge
		}
		return model.Invalid("Invalid form data")
	}
	return nil
}

// CloseFiles closes every non-nil upload.
func CloseFiles(files ...*model.FileInput) {
	for _, f := range files {
		if f != nil && f.File != nil {
			f.File.Close()
		}
	}
}

// ClientIP is the host part of RemoteAddr. Forwarding headers are ignored
// here; the router rewrites RemoteAddr from them only when the server sits
// behind a trusted proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
