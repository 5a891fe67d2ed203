package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"vidtube/internal/model"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"invalid", model.Invalid("Title is required"), http.StatusBadRequest, "Title is required"},
		{"not found", fmt.Errorf("load: %w", model.ErrVideoNotFound), http.StatusNotFound, model.ErrVideoNotFound.Message},
		{"conflict", model.ErrUserExists, http.StatusConflict, model.ErrUserExists.Message},
		{"unauthorized", model.ErrNotOwner, http.StatusUnauthorized, model.ErrNotOwner.Message},
		{"internal hides details", errors.New("mongo: connection reset"), http.StatusInternalServerError, "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.StatusCode)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.False(t, body.Success)
			assert.NotNil(t, body.Errors)
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteCreated(rec, map[string]int{"n": 1}, "made")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"statusCode":201,"data":{"n":1},"message":"made","success":true}`, rec.Body.String())
}

func TestPathID(t *testing.T) {
	id := bson.NewObjectID()
	r := chi.NewRouter()
	var got bson.ObjectID
	var gotErr error
	r.Get("/videos/{videoId}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = PathID(r, "videoId")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/videos/"+id.Hex(), nil))
	require.NoError(t, gotErr)
	assert.Equal(t, id, got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/videos/xyz", nil))
	assert.ErrorIs(t, gotErr, model.ErrInvalidID)
}

func TestQueryIDAndPageOptions(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500", nil)
	id, err := QueryID(req, "userId")
	require.NoError(t, err)
	assert.True(t, id.IsZero())

	opts := PageOptions(req)
	assert.Equal(t, 3, opts.Page)
	assert.Equal(t, 100, opts.Limit)

	_, err = QueryID(httptest.NewRequest(http.MethodGet, "/?userId=bad", nil), "userId")
	assert.ErrorIs(t, err, model.ErrInvalidID)
}

func TestDecodeJSON(t *testing.T) {
	var dst model.ContentRequest
	rec := httptest.NewRecorder()

	err := DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"hi"}`)), &dst)
	require.NoError(t, err)
	assert.Equal(t, "hi", dst.Content)

	assert.NoError(t, DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", http.NoBody), &dst), "empty body")

	err = DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":`)), &dst)
	assert.Equal(t, model.KindInvalidArgument, model.KindOf(err))
}

func TestFormFileAndMultipartLimits(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "t"))
	fw, err := mw.CreateFormFile("thumbnail", "t.png")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("x"), 2048))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	body := buf.Bytes()

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	}

	req := newReq()
	require.NoError(t, ParseMultipart(httptest.NewRecorder(), req, 1<<20))
	file, err := FormFile(req, "thumbnail")
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "t.png", file.Header.Filename)
	CloseFiles(file, nil)

	missing, err := FormFile(req, "videoFile")
	require.NoError(t, err)
	assert.Nil(t, missing)

	req = newReq()
	err = ParseMultipart(httptest.NewRecorder(), req, 512)
	require.Error(t, err)
	assert.Equal(t, model.KindInvalidArgument, model.KindOf(err))

	plain := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	plain.Header.Set("Content-Type", "application/json")
	assert.Equal(t, model.KindInvalidArgument, model.KindOf(ParseMultipart(httptest.NewRecorder(), plain, 1<<20)))
}

func TestClientIP_IgnoresForwardingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", ClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.7")
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "10.0.0.9", ClientIP(req))

	req.RemoteAddr = "10.0.0.9"
	assert.Equal(t, "10.0.0.9", ClientIP(req), "no port")
}
