package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"feedsync/media"
	"feedsync/storage"
	"feedsync/store"

	"github.com/gorilla/mux"
)

const maxUploadBytes = 32 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

// MakeServer exposes the six synchronization operations plus the cache
// snapshot over HTTP. This is the surface the presentation layer talks to.
func MakeServer(s *store.Store, port string) *http.Server {
	handler := NewHTTPHandler(s)

	srv := &http.Server{
		Handler:      handler.Router(),
		Addr:         fmt.Sprintf("0.0.0.0:%s", port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	return srv
}

type HTTPHandler struct {
	store *store.Store
}

func NewHTTPHandler(s *store.Store) *HTTPHandler {
	return &HTTPHandler{store: s}
}

// Router returns the handler's route table without the surrounding server.
func (h *HTTPHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/users/{userId}/posts", h.FetchPosts).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/users/{userId}/posts", h.CreatePost).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/users/{userId}/posts/{postId}", h.UpdatePost).Methods(http.MethodPatch)
	r.HandleFunc("/api/v1/users/{userId}/posts/{postId}", h.DeletePost).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/users/{userId}/posts/{postId}/likes", h.LikePost).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/users/{userId}/posts/{postId}/likes", h.UnlikePost).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/cache", h.GetCache).Methods(http.MethodGet)
	return r
}

func writeJSON(rw http.ResponseWriter, code int, body any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	raw, _ := json.Marshal(body)
	_, _ = rw.Write(raw)
}

func writeError(rw http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrPostNotFound) {
		writeJSON(rw, http.StatusNotFound, ErrorResponse{"Post not found"})
		return
	}
	writeJSON(rw, http.StatusBadGateway, ErrorResponse{"Remote store unavailable"})
}

// formBlob pulls the optional image file out of a multipart request.
func formBlob(r *http.Request) (*media.Blob, error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &media.Blob{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *HTTPHandler) FetchPosts(rw http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["userId"]
	if userId == "" {
		writeJSON(rw, http.StatusBadRequest, ErrorResponse{"Invalid or empty user id"})
		return
	}
	if err := h.store.FetchPostsByUser(r.Context(), userId); err != nil {
		writeError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, h.store.Snapshot())
}

func (h *HTTPHandler) CreatePost(rw http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["userId"]
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(rw, http.StatusBadRequest, ErrorResponse{"Invalid multipart body"})
		return
	}
	blob, err := formBlob(r)
	if err != nil {
		writeJSON(rw, http.StatusBadRequest, ErrorResponse{"Invalid image upload"})
		return
	}
	created, err := h.store.CreatePost(r.Context(), userId, r.FormValue("content"), blob)
	if err != nil {
		writeError(rw, err)
		return
	}
	writeJSON(rw, http.StatusCreated, created)
}

func (h *HTTPHandler) UpdatePost(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(rw, http.StatusBadRequest, ErrorResponse{"Invalid multipart body"})
		return
	}
	blob, err := formBlob(r)
	if err != nil {
		writeJSON(rw, http.StatusBadRequest, ErrorResponse{"Invalid image upload"})
		return
	}
	// Absent field means keep the stored value; an empty value is a real
	// replacement.
	var content *string
	if values, ok := r.MultipartForm.Value["content"]; ok && len(values) > 0 {
		content = &values[0]
	}
	updated, err := h.store.UpdatePost(r.Context(), vars["userId"], vars["postId"], content, blob)
	if err != nil {
		writeError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, updated)
}

func (h *HTTPHandler) DeletePost(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeletePost(r.Context(), vars["userId"], vars["postId"]); err != nil {
		writeError(rw, err)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) LikePost(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	likerId := r.Header.Get("User-Id")
	if likerId == "" {
		writeJSON(rw, http.StatusUnauthorized, ErrorResponse{"Invalid or empty user id"})
		return
	}
	if err := h.store.LikePost(r.Context(), vars["userId"], vars["postId"], likerId); err != nil {
		writeError(rw, err)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) UnlikePost(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	likerId := r.Header.Get("User-Id")
	if likerId == "" {
		writeJSON(rw, http.StatusUnauthorized, ErrorResponse{"Invalid or empty user id"})
		return
	}
	if err := h.store.UnlikePost(r.Context(), vars["userId"], vars["postId"], likerId); err != nil {
		writeError(rw, err)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) GetCache(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, h.store.Snapshot())
}
