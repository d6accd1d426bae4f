package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedsync/api"
	"feedsync/domain/post"
	"feedsync/storage"
	"feedsync/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, name string, _ string, _ []byte) (string, error) {
	return "http://cdn.local/post-media/" + name, nil
}

func newTestRouter(t *testing.T) (http.Handler, *storage.InMemoryStorage) {
	t.Helper()
	inmem := storage.NewInMemoryStorage()
	s := store.New(inmem, stubUploader{}, zap.NewNop())
	t.Cleanup(s.Close)
	return api.NewHTTPHandler(s).Router(), inmem
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = fw.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doRequest(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndFetchPosts(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{"content": "hello feed"}, "pic.png", []byte{1, 2})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/haris/posts", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(router, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created post.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Id)
	assert.Equal(t, "hello feed", created.Content)
	assert.Equal(t, "http://cdn.local/post-media/pic.png", created.ImageUrl)
	assert.Empty(t, created.Likes)

	rec = doRequest(router, httptest.NewRequest(http.MethodGet, "/api/v1/users/haris/posts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var cache store.Cache
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cache))
	assert.False(t, cache.Loading)
	require.Len(t, cache.Posts, 1)
	assert.Equal(t, created.Id, cache.Posts[0].Id)
}

func TestUpdatePost(t *testing.T) {
	router, inmem := newTestRouter(t)
	id, err := inmem.AddPost(context.Background(), "haris", &post.Post{Content: "before"})
	require.NoError(t, err)

	body, contentType := multipartBody(t, map[string]string{"content": "after"}, "", nil)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/haris/posts/"+id, body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(router, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated post.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "after", updated.Content)
}

func TestUpdateMissingPostIs404(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{"content": "after"}, "", nil)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/haris/posts/missing", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(router, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLikeRequiresUserIdHeader(t *testing.T) {
	router, inmem := newTestRouter(t)
	id, err := inmem.AddPost(context.Background(), "haris", &post.Post{Content: "likeable"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/haris/posts/"+id+"/likes", nil)
	rec := doRequest(router, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLikeAndUnlike(t *testing.T) {
	router, inmem := newTestRouter(t)
	ctx := context.Background()
	id, err := inmem.AddPost(ctx, "haris", &post.Post{Content: "likeable"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/haris/posts/"+id+"/likes", nil)
	req.Header.Set("User-Id", "fan")
	rec := doRequest(router, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	p, err := inmem.GetPostById(ctx, "haris", id)
	require.NoError(t, err)
	assert.Equal(t, []string{"fan"}, p.Likes)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/users/haris/posts/"+id+"/likes", nil)
	req.Header.Set("User-Id", "fan")
	rec = doRequest(router, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	p, err = inmem.GetPostById(ctx, "haris", id)
	require.NoError(t, err)
	assert.Empty(t, p.Likes)
}

func TestDeletePost(t *testing.T) {
	router, inmem := newTestRouter(t)
	ctx := context.Background()
	id, err := inmem.AddPost(ctx, "haris", &post.Post{Content: "short-lived"})
	require.NoError(t, err)

	rec := doRequest(router, httptest.NewRequest(http.MethodDelete, "/api/v1/users/haris/posts/"+id, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err = inmem.GetPostById(ctx, "haris", id)
	assert.ErrorIs(t, err, storage.ErrPostNotFound)

	rec = doRequest(router, httptest.NewRequest(http.MethodDelete, "/api/v1/users/haris/posts/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
