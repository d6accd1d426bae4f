package storage_test

import (
	"context"
	"testing"

	"feedsync/domain/post"
	"feedsync/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryAddAndGet(t *testing.T) {
	ctx := context.Background()
	im := storage.NewInMemoryStorage()

	id, err := im.AddPost(ctx, "haris", &post.Post{Content: "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	p, err := im.GetPostById(ctx, "haris", id)
	require.NoError(t, err)
	assert.Equal(t, id, p.Id)
	assert.Equal(t, "hello", p.Content)
	assert.Empty(t, p.ImageUrl)
	assert.NotNil(t, p.Likes)

	_, err = im.GetPostById(ctx, "someone-else", id)
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
	_, err = im.GetPostById(ctx, "haris", "missing")
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
}

func TestInMemoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	im := storage.NewInMemoryStorage()

	for _, c := range []string{"a", "b", "c"} {
		_, err := im.AddPost(ctx, "haris", &post.Post{Content: c})
		require.NoError(t, err)
	}
	_, err := im.AddPost(ctx, "other", &post.Post{Content: "not hers"})
	require.NoError(t, err)

	posts, err := im.GetPostsByUserId(ctx, "haris")
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "c", posts[0].Content)
	assert.Equal(t, "b", posts[1].Content)
	assert.Equal(t, "a", posts[2].Content)

	none, err := im.GetPostsByUserId(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInMemorySetPost(t *testing.T) {
	ctx := context.Background()
	im := storage.NewInMemoryStorage()

	id, err := im.AddPost(ctx, "haris", &post.Post{Content: "before"})
	require.NoError(t, err)

	err = im.SetPost(ctx, "haris", id, &post.Post{Content: "after", ImageUrl: "http://x/y.png", Likes: []string{"fan"}})
	require.NoError(t, err)

	p, err := im.GetPostById(ctx, "haris", id)
	require.NoError(t, err)
	assert.Equal(t, "after", p.Content)
	assert.Equal(t, "http://x/y.png", p.ImageUrl)
	assert.Equal(t, []string{"fan"}, p.Likes)

	err = im.SetPost(ctx, "haris", "missing", &post.Post{})
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
}

func TestInMemoryMergePost(t *testing.T) {
	ctx := context.Background()
	im := storage.NewInMemoryStorage()

	id, err := im.AddPost(ctx, "haris", &post.Post{Content: "before", ImageUrl: "http://x/old.png"})
	require.NoError(t, err)

	err = im.MergePost(ctx, "haris", id, map[string]any{"content": "after"})
	require.NoError(t, err)

	p, err := im.GetPostById(ctx, "haris", id)
	require.NoError(t, err)
	assert.Equal(t, "after", p.Content)
	assert.Equal(t, "http://x/old.png", p.ImageUrl, "unmentioned fields survive a merge")
}

func TestInMemoryDeletePost(t *testing.T) {
	ctx := context.Background()
	im := storage.NewInMemoryStorage()

	first, err := im.AddPost(ctx, "haris", &post.Post{Content: "first"})
	require.NoError(t, err)
	second, err := im.AddPost(ctx, "haris", &post.Post{Content: "second"})
	require.NoError(t, err)

	require.NoError(t, im.DeletePost(ctx, "haris", first))

	posts, err := im.GetPostsByUserId(ctx, "haris")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, second, posts[0].Id)

	err = im.DeletePost(ctx, "haris", first)
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
}

func TestInMemoryLikesAreASet(t *testing.T) {
	ctx := context.Background()
	im := storage.NewInMemoryStorage()

	id, err := im.AddPost(ctx, "haris", &post.Post{Content: "likeable"})
	require.NoError(t, err)

	p, err := im.AddLike(ctx, "haris", id, "fan")
	require.NoError(t, err)
	assert.Equal(t, []string{"fan"}, p.Likes)

	p, err = im.AddLike(ctx, "haris", id, "fan")
	require.NoError(t, err)
	assert.Equal(t, []string{"fan"}, p.Likes, "a second like by the same user is absorbed")

	p, err = im.AddLike(ctx, "haris", id, "fan2")
	require.NoError(t, err)
	assert.Equal(t, []string{"fan", "fan2"}, p.Likes)

	p, err = im.RemoveLike(ctx, "haris", id, "fan")
	require.NoError(t, err)
	assert.Equal(t, []string{"fan2"}, p.Likes)

	_, err = im.AddLike(ctx, "haris", "missing", "fan")
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
	_, err = im.RemoveLike(ctx, "haris", "missing", "fan")
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
}

func TestInMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	im := storage.NewInMemoryStorage()

	id, err := im.AddPost(ctx, "haris", &post.Post{Content: "original"})
	require.NoError(t, err)

	p, err := im.GetPostById(ctx, "haris", id)
	require.NoError(t, err)
	p.Content = "tampered"
	p.Likes = append(p.Likes, "ghost")

	again, err := im.GetPostById(ctx, "haris", id)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Content)
	assert.Empty(t, again.Likes)
}
