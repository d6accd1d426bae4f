package storage

import (
	"context"
	"encoding/json"
	"time"

	"feedsync/domain/post"

	"github.com/go-redis/redis/v8"
)

// CachedStorage puts a shared redis read-through cache in front of another
// Storage. Cache failures are best-effort: a miss or redis error just falls
// through to the inner storage, and stale keys are deleted on every write.
type CachedStorage struct {
	Client          *redis.Client
	InternalStorage Storage
}

func (cs *CachedStorage) postIdKey(userId string, postId string) string {
	return "pid:" + userId + ":" + postId
}

func (cs *CachedStorage) userPostsKey(userId string) string {
	return "uposts:" + userId
}

func (cs *CachedStorage) storePost(ctx context.Context, userId string, p *post.Post) {
	res, _ := json.Marshal(p)
	_ = cs.Client.Set(ctx, cs.postIdKey(userId, p.Id), string(res), time.Hour)
}

func (cs *CachedStorage) getPost(ctx context.Context, userId string, postId string) *post.Post {
	r, err := cs.Client.Get(ctx, cs.postIdKey(userId, postId)).Result()
	if err != nil {
		return nil
	}
	var p post.Post
	if err := json.Unmarshal([]byte(r), &p); err != nil {
		return nil
	}
	return &p
}

func (cs *CachedStorage) getPosts(ctx context.Context, userId string) ([]*post.Post, error) {
	r, err := cs.Client.Get(ctx, cs.userPostsKey(userId)).Result()
	if err != nil {
		return nil, ErrCacheMiss
	}
	var psts []post.Post
	if err := json.Unmarshal([]byte(r), &psts); err != nil {
		return nil, ErrCacheMiss
	}
	posts := make([]*post.Post, 0, len(psts))
	for i := range psts {
		posts = append(posts, &psts[i])
	}
	return posts, nil
}

func (cs *CachedStorage) invalidate(ctx context.Context, userId string, postIds ...string) {
	keys := []string{cs.userPostsKey(userId)}
	for _, id := range postIds {
		keys = append(keys, cs.postIdKey(userId, id))
	}
	cs.Client.Del(ctx, keys...)
}

func (cs *CachedStorage) GetPostsByUserId(ctx context.Context, userId string) ([]*post.Post, error) {
	posts, err := cs.getPosts(ctx, userId)
	if err == nil {
		return posts, nil
	}
	posts, err = cs.InternalStorage.GetPostsByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}
	res, _ := json.Marshal(posts)
	cs.Client.Set(ctx, cs.userPostsKey(userId), string(res), time.Hour)
	return posts, nil
}

func (cs *CachedStorage) GetPostById(ctx context.Context, userId string, postId string) (*post.Post, error) {
	if p := cs.getPost(ctx, userId, postId); p != nil {
		return p, nil
	}
	p, err := cs.InternalStorage.GetPostById(ctx, userId, postId)
	if err != nil {
		return nil, err
	}
	cs.storePost(ctx, userId, p)
	return p, nil
}

func (cs *CachedStorage) AddPost(ctx context.Context, userId string, p *post.Post) (string, error) {
	id, err := cs.InternalStorage.AddPost(ctx, userId, p)
	if err != nil {
		return "", err
	}
	cs.invalidate(ctx, userId)
	return id, nil
}

func (cs *CachedStorage) SetPost(ctx context.Context, userId string, postId string, p *post.Post) error {
	if err := cs.InternalStorage.SetPost(ctx, userId, postId, p); err != nil {
		return err
	}
	cs.invalidate(ctx, userId, postId)
	return nil
}

func (cs *CachedStorage) MergePost(ctx context.Context, userId string, postId string, fields map[string]any) error {
	if err := cs.InternalStorage.MergePost(ctx, userId, postId, fields); err != nil {
		return err
	}
	cs.invalidate(ctx, userId, postId)
	return nil
}

func (cs *CachedStorage) DeletePost(ctx context.Context, userId string, postId string) error {
	if err := cs.InternalStorage.DeletePost(ctx, userId, postId); err != nil {
		return err
	}
	cs.invalidate(ctx, userId, postId)
	return nil
}

func (cs *CachedStorage) AddLike(ctx context.Context, userId string, postId string, likerId string) (*post.Post, error) {
	p, err := cs.InternalStorage.AddLike(ctx, userId, postId, likerId)
	if err != nil {
		return nil, err
	}
	cs.invalidate(ctx, userId, postId)
	cs.storePost(ctx, userId, p)
	return p, nil
}

func (cs *CachedStorage) RemoveLike(ctx context.Context, userId string, postId string, likerId string) (*post.Post, error) {
	p, err := cs.InternalStorage.RemoveLike(ctx, userId, postId, likerId)
	if err != nil {
		return nil, err
	}
	cs.invalidate(ctx, userId, postId)
	cs.storePost(ctx, userId, p)
	return p, nil
}
