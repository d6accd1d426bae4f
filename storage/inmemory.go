package storage

import (
	"context"
	"sync"

	"feedsync/domain/post"
	"feedsync/utils"
)

type storedPost struct {
	authorId string
	p        post.Post
}

// InMemoryStorage is a process-local Storage used by tests and as a
// standalone backend. Listing returns reverse insertion order to match the
// Mongo adapter's newest-first sort.
type InMemoryStorage struct {
	mu               sync.RWMutex
	postIdToPost     map[string]*storedPost
	userIdToPostsIds map[string][]string
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		postIdToPost:     make(map[string]*storedPost),
		userIdToPostsIds: make(map[string][]string),
	}
}

func clonePost(p post.Post) post.Post {
	c := p
	c.Likes = make([]string, len(p.Likes))
	copy(c.Likes, p.Likes)
	return c
}

func (im *InMemoryStorage) GetPostsByUserId(_ context.Context, userId string) ([]*post.Post, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()
	ids := im.userIdToPostsIds[userId]
	arr := make([]*post.Post, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		p := clonePost(im.postIdToPost[ids[i]].p)
		arr = append(arr, &p)
	}
	return arr, nil
}

func (im *InMemoryStorage) GetPostById(_ context.Context, userId string, postId string) (*post.Post, error) {
	im.mu.RLock()
	defer im.mu.RUnlock()
	sp, ok := im.postIdToPost[postId]
	if !ok || sp.authorId != userId {
		return nil, ErrPostNotFound
	}
	p := clonePost(sp.p)
	return &p, nil
}

func (im *InMemoryStorage) AddPost(_ context.Context, userId string, p *post.Post) (string, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	var id string
	for {
		id = utils.GeneratePostId()
		if _, ok := im.postIdToPost[id]; !ok {
			break
		}
	}
	stored := clonePost(*p)
	stored.Id = id
	if stored.Likes == nil {
		stored.Likes = make([]string, 0)
	}
	im.postIdToPost[id] = &storedPost{authorId: userId, p: stored}
	im.userIdToPostsIds[userId] = append(im.userIdToPostsIds[userId], id)
	return id, nil
}

func (im *InMemoryStorage) SetPost(_ context.Context, userId string, postId string, p *post.Post) error {
	im.mu.Lock()
	defer im.mu.Unlock()
	sp, ok := im.postIdToPost[postId]
	if !ok || sp.authorId != userId {
		return ErrPostNotFound
	}
	stored := clonePost(*p)
	stored.Id = postId
	sp.p = stored
	return nil
}

func (im *InMemoryStorage) MergePost(_ context.Context, userId string, postId string, fields map[string]any) error {
	im.mu.Lock()
	defer im.mu.Unlock()
	sp, ok := im.postIdToPost[postId]
	if !ok || sp.authorId != userId {
		return ErrPostNotFound
	}
	if v, ok := fields["content"].(string); ok {
		sp.p.Content = v
	}
	if v, ok := fields["imageUrl"].(string); ok {
		sp.p.ImageUrl = v
	}
	return nil
}

func (im *InMemoryStorage) DeletePost(_ context.Context, userId string, postId string) error {
	im.mu.Lock()
	defer im.mu.Unlock()
	sp, ok := im.postIdToPost[postId]
	if !ok || sp.authorId != userId {
		return ErrPostNotFound
	}
	delete(im.postIdToPost, postId)
	ids := im.userIdToPostsIds[userId]
	for i, id := range ids {
		if id == postId {
			im.userIdToPostsIds[userId] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (im *InMemoryStorage) AddLike(_ context.Context, userId string, postId string, likerId string) (*post.Post, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	sp, ok := im.postIdToPost[postId]
	if !ok || sp.authorId != userId {
		return nil, ErrPostNotFound
	}
	present := false
	for _, l := range sp.p.Likes {
		if l == likerId {
			present = true
			break
		}
	}
	if !present {
		sp.p.Likes = append(sp.p.Likes, likerId)
	}
	p := clonePost(sp.p)
	return &p, nil
}

func (im *InMemoryStorage) RemoveLike(_ context.Context, userId string, postId string, likerId string) (*post.Post, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	sp, ok := im.postIdToPost[postId]
	if !ok || sp.authorId != userId {
		return nil, ErrPostNotFound
	}
	likes := sp.p.Likes[:0]
	for _, l := range sp.p.Likes {
		if l != likerId {
			likes = append(likes, l)
		}
	}
	sp.p.Likes = likes
	p := clonePost(sp.p)
	return &p, nil
}
