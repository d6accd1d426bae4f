// Package store keeps a local, observable mirror of one user's posts
// synchronized with the remote document store. The mirror is updated only
// after a remote operation confirms (confirm-then-apply): every operation
// runs its remote I/O first and, on success, hands a single outcome to the
// reducer goroutine, the sole writer of the cache. Failed operations are
// logged and leave the cache untouched.
package store

import (
	"context"
	"sync"
	"sync/atomic"

	"feedsync/domain/post"
	"feedsync/media"
	"feedsync/storage"

	"go.uber.org/zap"
)

// Cache is an immutable snapshot of the mirror. Loading stays true until
// the first successful fetch for the active user.
type Cache struct {
	Posts   []post.Post `json:"posts"`
	Loading bool        `json:"loading"`
}

type outcome struct {
	gen     uint64
	apply   func(*Cache)
	applied chan struct{}
}

type Store struct {
	storage  storage.Storage
	uploader media.Uploader
	logger   *zap.Logger

	gen uint64

	outcomes  chan outcome
	done      chan struct{}
	closeOnce sync.Once

	snap atomic.Value

	subsMu sync.Mutex
	subs   []chan struct{}
}

func New(st storage.Storage, up media.Uploader, logger *zap.Logger) *Store {
	s := &Store{
		storage:  st,
		uploader: up,
		logger:   logger,
		outcomes: make(chan outcome, 16),
		done:     make(chan struct{}),
	}
	s.snap.Store(Cache{Posts: []post.Post{}, Loading: true})
	go s.run()
	return s
}

// run is the reducer: the single goroutine allowed to mutate the cache.
// Outcomes whose generation no longer matches the active one are dropped,
// so a slow operation issued for a previously loaded user cannot overwrite
// newer state.
func (s *Store) run() {
	cache := Cache{Posts: []post.Post{}, Loading: true}
	for {
		select {
		case <-s.done:
			return
		case o := <-s.outcomes:
			if o.gen == atomic.LoadUint64(&s.gen) {
				o.apply(&cache)
				s.publish(cache)
			}
			close(o.applied)
		}
	}
}

func (s *Store) publish(c Cache) {
	s.snap.Store(Cache{Posts: clonePosts(c.Posts), Loading: c.Loading})
	s.subsMu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.subsMu.Unlock()
}

func clonePosts(posts []post.Post) []post.Post {
	out := make([]post.Post, len(posts))
	for i, p := range posts {
		out[i] = p
		out[i].Likes = append([]string(nil), p.Likes...)
	}
	return out
}

// Snapshot returns the current mirror state.
func (s *Store) Snapshot() Cache {
	return s.snap.Load().(Cache)
}

// Subscribe returns a channel that receives a coalesced signal whenever the
// mirror changes; receivers pull the new state with Snapshot.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subsMu.Lock()
	s.subs = append(s.subs, ch)
	s.subsMu.Unlock()
	return ch
}

func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Store) generation() uint64 {
	return atomic.LoadUint64(&s.gen)
}

// send delivers an outcome to the reducer and waits until it has been
// applied or discarded, so the mirror is settled by the time an operation
// returns.
func (s *Store) send(gen uint64, apply func(*Cache)) {
	o := outcome{gen: gen, apply: apply, applied: make(chan struct{})}
	select {
	case s.outcomes <- o:
	case <-s.done:
		return
	}
	select {
	case <-o.applied:
	case <-s.done:
	}
}

// SetUser switches the active user: the mirror resets to an empty, loading
// state and in-flight outcomes for the previous user are discarded.
func (s *Store) SetUser(userId string) {
	gen := atomic.AddUint64(&s.gen, 1)
	s.send(gen, func(c *Cache) {
		c.Posts = []post.Post{}
		c.Loading = true
	})
}

// FetchPostsByUser replaces the mirror wholesale with the user's remote
// collection and clears the loading flag. A user with no remote collection
// yields zero posts, not an error. On failure the mirror keeps its previous
// contents and loading keeps its previous value.
func (s *Store) FetchPostsByUser(ctx context.Context, userId string) error {
	gen := s.generation()
	posts, err := s.storage.GetPostsByUserId(ctx, userId)
	if err != nil {
		s.logger.Sugar().Errorf("failed to fetch user(%s) posts: %s", userId, err.Error())
		return err
	}
	fetched := make([]post.Post, 0, len(posts))
	for _, p := range posts {
		fetched = append(fetched, *p)
	}
	s.send(gen, func(c *Cache) {
		c.Posts = fetched
		c.Loading = false
	})
	return nil
}

// CreatePost uploads the blob first when one is supplied, creates the
// document with an empty like set, re-reads the canonical stored shape and
// prepends it to the mirror. An uploaded blob whose document creation then
// fails is not cleaned up.
func (s *Store) CreatePost(ctx context.Context, userId string, content string, blob *media.Blob) (*post.Post, error) {
	gen := s.generation()
	imageUrl := ""
	if blob != nil {
		url, err := s.uploader.Upload(ctx, blob.Name, blob.ContentType, blob.Data)
		if err != nil {
			s.logger.Sugar().Errorf("failed to upload media for user(%s): %s", userId, err.Error())
			return nil, err
		}
		imageUrl = url
	}
	id, err := s.storage.AddPost(ctx, userId, &post.Post{
		Content:  content,
		ImageUrl: imageUrl,
		Likes:    make([]string, 0),
	})
	if err != nil {
		s.logger.Sugar().Errorf("failed to create user(%s) post: %s", userId, err.Error())
		return nil, err
	}
	created, err := s.storage.GetPostById(ctx, userId, id)
	if err != nil {
		s.logger.Sugar().Errorf("failed to read back created post(%s) for user(%s): %s", id, userId, err.Error())
		return nil, err
	}
	p := *created
	s.send(gen, func(c *Cache) {
		c.Posts = append([]post.Post{p}, c.Posts...)
	})
	return created, nil
}

// UpdatePost merges the supplied fields over the stored document and writes
// it back in full; nil content or blob keep the previous values. The cached
// post is replaced in place, keeping its position. A missing post is a
// distinct failure, not a no-op.
func (s *Store) UpdatePost(ctx context.Context, userId string, postId string, content *string, blob *media.Blob) (*post.Post, error) {
	gen := s.generation()
	var imageUrl *string
	if blob != nil {
		url, err := s.uploader.Upload(ctx, blob.Name, blob.ContentType, blob.Data)
		if err != nil {
			s.logger.Sugar().Errorf("failed to upload media for post(%s): %s", postId, err.Error())
			return nil, err
		}
		imageUrl = &url
	}
	prev, err := s.storage.GetPostById(ctx, userId, postId)
	if err != nil {
		s.logger.Sugar().Errorf("failed to read post(%s) for update: %s", postId, err.Error())
		return nil, err
	}
	merged := *prev
	if content != nil {
		merged.Content = *content
	}
	if imageUrl != nil {
		merged.ImageUrl = *imageUrl
	}
	if err := s.storage.SetPost(ctx, userId, postId, &merged); err != nil {
		s.logger.Sugar().Errorf("failed to write post(%s) update: %s", postId, err.Error())
		return nil, err
	}
	p := merged
	s.send(gen, func(c *Cache) {
		for i := range c.Posts {
			if c.Posts[i].Id == postId {
				c.Posts[i] = p
				break
			}
		}
	})
	return &merged, nil
}

// DeletePost removes the post from the mirror only after the remote delete
// confirmed; the order of surviving posts is preserved.
func (s *Store) DeletePost(ctx context.Context, userId string, postId string) error {
	gen := s.generation()
	if err := s.storage.DeletePost(ctx, userId, postId); err != nil {
		s.logger.Sugar().Errorf("failed to delete post(%s): %s", postId, err.Error())
		return err
	}
	s.send(gen, func(c *Cache) {
		for i := range c.Posts {
			if c.Posts[i].Id == postId {
				c.Posts = append(c.Posts[:i], c.Posts[i+1:]...)
				break
			}
		}
	})
	return nil
}

// LikePost adds likerId to the post's like set with the store's atomic
// set-union. The reducer takes the like array from the post-write document,
// never a local append, so the mirror cannot diverge from remote truth.
// A missing post fails with storage.ErrPostNotFound.
func (s *Store) LikePost(ctx context.Context, userId string, postId string, likerId string) error {
	gen := s.generation()
	updated, err := s.storage.AddLike(ctx, userId, postId, likerId)
	if err != nil {
		s.logger.Sugar().Errorf("failed to like post(%s) by user(%s): %s", postId, likerId, err.Error())
		return err
	}
	s.applyLikes(gen, postId, updated.Likes)
	return nil
}

// UnlikePost is the inverse of LikePost, backed by atomic set-remove.
func (s *Store) UnlikePost(ctx context.Context, userId string, postId string, likerId string) error {
	gen := s.generation()
	updated, err := s.storage.RemoveLike(ctx, userId, postId, likerId)
	if err != nil {
		s.logger.Sugar().Errorf("failed to unlike post(%s) by user(%s): %s", postId, likerId, err.Error())
		return err
	}
	s.applyLikes(gen, postId, updated.Likes)
	return nil
}

func (s *Store) applyLikes(gen uint64, postId string, likes []string) {
	confirmed := append([]string(nil), likes...)
	s.send(gen, func(c *Cache) {
		for i := range c.Posts {
			if c.Posts[i].Id == postId {
				c.Posts[i].Likes = confirmed
				break
			}
		}
	})
}
