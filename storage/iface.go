package storage

import (
	"context"
	"feedsync/domain/post"
)

// Storage is the remote document store seen by the synchronization store.
// Every post lives in exactly one user's collection, addressed by
// (userId, postId). Implementations must keep likes a set: AddLike and
// RemoveLike are atomic set-union/set-remove and return the document as it
// stands after the write.
type Storage interface {
	GetPostsByUserId(ctx context.Context, userId string) ([]*post.Post, error)
	GetPostById(ctx context.Context, userId string, postId string) (*post.Post, error)
	AddPost(ctx context.Context, userId string, p *post.Post) (string, error)
	SetPost(ctx context.Context, userId string, postId string, p *post.Post) error
	MergePost(ctx context.Context, userId string, postId string, fields map[string]any) error
	DeletePost(ctx context.Context, userId string, postId string) error
	AddLike(ctx context.Context, userId string, postId string, likerId string) (*post.Post, error)
	RemoveLike(ctx context.Context, userId string, postId string, likerId string) (*post.Post, error)
}
