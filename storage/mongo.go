package storage

import (
	"context"
	"feedsync/domain/post"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStorage keeps every user's posts in one collection, with the owning
// user's id on each document. Listing sorts by _id descending so the newest
// post comes first, matching the prepend-on-create cache policy.
type MongoStorage struct {
	Posts *mongo.Collection
}

func (m *MongoStorage) filter(userId string, postId string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(postId)
	if err != nil {
		return nil, ErrPostNotFound
	}
	return bson.M{"_id": oid, "authorId": userId}, nil
}

func (m *MongoStorage) GetPostsByUserId(ctx context.Context, userId string) ([]*post.Post, error) {
	arr := make([]*post.Post, 0)
	opt := options.Find()
	opt.SetSort(bson.D{{Key: "_id", Value: -1}})
	cur, err := m.Posts.Find(ctx, bson.M{"authorId": userId}, opt)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var pwo post.PostWithOID
		if err := cur.Decode(&pwo); err != nil {
			return nil, err
		}
		p := pwo.ToPost()
		arr = append(arr, &p)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return arr, nil
}

func (m *MongoStorage) GetPostById(ctx context.Context, userId string, postId string) (*post.Post, error) {
	filter, err := m.filter(userId, postId)
	if err != nil {
		return nil, err
	}
	var pwo post.PostWithOID
	err = m.Posts.FindOne(ctx, filter).Decode(&pwo)
	if err == mongo.ErrNoDocuments {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	p := pwo.ToPost()
	return &p, nil
}

func (m *MongoStorage) AddPost(ctx context.Context, userId string, p *post.Post) (string, error) {
	likes := p.Likes
	if likes == nil {
		likes = make([]string, 0)
	}
	doc := post.PostWithOID{
		AuthorId: userId,
		Content:  p.Content,
		ImageUrl: p.ImageUrl,
		Likes:    likes,
	}
	res, err := m.Posts.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (m *MongoStorage) SetPost(ctx context.Context, userId string, postId string, p *post.Post) error {
	filter, err := m.filter(userId, postId)
	if err != nil {
		return err
	}
	oid, _ := primitive.ObjectIDFromHex(postId)
	doc := post.PostWithOID{
		ID:       oid,
		AuthorId: userId,
		Content:  p.Content,
		ImageUrl: p.ImageUrl,
		Likes:    p.Likes,
	}
	res, err := m.Posts.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (m *MongoStorage) MergePost(ctx context.Context, userId string, postId string, fields map[string]any) error {
	filter, err := m.filter(userId, postId)
	if err != nil {
		return err
	}
	res, err := m.Posts.UpdateOne(ctx, filter, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (m *MongoStorage) DeletePost(ctx context.Context, userId string, postId string) error {
	filter, err := m.filter(userId, postId)
	if err != nil {
		return err
	}
	res, err := m.Posts.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// AddLike relies on $addToSet so two racing likes cannot lose an update or
// duplicate an entry. The returned post reflects the document after the
// write.
func (m *MongoStorage) AddLike(ctx context.Context, userId string, postId string, likerId string) (*post.Post, error) {
	return m.updateLikes(ctx, userId, postId, bson.D{{Key: "$addToSet", Value: bson.M{"likes": likerId}}})
}

func (m *MongoStorage) RemoveLike(ctx context.Context, userId string, postId string, likerId string) (*post.Post, error) {
	return m.updateLikes(ctx, userId, postId, bson.D{{Key: "$pull", Value: bson.M{"likes": likerId}}})
}

func (m *MongoStorage) updateLikes(ctx context.Context, userId string, postId string, update bson.D) (*post.Post, error) {
	filter, err := m.filter(userId, postId)
	if err != nil {
		return nil, err
	}
	opt := options.FindOneAndUpdate()
	after := options.After
	opt.ReturnDocument = &after
	var pwo post.PostWithOID
	err = m.Posts.FindOneAndUpdate(ctx, filter, update, opt).Decode(&pwo)
	if err == mongo.ErrNoDocuments {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	p := pwo.ToPost()
	return &p, nil
}
