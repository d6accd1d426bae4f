package post

import "go.mongodb.org/mongo-driver/bson/primitive"

// Post is a single user-authored feed entry. Likes holds the ids of users
// who liked the post and behaves as a set; uniqueness is enforced by the
// storage layer on write.
type Post struct {
	Id       string   `json:"id" bson:"id"`
	Content  string   `json:"content" bson:"content"`
	ImageUrl string   `json:"imageUrl" bson:"imageUrl"`
	Likes    []string `json:"likes" bson:"likes"`
}

// PostWithOID is the stored document shape. The owning user's id lives on
// the document so one collection can hold every user's posts; the hex of
// the store-assigned ObjectID doubles as the post id.
type PostWithOID struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	AuthorId string             `bson:"authorId"`
	Content  string             `bson:"content"`
	ImageUrl string             `bson:"imageUrl"`
	Likes    []string           `bson:"likes"`
}

func (pwo *PostWithOID) ToPost() Post {
	likes := pwo.Likes
	if likes == nil {
		likes = make([]string, 0)
	}
	return Post{
		Id:       pwo.ID.Hex(),
		Content:  pwo.Content,
		ImageUrl: pwo.ImageUrl,
		Likes:    likes,
	}
}
