package models

import "time"

type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	AvatarURL      string `json:"avatarUrl"`
	Bio            string `json:"bio,omitempty"`
	FollowersCount int    `json:"followersCount,omitempty"`
	FollowingCount int    `json:"followingCount,omitempty"`
}

// Post embeds a snapshot of its author taken at creation time.
type Post struct {
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Author        User      `json:"author"`
	CreatedAt     time.Time `json:"createdAt"`
	Tags          []string  `json:"tags"`
	ImageURL      string    `json:"imageUrl"`
	ImageHint     string    `json:"imageHint"`
	Likes         int       `json:"likes"`
	CommentsCount int       `json:"commentsCount"`
}

type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	PostSlug  string    `json:"postSlug"`
}

type LikeResult struct {
	Liked bool `json:"liked"`
	Count int  `json:"newCount"`
}

type BookmarkResult struct {
	Bookmarked bool `json:"bookmarked"`
}

// Suggestions are tag suggestions precomputed for a post.
type Suggestions struct {
	Slug       string    `json:"slug"`
	Categories []string  `json:"categories"`
	CreatedAt  time.Time `json:"createdAt"`
}
