package repository

import (
	"context"
	"strconv"
	"strings"

	apperrors "github.com/shivamghaware/BlogIn/internal/errors"
	"github.com/shivamghaware/BlogIn/internal/events"
	"github.com/shivamghaware/BlogIn/internal/models"
	"github.com/shivamghaware/BlogIn/internal/store"
	"github.com/shivamghaware/BlogIn/internal/util"
)

// Posts stores posts in insertion order. The stored likes and
// commentsCount fields are not trusted on read: like overrides and live
// comment counts replace them.
type Posts struct {
	store *store.Adapter
	clock util.Clock
}

func (r *Posts) GetAll(ctx context.Context) ([]models.Post, error) {
	if err := r.store.Delay(ctx); err != nil {
		return nil, err
	}
	return r.all(ctx), nil
}

func (r *Posts) all(ctx context.Context) []models.Post {
	posts := loadPosts(ctx, r.store)
	comments := loadComments(ctx, r.store)
	for i := range posts {
		r.decorate(ctx, &posts[i], comments)
	}
	return posts
}

func (r *Posts) decorate(ctx context.Context, p *models.Post, comments map[string][]models.Comment) {
	p.CommentsCount = len(comments[p.Slug])
	if n, ok := store.Lookup[int](ctx, r.store, store.LikeCountKey(p.Slug)); ok {
		p.Likes = n
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}

func (r *Posts) GetBySlug(ctx context.Context, slug string) (models.Post, error) {
	if err := r.store.Delay(ctx); err != nil {
		return models.Post{}, err
	}
	posts := loadPosts(ctx, r.store)
	i := findPost(posts, slug)
	if i < 0 {
		return models.Post{}, apperrors.NotFound("post", slug)
	}
	p := posts[i]
	r.decorate(ctx, &p, loadComments(ctx, r.store))
	return p, nil
}

// ListByTag matches tags case-insensitively.
func (r *Posts) ListByTag(ctx context.Context, tag string) ([]models.Post, error) {
	return r.filter(ctx, func(p models.Post) bool {
		for _, t := range p.Tags {
			if strings.EqualFold(t, tag) {
				return true
			}
		}
		return false
	})
}

func (r *Posts) ListByAuthor(ctx context.Context, userID string) ([]models.Post, error) {
	return r.filter(ctx, func(p models.Post) bool { return p.Author.ID == userID })
}

// Search does a case-insensitive substring match on title, content and tags.
// A blank query matches everything.
func (r *Posts) Search(ctx context.Context, query string) ([]models.Post, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return r.filter(ctx, func(p models.Post) bool {
		if q == "" ||
			strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Content), q) {
			return true
		}
		for _, t := range p.Tags {
			if strings.Contains(strings.ToLower(t), q) {
				return true
			}
		}
		return false
	})
}

func (r *Posts) filter(ctx context.Context, keep func(models.Post) bool) ([]models.Post, error) {
	if err := r.store.Delay(ctx); err != nil {
		return nil, err
	}
	out := []models.Post{}
	for _, p := range r.all(ctx) {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Tags lists distinct tags in first-seen order.
func (r *Posts) Tags(ctx context.Context) ([]string, error) {
	if err := r.store.Delay(ctx); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	tags := []string{}
	for _, p := range loadPosts(ctx, r.store) {
		for _, t := range p.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	return tags, nil
}

// Create prepends a new post authored by the given snapshot.
func (r *Posts) Create(ctx context.Context, author models.User, title, content, tagsText string) (models.Post, error) {
	if err := r.store.Delay(ctx); err != nil {
		return models.Post{}, err
	}
	if author.ID == "" {
		return models.Post{}, apperrors.New(apperrors.CodeUnauthenticated, "log in to publish a post")
	}

	unlock := r.store.Lock(store.KeyPosts)
	defer unlock()

	posts := loadPosts(ctx, r.store)
	now := r.clock.NowUtc()
	slug := uniqueSlug(posts, Slugify(title)+"-"+strconv.FormatInt(now.UnixNano(), 36))
	tags := ParseTags(tagsText)

	hint := "blog post"
	if len(tags) > 0 {
		hint = strings.ToLower(tags[0])
	}
	p := models.Post{
		Slug:      slug,
		Title:     title,
		Content:   content,
		Author:    author,
		CreatedAt: now,
		Tags:      tags,
		ImageURL:  "https://picsum.photos/seed/" + slug + "/800/600",
		ImageHint: hint,
	}
	posts = append([]models.Post{p}, posts...)

	if err := r.store.Write(ctx, store.KeyPosts, posts, events.Ref{Kind: events.KindPost, ID: slug}); err != nil {
		return models.Post{}, err
	}
	logg.Info("repository/posts", "Created post "+slug)
	return p, nil
}

func uniqueSlug(posts []models.Post, base string) string {
	slug := base
	for n := 2; findPost(posts, slug) >= 0; n++ {
		slug = base + "-" + strconv.Itoa(n)
	}
	return slug
}

// Update replaces title, content and tags. Slug, author, createdAt and
// likes are preserved.
func (r *Posts) Update(ctx context.Context, callerID, slug, title, content, tagsText string) (models.Post, error) {
	if err := r.store.Delay(ctx); err != nil {
		return models.Post{}, err
	}
	unlock := r.store.Lock(store.KeyPosts)
	defer unlock()

	posts := loadPosts(ctx, r.store)
	i, err := ownedPost(posts, callerID, slug)
	if err != nil {
		return models.Post{}, err
	}
	posts[i].Title = title
	posts[i].Content = content
	posts[i].Tags = ParseTags(tagsText)

	if err := r.store.Write(ctx, store.KeyPosts, posts, events.Ref{Kind: events.KindPost, ID: slug}); err != nil {
		return models.Post{}, err
	}
	p := posts[i]
	r.decorate(ctx, &p, loadComments(ctx, r.store))
	return p, nil
}

// Delete removes the post together with its comments, like override and
// stored suggestions.
func (r *Posts) Delete(ctx context.Context, callerID, slug string) error {
	if err := r.store.Delay(ctx); err != nil {
		return err
	}
	unlock := r.store.Lock(store.KeyPosts, store.KeyComments, store.LikeCountKey(slug))
	defer unlock()

	posts := loadPosts(ctx, r.store)
	i, err := ownedPost(posts, callerID, slug)
	if err != nil {
		return err
	}
	posts = append(posts[:i:i], posts[i+1:]...)

	changes := []store.Change{
		{Key: store.KeyPosts, Value: posts},
		{Key: store.LikeCountKey(slug), Delete: true},
		{Key: store.SuggestionsKey(slug), Delete: true},
	}
	comments := loadComments(ctx, r.store)
	if _, ok := comments[slug]; ok {
		delete(comments, slug)
		changes = append(changes, store.Change{Key: store.KeyComments, Value: comments})
	}

	if err := r.store.WriteMany(ctx, changes, events.Ref{Kind: events.KindPost, ID: slug}); err != nil {
		return err
	}
	logg.Info("repository/posts", "Deleted post "+slug)
	return nil
}

func ownedPost(posts []models.Post, callerID, slug string) (int, error) {
	i := findPost(posts, slug)
	if i < 0 {
		return -1, apperrors.NotFound("post", slug)
	}
	if callerID == "" || posts[i].Author.ID != callerID {
		return -1, apperrors.Forbidden("only the author can change this post")
	}
	return i, nil
}
