package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/shivamghaware/BlogIn/internal/errors"
	"github.com/shivamghaware/BlogIn/internal/events"
	"github.com/shivamghaware/BlogIn/internal/models"
	"github.com/shivamghaware/BlogIn/internal/store"
	"github.com/shivamghaware/BlogIn/internal/util"
)

// Comments are stored as one map from post slug to the comments on it.
type Comments struct {
	store *store.Adapter
	clock util.Clock
}

func newestFirst(list []models.Comment) {
	slices.SortStableFunc(list, func(a, b models.Comment) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
}

func (r *Comments) ListForPost(ctx context.Context, slug string) ([]models.Comment, error) {
	if err := r.store.Delay(ctx); err != nil {
		return nil, err
	}
	list := slices.Clone(loadComments(ctx, r.store)[slug])
	if list == nil {
		list = []models.Comment{}
	}
	for i := range list {
		list[i].PostSlug = slug
	}
	newestFirst(list)
	return list, nil
}

// Add appends a comment to an existing post.
func (r *Comments) Add(ctx context.Context, postSlug string, author models.User, text string) (models.Comment, error) {
	if err := r.store.Delay(ctx); err != nil {
		return models.Comment{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Comment{}, apperrors.Validation("comment text is required")
	}
	if author.ID == "" {
		return models.Comment{}, apperrors.New(apperrors.CodeUnauthenticated, "log in to comment")
	}

	unlock := r.store.Lock(store.KeyComments)
	defer unlock()

	if findPost(loadPosts(ctx, r.store), postSlug) < 0 {
		return models.Comment{}, apperrors.NotFound("post", postSlug)
	}

	c := models.Comment{
		ID:        "comment-" + uuid.NewString(),
		Text:      text,
		Author:    author,
		CreatedAt: r.clock.NowUtc(),
		PostSlug:  postSlug,
	}
	comments := loadComments(ctx, r.store)
	comments[postSlug] = append(comments[postSlug], c)

	ref := events.Ref{Kind: events.KindComment, ID: c.ID}
	if err := r.store.Write(ctx, store.KeyComments, comments, ref); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// ListAll flattens comments across live posts, newest first.
func (r *Comments) ListAll(ctx context.Context) ([]models.Comment, error) {
	return r.flatten(ctx, func(models.Comment) bool { return true })
}

func (r *Comments) ListByAuthor(ctx context.Context, userID string) ([]models.Comment, error) {
	return r.flatten(ctx, func(c models.Comment) bool { return c.Author.ID == userID })
}

func (r *Comments) flatten(ctx context.Context, keep func(models.Comment) bool) ([]models.Comment, error) {
	if err := r.store.Delay(ctx); err != nil {
		return nil, err
	}
	live := make(map[string]bool)
	for _, p := range loadPosts(ctx, r.store) {
		live[p.Slug] = true
	}

	out := []models.Comment{}
	for slug, list := range loadComments(ctx, r.store) {
		if !live[slug] {
			continue
		}
		for _, c := range list {
			c.PostSlug = slug
			if keep(c) {
				out = append(out, c)
			}
		}
	}
	newestFirst(out)
	return out, nil
}

func (r *Comments) CountFor(ctx context.Context, slug string) (int, error) {
	if err := r.store.Delay(ctx); err != nil {
		return 0, err
	}
	return len(loadComments(ctx, r.store)[slug]), nil
}

// Counts maps every slug with comments to its comment count.
func (r *Comments) Counts(ctx context.Context) (map[string]int, error) {
	if err := r.store.Delay(ctx); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for slug, list := range loadComments(ctx, r.store) {
		counts[slug] = len(list)
	}
	return counts, nil
}
