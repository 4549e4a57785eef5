// Package ledger keeps the social-graph relationships: follows between
// users, and the per-session liked and saved post sets with their like
// counters.
package ledger

import (
	"context"
	"slices"

	apperrors "github.com/shivamghaware/BlogIn/internal/errors"
	"github.com/shivamghaware/BlogIn/internal/events"
	"github.com/shivamghaware/BlogIn/internal/logger"
	"github.com/shivamghaware/BlogIn/internal/models"
	"github.com/shivamghaware/BlogIn/internal/repository"
	"github.com/shivamghaware/BlogIn/internal/store"
)

var logg = logger.New()

// Ledger writes both sides of a relationship in one batch, so readers never
// see a follow recorded on only one side.
type Ledger struct {
	store *store.Adapter
	repos *repository.Repositories
}

func New(a *store.Adapter, repos *repository.Repositories) *Ledger {
	return &Ledger{store: a, repos: repos}
}

func (l *Ledger) ids(ctx context.Context, key string) []string {
	return store.ReadOr(ctx, l.store, key, []string{})
}

// Follow records follower following target. Following twice is a no-op.
func (l *Ledger) Follow(ctx context.Context, followerID, targetID string) error {
	return l.setFollow(ctx, followerID, targetID, true)
}

// Unfollow removes the relationship. Unfollowing a stranger is a no-op.
func (l *Ledger) Unfollow(ctx context.Context, followerID, targetID string) error {
	return l.setFollow(ctx, followerID, targetID, false)
}

func (l *Ledger) setFollow(ctx context.Context, followerID, targetID string, on bool) error {
	if followerID == targetID {
		return apperrors.Validation("users cannot follow themselves")
	}
	if _, err := l.repos.Users.GetByID(ctx, followerID); err != nil {
		return err
	}
	if _, err := l.repos.Users.GetByID(ctx, targetID); err != nil {
		return err
	}

	followingKey, followersKey := store.FollowingKey(followerID), store.FollowersKey(targetID)
	unlock := l.store.Lock(followingKey, followersKey)
	defer unlock()

	following, changedA := toggleID(l.ids(ctx, followingKey), targetID, on)
	followers, changedB := toggleID(l.ids(ctx, followersKey), followerID, on)
	if !changedA && !changedB {
		return nil
	}

	err := l.store.WriteMany(ctx, []store.Change{
		{Key: followingKey, Value: following},
		{Key: followersKey, Value: followers},
	}, events.Ref{Kind: events.KindFollow, ID: targetID})
	if err != nil {
		return err
	}
	if on {
		logg.Info("ledger", "user_id="+followerID+" followed user_id="+targetID)
	} else {
		logg.Info("ledger", "user_id="+followerID+" unfollowed user_id="+targetID)
	}
	return nil
}

// toggleID adds or removes id, reporting whether the list changed.
func toggleID(list []string, id string, on bool) ([]string, bool) {
	i := slices.Index(list, id)
	switch {
	case on && i < 0:
		return append(list, id), true
	case !on && i >= 0:
		return slices.Delete(list, i, i+1), true
	}
	return list, false
}

func (l *Ledger) IsFollowing(ctx context.Context, followerID, targetID string) bool {
	return slices.Contains(l.ids(ctx, store.FollowingKey(followerID)), targetID)
}

// ListFollowers resolves follower ids to users, dropping unknown ids.
func (l *Ledger) ListFollowers(ctx context.Context, userID string) ([]models.User, error) {
	return l.resolve(ctx, l.ids(ctx, store.FollowersKey(userID)))
}

func (l *Ledger) ListFollowing(ctx context.Context, userID string) ([]models.User, error) {
	return l.resolve(ctx, l.ids(ctx, store.FollowingKey(userID)))
}

func (l *Ledger) resolve(ctx context.Context, ids []string) ([]models.User, error) {
	all, err := l.repos.Users.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.User{}
	for _, id := range ids {
		for _, u := range all {
			if u.ID == id {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

// ToggleLike flips the session's like on slug and moves the post's counter
// by one, never below zero. The counter starts from any persisted override,
// falling back to the post's own likes.
func (l *Ledger) ToggleLike(ctx context.Context, sessionID, slug string) (models.LikeResult, error) {
	post, err := l.repos.Posts.GetBySlug(ctx, slug)
	if err != nil {
		return models.LikeResult{}, err
	}

	likedKey, countKey := store.LikedPostsKey(sessionID), store.LikeCountKey(slug)
	unlock := l.store.Lock(likedKey, countKey)
	defer unlock()

	// GetBySlug already applied the override, but it may have moved since.
	base := store.ReadOr(ctx, l.store, countKey, post.Likes)
	liked, on := flip(l.ids(ctx, likedKey), slug)

	count := base + 1
	if !on {
		count = max(base-1, 0)
	}

	err = l.store.WriteMany(ctx, []store.Change{
		{Key: likedKey, Value: liked},
		{Key: countKey, Value: count},
	}, events.Ref{Kind: events.KindLike, ID: slug, SessionID: sessionID})
	if err != nil {
		return models.LikeResult{}, err
	}
	return models.LikeResult{Liked: on, Count: count}, nil
}

// ToggleBookmark flips slug in the session's saved set.
func (l *Ledger) ToggleBookmark(ctx context.Context, sessionID, slug string) (models.BookmarkResult, error) {
	if _, err := l.repos.Posts.GetBySlug(ctx, slug); err != nil {
		return models.BookmarkResult{}, err
	}

	key := store.SavedPostsKey(sessionID)
	unlock := l.store.Lock(key)
	defer unlock()

	saved, on := flip(l.ids(ctx, key), slug)
	ref := events.Ref{Kind: events.KindBookmark, ID: slug, SessionID: sessionID}
	if err := l.store.Write(ctx, key, saved, ref); err != nil {
		return models.BookmarkResult{}, err
	}
	return models.BookmarkResult{Bookmarked: on}, nil
}

// flip toggles slug in set and reports whether it is now a member.
func flip(set []string, slug string) ([]string, bool) {
	if i := slices.Index(set, slug); i >= 0 {
		return slices.Delete(set, i, i+1), false
	}
	return append(set, slug), true
}

func (l *Ledger) IsLiked(ctx context.Context, sessionID, slug string) bool {
	return slices.Contains(l.ids(ctx, store.LikedPostsKey(sessionID)), slug)
}

func (l *Ledger) IsBookmarked(ctx context.Context, sessionID, slug string) bool {
	return slices.Contains(l.ids(ctx, store.SavedPostsKey(sessionID)), slug)
}

// LikedPosts lists the session's liked posts that still exist.
func (l *Ledger) LikedPosts(ctx context.Context, sessionID string) ([]models.Post, error) {
	return l.posts(ctx, l.ids(ctx, store.LikedPostsKey(sessionID)))
}

// SavedPosts lists the session's bookmarked posts that still exist.
func (l *Ledger) SavedPosts(ctx context.Context, sessionID string) ([]models.Post, error) {
	return l.posts(ctx, l.ids(ctx, store.SavedPostsKey(sessionID)))
}

func (l *Ledger) posts(ctx context.Context, slugs []string) ([]models.Post, error) {
	all, err := l.repos.Posts.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Post{}
	for _, p := range all {
		if slices.Contains(slugs, p.Slug) {
			out = append(out, p)
		}
	}
	return out, nil
}
