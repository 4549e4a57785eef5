// Package repository holds the typed read/query/write operations over the
// persistence adapter for users, posts and comments.
//
// Read paths never fail because of storage problems: they resolve to empty
// values. They return an error only for a missing entity or a cancelled
// context. Mutations surface NotFound and Forbidden explicitly.
package repository

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/shivamghaware/BlogIn/internal/logger"
	"github.com/shivamghaware/BlogIn/internal/models"
	"github.com/shivamghaware/BlogIn/internal/store"
	"github.com/shivamghaware/BlogIn/internal/util"
)

var logg = logger.New()

// Repositories bundles the three entity repositories over one adapter.
type Repositories struct {
	Users    *Users
	Posts    *Posts
	Comments *Comments
}

// New builds all repositories sharing a and clock. A nil clock uses the wall clock.
func New(a *store.Adapter, clock util.Clock) *Repositories {
	if clock == nil {
		clock = util.NewRealClock()
	}
	return &Repositories{
		Users:    &Users{store: a},
		Posts:    &Posts{store: a, clock: clock},
		Comments: &Comments{store: a, clock: clock},
	}
}

func loadUsers(ctx context.Context, a *store.Adapter) []models.User {
	return store.ReadOr(ctx, a, store.KeyUsers, []models.User{})
}

func loadPosts(ctx context.Context, a *store.Adapter) []models.Post {
	return store.ReadOr(ctx, a, store.KeyPosts, []models.Post{})
}

func loadComments(ctx context.Context, a *store.Adapter) map[string][]models.Comment {
	c := store.ReadOr[map[string][]models.Comment](ctx, a, store.KeyComments, nil)
	if c == nil {
		c = make(map[string][]models.Comment)
	}
	return c
}

func findPost(posts []models.Post, slug string) int {
	return slices.IndexFunc(posts, func(p models.Post) bool { return p.Slug == slug })
}

func findUser(users []models.User, id string) int {
	return slices.IndexFunc(users, func(u models.User) bool { return u.ID == id })
}

var (
	nonWord    = regexp.MustCompile(`[^\w\s-]`)
	whitespace = regexp.MustCompile(`\s+`)
	hyphens    = regexp.MustCompile(`-{2,}`)
)

// Slugify lowercases title, strips characters that are not word
// characters, spaces or hyphens, and joins words with hyphens.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonWord.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "post"
	}
	return s
}

// ParseTags splits comma-separated text into trimmed, non-empty tags.
func ParseTags(text string) []string {
	tags := []string{}
	for _, t := range strings.Split(text, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
