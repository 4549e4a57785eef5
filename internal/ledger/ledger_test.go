package ledger

import (
	"context"
	"sync"
	"testing"

	apperrors "github.com/shivamghaware/BlogIn/internal/errors"
	"github.com/shivamghaware/BlogIn/internal/events"
	"github.com/shivamghaware/BlogIn/internal/repository"
	"github.com/shivamghaware/BlogIn/internal/seed"
	"github.com/shivamghaware/BlogIn/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	kv     *store.MockKV
	store  *store.Adapter
	repos  *repository.Repositories
	ledger *Ledger
	events *[]events.Event
}

func setup(t *testing.T) *fixture {
	t.Helper()
	kv := store.NewMock()
	bus := events.NewBus("test")
	a := store.NewAdapter(kv, bus)
	require.NoError(t, seed.New(a).EnsureSeeded(context.Background()))

	var mu sync.Mutex
	got := []events.Event{}
	bus.Subscribe(events.Filter{}, func(e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
	})

	repos := repository.New(a, nil)
	return &fixture{kv: kv, store: a, repos: repos, ledger: New(a, repos), events: &got}
}

func TestFollowIsSymmetric(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.Follow(ctx, "user-1", "user-2"))

	assert.True(t, f.ledger.IsFollowing(ctx, "user-1", "user-2"))
	assert.False(t, f.ledger.IsFollowing(ctx, "user-2", "user-1"))

	following, err := f.ledger.ListFollowing(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "user-2", following[0].ID)

	followers, err := f.ledger.ListFollowers(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "user-1", followers[0].ID)

	require.Len(t, *f.events, 1)
	assert.Equal(t, events.KindFollow, (*f.events)[0].Kind)
}

func TestFollowTwiceAddsOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.Follow(ctx, "user-1", "user-3"))
	require.NoError(t, f.ledger.Follow(ctx, "user-1", "user-3"))

	assert.Equal(t, []string{"user-1"}, store.ReadOr(ctx, f.store, store.FollowersKey("user-3"), []string{}))
	assert.Len(t, *f.events, 1)
}

func TestUnfollow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.Follow(ctx, "user-1", "user-2"))

	require.NoError(t, f.ledger.Unfollow(ctx, "user-1", "user-2"))
	assert.False(t, f.ledger.IsFollowing(ctx, "user-1", "user-2"))

	followers, err := f.ledger.ListFollowers(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, followers)

	// Unfollowing again changes nothing.
	require.NoError(t, f.ledger.Unfollow(ctx, "user-1", "user-2"))
	assert.Len(t, *f.events, 2)
}

func TestFollowRejectsBadInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.ledger.Follow(ctx, "user-1", "user-1"), apperrors.ErrValidation)
	assert.ErrorIs(t, f.ledger.Follow(ctx, "user-1", "ghost"), apperrors.ErrNotFound)
	assert.ErrorIs(t, f.ledger.Follow(ctx, "ghost", "user-1"), apperrors.ErrNotFound)
	assert.Empty(t, *f.events)
}

func TestFollowIsAtomic(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.kv.FailBatch = true

	err := f.ledger.Follow(ctx, "user-1", "user-2")
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)

	f.kv.FailBatch = false
	assert.False(t, f.ledger.IsFollowing(ctx, "user-1", "user-2"))
	followers, err := f.ledger.ListFollowers(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, followers)
	assert.Empty(t, *f.events)
}

func TestConcurrentFollowsKeepBothSides(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, follower := range []string{"user-1", "user-3"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				assert.NoError(t, f.ledger.Follow(ctx, follower, "user-2"))
				assert.NoError(t, f.ledger.Unfollow(ctx, follower, "user-2"))
			}
			assert.NoError(t, f.ledger.Follow(ctx, follower, "user-2"))
		}()
	}
	wg.Wait()

	followers, err := f.ledger.ListFollowers(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, followers, 2)
}

func TestListsDropUnknownUsers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.store.Write(ctx, store.FollowersKey("user-2"), []string{"ghost", "user-3"}, events.Ref{Kind: events.KindFollow}))

	followers, err := f.ledger.ListFollowers(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "user-3", followers[0].ID)
}

func TestToggleLikeTwiceRestores(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	slug := "the-art-of-minimalism"

	first, err := f.ledger.ToggleLike(ctx, "s1", slug)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, 129, first.Count)
	assert.True(t, f.ledger.IsLiked(ctx, "s1", slug))

	p, err := f.repos.Posts.GetBySlug(ctx, slug)
	require.NoError(t, err)
	assert.Equal(t, 129, p.Likes)

	second, err := f.ledger.ToggleLike(ctx, "s1", slug)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, 128, second.Count)
	assert.False(t, f.ledger.IsLiked(ctx, "s1", slug))
}

func TestToggleLikeIsPerSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	slug := "exploring-the-unknown"

	_, err := f.ledger.ToggleLike(ctx, "s1", slug)
	require.NoError(t, err)
	r, err := f.ledger.ToggleLike(ctx, "s2", slug)
	require.NoError(t, err)

	assert.True(t, r.Liked)
	assert.Equal(t, 258, r.Count)
}

func TestLikeCountNeverNegative(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	slug := "a-walk-in-nature"
	require.NoError(t, f.store.Write(ctx, store.LikeCountKey(slug), 0, events.Ref{Kind: events.KindLike}))
	require.NoError(t, f.store.Write(ctx, store.LikedPostsKey("s1"), []string{slug}, events.Ref{Kind: events.KindLike}))

	r, err := f.ledger.ToggleLike(ctx, "s1", slug)
	require.NoError(t, err)
	assert.False(t, r.Liked)
	assert.Zero(t, r.Count)
}

func TestToggleLikeMissingPost(t *testing.T) {
	f := setup(t)

	_, err := f.ledger.ToggleLike(context.Background(), "s1", "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestToggleLikeIsAtomic(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.kv.FailBatch = true

	_, err := f.ledger.ToggleLike(ctx, "s1", "a-walk-in-nature")
	require.Error(t, err)

	f.kv.FailBatch = false
	assert.False(t, f.ledger.IsLiked(ctx, "s1", "a-walk-in-nature"))
	assert.False(t, f.store.Exists(ctx, store.LikeCountKey("a-walk-in-nature")))
}

func TestToggleBookmark(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	slug := "a-walk-in-nature"

	r, err := f.ledger.ToggleBookmark(ctx, "s1", slug)
	require.NoError(t, err)
	assert.True(t, r.Bookmarked)
	assert.True(t, f.ledger.IsBookmarked(ctx, "s1", slug))

	saved, err := f.ledger.SavedPosts(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, slug, saved[0].Slug)

	r, err = f.ledger.ToggleBookmark(ctx, "s1", slug)
	require.NoError(t, err)
	assert.False(t, r.Bookmarked)

	_, err = f.ledger.ToggleBookmark(ctx, "s1", "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLikedPostsDropDeletedPosts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, slug := range []string{"the-art-of-minimalism", "exploring-the-unknown"} {
		_, err := f.ledger.ToggleLike(ctx, "s1", slug)
		require.NoError(t, err)
	}
	require.NoError(t, f.repos.Posts.Delete(ctx, "user-2", "exploring-the-unknown"))

	liked, err := f.ledger.LikedPosts(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, "the-art-of-minimalism", liked[0].Slug)
}
