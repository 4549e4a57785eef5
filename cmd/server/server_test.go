package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shivamghaware/BlogIn/internal/events"
	"github.com/shivamghaware/BlogIn/internal/middleware"
	"github.com/shivamghaware/BlogIn/internal/models"
	"github.com/shivamghaware/BlogIn/internal/seed"
	"github.com/shivamghaware/BlogIn/internal/store"
	"github.com/shivamghaware/BlogIn/internal/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// --- Setup test server ---
//

type stubClassifier struct {
	categories []string
}

func (c stubClassifier) Classify(context.Context, string) ([]string, error) {
	return c.categories, nil
}

type testServer struct {
	*httptest.Server
	srv *Server
	kv  *store.MockKV
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	kv := store.NewMock()
	a := store.NewAdapter(kv, events.NewBus("test"))
	require.NoError(t, seed.New(a).EnsureSeeded(context.Background()))

	svc := suggest.NewService(stubClassifier{categories: []string{"Design", "design", "Life"}})
	s := New(a, middleware.NewSessions("test-secret", 0), svc)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(func() {
		s.stopStreams()
		ts.Close()
	})
	return &testServer{Server: ts, srv: s, kv: kv}
}

//
// --- Helpers ---
//

// sendJSONRequest sends body as JSON and fails unless the status matches.
// When out is non-nil the response body is decoded into it.
func sendJSONRequest(t *testing.T, method, url string, body any, token string, expectedStatus int, out any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	require.Equalf(t, expectedStatus, resp.StatusCode, "body: %s", b)
	if out != nil {
		require.NoError(t, json.Unmarshal(b, out))
	}
}

func openSession(t *testing.T, ts *testServer) string {
	t.Helper()
	var res map[string]string
	sendJSONRequest(t, http.MethodPost, ts.URL+"/sessions", nil, "", http.StatusCreated, &res)
	require.NotEmpty(t, res["session_id"])
	return res["token"]
}

func loginSession(t *testing.T, ts *testServer, email string) string {
	t.Helper()
	token := openSession(t, ts)
	sendJSONRequest(t, http.MethodPost, ts.URL+"/login", map[string]string{"email": email}, token, http.StatusOK, nil)
	return token
}

func postBody(title, tags string) map[string]string {
	return map[string]string{"title": title, "content": strings.Repeat("Words worth reading. ", 8), "tags": tags}
}

//
// --- Tests ---
//

// full flow: session -> login -> me -> create post
func TestLoginAndCreatePostFlow(t *testing.T) {
	ts := setupTestServer(t)
	token := loginSession(t, ts, "elena@example.com")

	var me models.User
	sendJSONRequest(t, http.MethodGet, ts.URL+"/me", nil, token, http.StatusOK, &me)
	assert.Equal(t, "Elena Petrova", me.Name)

	var p models.Post
	sendJSONRequest(t, http.MethodPost, ts.URL+"/posts", postBody("My Title Here", "Tech, AI"), token, http.StatusCreated, &p)
	assert.Equal(t, "user-1", p.Author.ID)
	assert.Equal(t, []string{"Tech", "AI"}, p.Tags)
	assert.True(t, strings.HasPrefix(p.Slug, "my-title-here-"), p.Slug)

	var got postResponse
	sendJSONRequest(t, http.MethodGet, ts.URL+"/posts/"+p.Slug, nil, "", http.StatusOK, &got)
	assert.Equal(t, "My Title Here", got.Post.Title)
	assert.Empty(t, got.Comments)
	assert.Zero(t, got.Post.CommentsCount)
}

func TestMeWithoutLogin(t *testing.T) {
	ts := setupTestServer(t)
	token := openSession(t, ts)

	sendJSONRequest(t, http.MethodGet, ts.URL+"/me", nil, token, http.StatusNotFound, nil)
	sendJSONRequest(t, http.MethodGet, ts.URL+"/me", nil, "", http.StatusUnauthorized, nil)
	sendJSONRequest(t, http.MethodPost, ts.URL+"/posts", postBody("A fine title", ""), token, http.StatusUnauthorized, nil)
}

func TestLoginErrors(t *testing.T) {
	ts := setupTestServer(t)
	token := openSession(t, ts)

	sendJSONRequest(t, http.MethodPost, ts.URL+"/login", map[string]string{"email": "nobody@example.com"}, token, http.StatusUnauthorized, nil)
	sendJSONRequest(t, http.MethodPost, ts.URL+"/login", map[string]string{"email": "not-an-email"}, token, http.StatusBadRequest, nil)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/login", strings.NewReader(`{"email":123}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignupFlow(t *testing.T) {
	ts := setupTestServer(t)
	token := openSession(t, ts)

	var u models.User
	sendJSONRequest(t, http.MethodPost, ts.URL+"/signup", map[string]string{"name": "Ada Lovelace", "email": "ada@example.com"}, token, http.StatusCreated, &u)
	assert.Equal(t, "Ada Lovelace", u.Name)

	var me models.User
	sendJSONRequest(t, http.MethodGet, ts.URL+"/me", nil, token, http.StatusOK, &me)
	assert.Equal(t, u.ID, me.ID)

	other := openSession(t, ts)
	sendJSONRequest(t, http.MethodPost, ts.URL+"/signup", map[string]string{"name": "Ada Again", "email": "ada@example.com"}, other, http.StatusConflict, nil)
	sendJSONRequest(t, http.MethodPost, ts.URL+"/signup", map[string]string{"name": "A", "email": "a@example.com"}, other, http.StatusBadRequest, nil)
}

func TestLogout(t *testing.T) {
	ts := setupTestServer(t)
	token := loginSession(t, ts, "john@example.com")

	sendJSONRequest(t, http.MethodPost, ts.URL+"/logout", nil, token, http.StatusNoContent, nil)
	sendJSONRequest(t, http.MethodGet, ts.URL+"/me", nil, token, http.StatusNotFound, nil)
}

func TestUpdateProfile(t *testing.T) {
	ts := setupTestServer(t)
	token := loginSession(t, ts, "mei@example.com")

	var u models.User
	sendJSONRequest(t, http.MethodPut, ts.URL+"/me", map[string]string{"name": "Mei L.", "bio": "Short bio"}, token, http.StatusOK, &u)
	assert.Equal(t, "Mei L.", u.Name)
	assert.Equal(t, "mei@example.com", u.Email)
	assert.Equal(t, "https://picsum.photos/seed/203/80/80", u.AvatarURL)

	sendJSONRequest(t, http.MethodPut, ts.URL+"/me", map[string]string{"name": "Mei", "bio": strings.Repeat("b", 200)}, token, http.StatusBadRequest, nil)
}

func TestPostOwnership(t *testing.T) {
	ts := setupTestServer(t)
	elena := loginSession(t, ts, "elena@example.com")
	url := ts.URL + "/posts/exploring-the-unknown"

	sendJSONRequest(t, http.MethodPut, url, postBody("Taken over", ""), elena, http.StatusForbidden, nil)
	sendJSONRequest(t, http.MethodDelete, url, nil, elena, http.StatusForbidden, nil)
	sendJSONRequest(t, http.MethodDelete, ts.URL+"/posts/missing", nil, elena, http.StatusNotFound, nil)

	john := loginSession(t, ts, "john@example.com")
	var p models.Post
	sendJSONRequest(t, http.MethodPut, url, postBody("Exploring Further", "AI"), john, http.StatusOK, &p)
	assert.Equal(t, "Exploring Further", p.Title)
	assert.Equal(t, 256, p.Likes)

	sendJSONRequest(t, http.MethodDelete, url, nil, john, http.StatusNoContent, nil)
	sendJSONRequest(t, http.MethodGet, url, nil, "", http.StatusNotFound, nil)
}

func TestCreatePostValidation(t *testing.T) {
	ts := setupTestServer(t)
	token := loginSession(t, ts, "elena@example.com")

	var res map[string]string
	sendJSONRequest(t, http.MethodPost, ts.URL+"/posts", map[string]string{"title": "Hi", "content": strings.Repeat("x", 120)}, token, http.StatusBadRequest, &res)
	assert.Contains(t, res["error"], "title")

	sendJSONRequest(t, http.MethodPost, ts.URL+"/posts", map[string]string{"title": "Long enough", "content": "short"}, token, http.StatusBadRequest, nil)
}

func TestListAndFilterPosts(t *testing.T) {
	ts := setupTestServer(t)

	var all []models.Post
	sendJSONRequest(t, http.MethodGet, ts.URL+"/posts", nil, "", http.StatusOK, &all)
	require.Len(t, all, 3)
	assert.Equal(t, 2, all[0].CommentsCount)

	var byTag []models.Post
	sendJSONRequest(t, http.MethodGet, ts.URL+"/posts?tag=Nature", nil, "", http.StatusOK, &byTag)
	require.Len(t, byTag, 1)
	assert.Equal(t, "a-walk-in-nature", byTag[0].Slug)

	var byAuthor []models.Post
	sendJSONRequest(t, http.MethodGet, ts.URL+"/posts?author=user-3", nil, "", http.StatusOK, &byAuthor)
	require.Len(t, byAuthor, 1)

	var found []models.Post
	sendJSONRequest(t, http.MethodGet, ts.URL+"/posts?q=generative", nil, "", http.StatusOK, &found)
	require.Len(t, found, 1)
	assert.Equal(t, "exploring-the-unknown", found[0].Slug)

	var tags []string
	sendJSONRequest(t, http.MethodGet, ts.URL+"/tags", nil, "", http.StatusOK, &tags)
	assert.Len(t, tags, 9)
}

func TestCommentsFlow(t *testing.T) {
	ts := setupTestServer(t)
	token := loginSession(t, ts, "john@example.com")
	url := ts.URL + "/posts/a-walk-in-nature/comments"

	var c models.Comment
	sendJSONRequest(t, http.MethodPost, url, map[string]string{"text": "Lovely walk."}, token, http.StatusCreated, &c)
	assert.Equal(t, "user-2", c.Author.ID)

	var list []models.Comment
	sendJSONRequest(t, http.MethodGet, url, nil, "", http.StatusOK, &list)
	require.Len(t, list, 1)

	var got postResponse
	sendJSONRequest(t, http.MethodGet, ts.URL+"/posts/a-walk-in-nature", nil, "", http.StatusOK, &got)
	assert.Equal(t, 1, got.Post.CommentsCount)
	assert.Len(t, got.Comments, 1)

	var all []models.Comment
	sendJSONRequest(t, http.MethodGet, ts.URL+"/comments", nil, "", http.StatusOK, &all)
	assert.Len(t, all, 4)

	sendJSONRequest(t, http.MethodPost, url, map[string]string{"text": "   "}, token, http.StatusBadRequest, nil)
	sendJSONRequest(t, http.MethodPost, ts.URL+"/posts/nope/comments", map[string]string{"text": "Hi"}, token, http.StatusNotFound, nil)
	sendJSONRequest(t, http.MethodGet, ts.URL+"/posts/nope/comments", nil, "", http.StatusNotFound, nil)
}

func TestFollowFlow(t *testing.T) {
	ts := setupTestServer(t)
	token := loginSession(t, ts, "elena@example.com")

	sendJSONRequest(t, http.MethodPost, ts.URL+"/users/user-2/follow", nil, token, http.StatusOK, nil)

	var followers []models.User
	sendJSONRequest(t, http.MethodGet, ts.URL+"/users/user-2/followers", nil, "", http.StatusOK, &followers)
	require.Len(t, followers, 1)
	assert.Equal(t, "user-1", followers[0].ID)

	var following []models.User
	sendJSONRequest(t, http.MethodGet, ts.URL+"/users/user-1/following", nil, "", http.StatusOK, &following)
	require.Len(t, following, 1)

	var profile profileResponse
	sendJSONRequest(t, http.MethodGet, ts.URL+"/users/user-2", nil, token, http.StatusOK, &profile)
	assert.True(t, profile.IsFollowing)

	sendJSONRequest(t, http.MethodDelete, ts.URL+"/users/user-2/follow", nil, token, http.StatusOK, nil)
	sendJSONRequest(t, http.MethodGet, ts.URL+"/users/user-2", nil, token, http.StatusOK, &profile)
	assert.False(t, profile.IsFollowing)

	sendJSONRequest(t, http.MethodPost, ts.URL+"/users/user-1/follow", nil, token, http.StatusBadRequest, nil)
	sendJSONRequest(t, http.MethodPost, ts.URL+"/users/ghost/follow", nil, token, http.StatusNotFound, nil)

	var users []models.User
	sendJSONRequest(t, http.MethodGet, ts.URL+"/users", nil, "", http.StatusOK, &users)
	assert.Len(t, users, 3)
}

func TestLikeAndBookmark(t *testing.T) {
	ts := setupTestServer(t)
	token := openSession(t, ts)
	url := ts.URL + "/posts/the-art-of-minimalism"

	var like models.LikeResult
	sendJSONRequest(t, http.MethodPost, url+"/like", nil, token, http.StatusOK, &like)
	assert.Equal(t, models.LikeResult{Liked: true, Count: 129}, like)

	var got postResponse
	sendJSONRequest(t, http.MethodGet, url, nil, token, http.StatusOK, &got)
	assert.True(t, got.Liked)
	assert.Equal(t, 129, got.Post.Likes)

	sendJSONRequest(t, http.MethodPost, url+"/like", nil, token, http.StatusOK, &like)
	assert.Equal(t, models.LikeResult{Liked: false, Count: 128}, like)

	var bm models.BookmarkResult
	sendJSONRequest(t, http.MethodPost, url+"/bookmark", nil, token, http.StatusOK, &bm)
	assert.True(t, bm.Bookmarked)

	var saved []models.Post
	sendJSONRequest(t, http.MethodGet, ts.URL+"/me/saved", nil, token, http.StatusOK, &saved)
	require.Len(t, saved, 1)

	var liked []models.Post
	sendJSONRequest(t, http.MethodGet, ts.URL+"/me/liked", nil, token, http.StatusOK, &liked)
	assert.Empty(t, liked)

	sendJSONRequest(t, http.MethodPost, ts.URL+"/posts/nope/like", nil, token, http.StatusNotFound, nil)
}

func TestSuggestionEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	var res map[string][]string
	sendJSONRequest(t, http.MethodPost, ts.URL+"/suggestions", map[string]string{"postContent": "Clean desks."}, "", http.StatusOK, &res)
	assert.Equal(t, []string{"Design", "Life"}, res["categories"])

	sendJSONRequest(t, http.MethodPost, ts.URL+"/suggestions", map[string]string{"postContent": ""}, "", http.StatusOK, &res)
	assert.Empty(t, res["categories"])

	var sg models.Suggestions
	sendJSONRequest(t, http.MethodGet, ts.URL+"/posts/a-walk-in-nature/suggestions", nil, "", http.StatusOK, &sg)
	assert.Empty(t, sg.Categories)

	stored := models.Suggestions{Slug: "a-walk-in-nature", Categories: []string{"Outdoors"}}
	require.NoError(t, ts.srv.store.Write(context.Background(), store.SuggestionsKey("a-walk-in-nature"), stored, events.Ref{Kind: events.KindSuggestion}))
	sendJSONRequest(t, http.MethodGet, ts.URL+"/posts/a-walk-in-nature/suggestions", nil, "", http.StatusOK, &sg)
	assert.Equal(t, []string{"Outdoors"}, sg.Categories)

	sendJSONRequest(t, http.MethodGet, ts.URL+"/posts/nope/suggestions", nil, "", http.StatusNotFound, nil)
}

// Store write failure surfaces as 503
func TestStorageUnavailable(t *testing.T) {
	ts := setupTestServer(t)
	token := openSession(t, ts)
	ts.kv.FailWrites = true

	sendJSONRequest(t, http.MethodPost, ts.URL+"/login", map[string]string{"email": "elena@example.com"}, token, http.StatusServiceUnavailable, nil)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "blogin_store_writes_total")
}
