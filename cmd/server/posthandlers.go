package server

import (
	"net/http"

	"github.com/shivamghaware/BlogIn/internal/models"
	"github.com/shivamghaware/BlogIn/internal/store"
	"github.com/shivamghaware/BlogIn/internal/validate"
	"golang.org/x/sync/errgroup"
)

// listPostsHandler serves the feed.
// Query parameters: ?tag=Design, ?author=user-1 or ?q=minimalism, checked in that order.
func (s *Server) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, q := r.Context(), r.URL.Query()
	var (
		posts []models.Post
		err   error
	)
	switch {
	case q.Get("tag") != "":
		posts, err = s.repos.Posts.ListByTag(ctx, q.Get("tag"))
	case q.Get("author") != "":
		posts, err = s.repos.Posts.ListByAuthor(ctx, q.Get("author"))
	case q.Get("q") != "":
		posts, err = s.repos.Posts.Search(ctx, q.Get("q"))
	default:
		posts, err = s.repos.Posts.GetAll(ctx)
	}
	if err != nil {
		writeError(w, "http/posts", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) tagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := s.repos.Posts.Tags(r.Context())
	if err != nil {
		writeError(w, "http/posts", err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// createPostHandler expects JSON body: {"title": "...", "content": "...", "tags": "Tech, AI"}
func (s *Server) createPostHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(w, r, "http/posts")
	if !ok {
		return
	}
	var body validate.CreatePostInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, "http/posts", err)
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, "http/posts", err)
		return
	}

	p, err := s.repos.Posts.Create(r.Context(), me, body.Title, body.Content, body.Tags)
	if err != nil {
		writeError(w, "http/posts", err)
		return
	}
	logg.Info("http/posts", "Post created successfully by user_id="+me.ID)
	writeJSON(w, http.StatusCreated, p)
}

type postResponse struct {
	Post       models.Post      `json:"post"`
	Comments   []models.Comment `json:"comments"`
	Liked      bool             `json:"liked"`
	Bookmarked bool             `json:"bookmarked"`
}

// getPostHandler loads the post and its comments concurrently.
func (s *Server) getPostHandler(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	var resp postResponse

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		p, err := s.repos.Posts.GetBySlug(ctx, slug)
		resp.Post = p
		return err
	})
	g.Go(func() error {
		c, err := s.repos.Comments.ListForPost(ctx, slug)
		resp.Comments = c
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, "http/posts", err)
		return
	}

	if sid := sessionID(r); sid != "" {
		resp.Liked = s.ledger.IsLiked(r.Context(), sid, slug)
		resp.Bookmarked = s.ledger.IsBookmarked(r.Context(), sid, slug)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(w, r, "http/posts")
	if !ok {
		return
	}
	var body validate.CreatePostInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, "http/posts", err)
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, "http/posts", err)
		return
	}

	p, err := s.repos.Posts.Update(r.Context(), me.ID, r.PathValue("slug"), body.Title, body.Content, body.Tags)
	if err != nil {
		writeError(w, "http/posts", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(w, r, "http/posts")
	if !ok {
		return
	}
	if err := s.repos.Posts.Delete(r.Context(), me.ID, r.PathValue("slug")); err != nil {
		writeError(w, "http/posts", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Comments ---

func (s *Server) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, slug := r.Context(), r.PathValue("slug")
	if _, err := s.repos.Posts.GetBySlug(ctx, slug); err != nil {
		writeError(w, "http/comments", err)
		return
	}
	list, err := s.repos.Comments.ListForPost(ctx, slug)
	if err != nil {
		writeError(w, "http/comments", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// addCommentHandler expects JSON body: {"text": "..."}
func (s *Server) addCommentHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(w, r, "http/comments")
	if !ok {
		return
	}
	var body validate.CommentInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, "http/comments", err)
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, "http/comments", err)
		return
	}

	c, err := s.repos.Comments.Add(r.Context(), r.PathValue("slug"), me, body.Text)
	if err != nil {
		writeError(w, "http/comments", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) allCommentsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := s.repos.Comments.ListAll(r.Context())
	if err != nil {
		writeError(w, "http/comments", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// --- Likes and bookmarks ---

func (s *Server) likeHandler(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.ToggleLike(r.Context(), sessionID(r), r.PathValue("slug"))
	if err != nil {
		writeError(w, "http/likes", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) bookmarkHandler(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.ToggleBookmark(r.Context(), sessionID(r), r.PathValue("slug"))
	if err != nil {
		writeError(w, "http/bookmarks", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- Tag suggestions ---

// storedSuggestionsHandler returns what the worker computed for a post,
// or an empty list when nothing is stored yet.
func (s *Server) storedSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, slug := r.Context(), r.PathValue("slug")
	if _, err := s.repos.Posts.GetBySlug(ctx, slug); err != nil {
		writeError(w, "http/suggestions", err)
		return
	}
	sg, ok := store.Lookup[models.Suggestions](ctx, s.store, store.SuggestionsKey(slug))
	if !ok {
		sg = models.Suggestions{Slug: slug, Categories: []string{}}
	}
	writeJSON(w, http.StatusOK, sg)
}

// suggestHandler expects JSON body: {"postContent": "..."}
// Returns JSON response: {"categories": [...]}, empty when no suggestion is available.
func (s *Server) suggestHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PostContent string `json:"postContent"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, "http/suggestions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"categories": s.suggest.Suggest(r.Context(), body.PostContent)})
}
