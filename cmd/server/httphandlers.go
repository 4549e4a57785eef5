package server

import (
	"net/http"

	"github.com/google/uuid"
	apperrors "github.com/shivamghaware/BlogIn/internal/errors"
	"github.com/shivamghaware/BlogIn/internal/middleware"
	"github.com/shivamghaware/BlogIn/internal/models"
	"github.com/shivamghaware/BlogIn/internal/validate"
)

// --- Session helpers ---

func sessionID(r *http.Request) string {
	id, _ := middleware.SessionIDFromContext(r.Context())
	return id
}

// currentUser resolves the logged-in user of the request's session.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request, module string) (models.User, bool) {
	u, err := s.repos.Users.GetCurrent(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, module, err)
		return models.User{}, false
	}
	if u == nil {
		writeError(w, module, apperrors.New(apperrors.CodeUnauthenticated, "log in first"))
		return models.User{}, false
	}
	return *u, true
}

// --- Sessions and accounts ---

// createSessionHandler opens a device session.
// Returns JSON response: {"session_id": <id>, "token": <jwt>}
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	token, err := s.sessions.Issue(id)
	if err != nil {
		logg.Error("http/sessions", "Failed to sign session token", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to generate token"})
		return
	}
	logg.Info("http/sessions", "Session opened")
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id, "token": token})
}

// loginHandler expects JSON body: {"email": "elena@example.com"}
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var body validate.LoginInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, "http/login", err)
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, "http/login", err)
		return
	}
	u, err := s.repos.Users.Login(r.Context(), sessionID(r), body.Email)
	if err != nil {
		writeError(w, "http/login", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// signupHandler expects JSON body: {"name": "...", "email": "..."}
func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	var body validate.SignupInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, "http/signup", err)
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, "http/signup", err)
		return
	}
	u, err := s.repos.Users.Signup(r.Context(), sessionID(r), body.Name, body.Email)
	if err != nil {
		writeError(w, "http/signup", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.repos.Users.Logout(r.Context(), sessionID(r)); err != nil {
		writeError(w, "http/logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	u, err := s.repos.Users.GetCurrent(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, "http/me", err)
		return
	}
	if u == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not logged in"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// updateProfileHandler expects JSON body: {"name": "...", "bio": "...", "avatarUrl": "..."}
func (s *Server) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(w, r, "http/me")
	if !ok {
		return
	}
	var body validate.ProfileInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, "http/me", err)
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, "http/me", err)
		return
	}

	u.Name, u.Bio = body.Name, body.Bio
	if body.AvatarURL != "" {
		u.AvatarURL = body.AvatarURL
	}
	saved, err := s.repos.Users.Update(r.Context(), u)
	if err != nil {
		writeError(w, "http/me", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) likedPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := s.ledger.LikedPosts(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, "http/me", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) savedPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := s.ledger.SavedPosts(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, "http/me", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// --- Users and follows ---

func (s *Server) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.repos.Users.GetAll(r.Context())
	if err != nil {
		writeError(w, "http/users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type profileResponse struct {
	models.User
	IsFollowing bool `json:"isFollowing"`
}

// getUserHandler reports isFollowing for the caller's logged-in user, if any.
func (s *Server) getUserHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := s.repos.Users.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, "http/users", err)
		return
	}
	resp := profileResponse{User: u}
	if sid := sessionID(r); sid != "" {
		if me, err := s.repos.Users.GetCurrent(ctx, sid); err == nil && me != nil {
			resp.IsFollowing = s.ledger.IsFollowing(ctx, me.ID, u.ID)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) followersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.ledger.ListFollowers(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "http/follow", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) followingHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.ledger.ListFollowing(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, "http/follow", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) followHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(w, r, "http/follow")
	if !ok {
		return
	}
	target := r.PathValue("id")
	if err := s.ledger.Follow(r.Context(), me.ID, target); err != nil {
		writeError(w, "http/follow", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"following": true})
}

func (s *Server) unfollowHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(w, r, "http/follow")
	if !ok {
		return
	}
	if err := s.ledger.Unfollow(r.Context(), me.ID, r.PathValue("id")); err != nil {
		writeError(w, "http/follow", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"following": false})
}
