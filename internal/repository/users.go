package repository

import (
	"context"

	"github.com/google/uuid"
	apperrors "github.com/shivamghaware/BlogIn/internal/errors"
	"github.com/shivamghaware/BlogIn/internal/events"
	"github.com/shivamghaware/BlogIn/internal/models"
	"github.com/shivamghaware/BlogIn/internal/store"
)

// Users resolves user records and the per-session "current user" pointer.
// The pointer stores an id only, so the current user is always live data.
type Users struct {
	store *store.Adapter
}

func (r *Users) GetAll(ctx context.Context) ([]models.User, error) {
	if err := r.store.Delay(ctx); err != nil {
		return nil, err
	}
	return loadUsers(ctx, r.store), nil
}

func (r *Users) GetByID(ctx context.Context, id string) (models.User, error) {
	if err := r.store.Delay(ctx); err != nil {
		return models.User{}, err
	}
	return r.byID(ctx, id)
}

func (r *Users) byID(ctx context.Context, id string) (models.User, error) {
	users := loadUsers(ctx, r.store)
	if i := findUser(users, id); i >= 0 {
		return users[i], nil
	}
	return models.User{}, apperrors.NotFound("user", id)
}

// GetByEmail matches the email exactly.
func (r *Users) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if err := r.store.Delay(ctx); err != nil {
		return models.User{}, err
	}
	for _, u := range loadUsers(ctx, r.store) {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperrors.NotFound("user", email)
}

// GetCurrent returns nil when the session is logged out or its user is gone.
func (r *Users) GetCurrent(ctx context.Context, sessionID string) (*models.User, error) {
	if err := r.store.Delay(ctx); err != nil {
		return nil, err
	}
	id, ok := store.Lookup[string](ctx, r.store, store.CurrentUserKey(sessionID))
	if !ok || id == "" {
		return nil, nil
	}
	u, err := r.byID(ctx, id)
	if err != nil {
		logg.Info("repository/users", "Session points at a missing user, treating as logged out")
		return nil, nil
	}
	return &u, nil
}

// Login looks the user up by email and points the session at it.
func (r *Users) Login(ctx context.Context, sessionID, email string) (models.User, error) {
	if err := r.store.Delay(ctx); err != nil {
		return models.User{}, err
	}
	var found *models.User
	for _, u := range loadUsers(ctx, r.store) {
		if u.Email == email {
			found = &u
			break
		}
	}
	if found == nil {
		return models.User{}, apperrors.New(apperrors.CodeInvalidCredentials, "no account for that email")
	}

	ref := events.Ref{Kind: events.KindSession, ID: sessionID, SessionID: sessionID}
	if err := r.store.Write(ctx, store.CurrentUserKey(sessionID), found.ID, ref); err != nil {
		return models.User{}, err
	}
	logg.Info("repository/users", "Session logged in as user_id="+found.ID)
	return *found, nil
}

// Signup always creates a fresh user and logs the session in as it.
func (r *Users) Signup(ctx context.Context, sessionID, name, email string) (models.User, error) {
	if err := r.store.Delay(ctx); err != nil {
		return models.User{}, err
	}
	unlock := r.store.Lock(store.KeyUsers)
	defer unlock()

	users := loadUsers(ctx, r.store)
	for _, u := range users {
		if u.Email == email {
			return models.User{}, apperrors.New(apperrors.CodeConflict, "an account with that email already exists")
		}
	}

	u := models.User{
		ID:        "user-" + uuid.NewString(),
		Name:      name,
		Email:     email,
		AvatarURL: "https://picsum.photos/seed/" + uuid.NewString() + "/80/80",
		Bio:       "New user",
	}
	users = append(users, u)

	err := r.store.WriteMany(ctx, []store.Change{
		{Key: store.KeyUsers, Value: users},
		{Key: store.CurrentUserKey(sessionID), Value: u.ID},
	}, events.Ref{Kind: events.KindUser, ID: u.ID, SessionID: sessionID})
	if err != nil {
		return models.User{}, err
	}
	logg.Info("repository/users", "User signed up with user_id="+u.ID)
	return u, nil
}

// Logout clears the session pointer and announces the end of the session.
func (r *Users) Logout(ctx context.Context, sessionID string) error {
	if err := r.store.Delay(ctx); err != nil {
		return err
	}
	ref := events.Ref{Kind: events.KindSession, ID: sessionID, SessionID: sessionID}
	if err := r.store.Remove(ctx, store.CurrentUserKey(sessionID), ref); err != nil {
		return err
	}
	r.store.Bus().Ended(sessionID)
	return nil
}

// Update replaces the stored user with the same id. Id and email are kept.
func (r *Users) Update(ctx context.Context, user models.User) (models.User, error) {
	if err := r.store.Delay(ctx); err != nil {
		return models.User{}, err
	}
	unlock := r.store.Lock(store.KeyUsers)
	defer unlock()

	users := loadUsers(ctx, r.store)
	i := findUser(users, user.ID)
	if i < 0 {
		return models.User{}, apperrors.NotFound("user", user.ID)
	}
	user.Email = users[i].Email
	users[i] = user

	if err := r.store.Write(ctx, store.KeyUsers, users, events.Ref{Kind: events.KindUser, ID: user.ID}); err != nil {
		return models.User{}, err
	}
	return user, nil
}
