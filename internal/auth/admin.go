package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/internal/store"
)

// Admin CRUD over user accounts. All callers must have already passed
// the admin role check.

// AdminCreateUser creates an account without opening a session.
func (s *Service) AdminCreateUser(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}
	taken, err := s.UsernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	digest, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Password:     digest,
		CreatedAt:    time.Now().UnixMilli(),
		Role:         role,
		ProfileColor: randomColor(),
	}
	if err := s.putUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AdminUpdate holds the fields an admin may change on any account.
type AdminUpdate struct {
	Username string
	Password string // empty leaves the digest unchanged
	Role     models.Role
}

// AdminUpdateUser rewrites an account, re-keying the users hash when
// the username changes.
func (s *Service) AdminUpdateUser(ctx context.Context, userID string, upd AdminUpdate) (*models.User, error) {
	if upd.Username == "" {
		return nil, ErrInvalidInput
	}
	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Username != user.Username {
		taken, err := s.UsernameTaken(ctx, upd.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
		if err := s.store.HDel(ctx, store.KeyUsers, user.Username); err != nil {
			return nil, err
		}
		user.Username = upd.Username
	}
	if upd.Password != "" {
		digest, err := HashPassword(upd.Password)
		if err != nil {
			return nil, err
		}
		user.Password = digest
	}
	if upd.Role != "" {
		user.Role = upd.Role
	}

	if err := s.putUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AdminDeleteUser removes the user record, its id index entry and its
// presence entry. Chat memberships and messages referencing the id are
// intentionally left in place: there is no cascade, and rendering code
// must tolerate dangling sender ids.
func (s *Service) AdminDeleteUser(ctx context.Context, userID string) error {
	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.store.HDel(ctx, store.KeyUsers, user.Username); err != nil {
		return err
	}
	if err := s.store.HDel(ctx, store.KeyUserIDs, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("id index cleanup failed")
	}
	if err := s.store.HDel(ctx, store.KeyPresence, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("presence cleanup failed")
	}
	return nil
}
