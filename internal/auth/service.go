package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/internal/store"
)

// SessionTTL is the fixed lifetime of a session token.
const SessionTTL = 7 * 24 * time.Hour

var (
	// ErrUsernameTaken is returned by Register when the username exists.
	ErrUsernameTaken = errors.New("auth: username already exists")
	// ErrInvalidCredentials is returned by Login for a bad username or
	// password; callers cannot tell which was wrong.
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	// ErrUserNotFound is returned when a user id resolves to nothing.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrInvalidInput is returned for missing required fields.
	ErrInvalidInput = errors.New("auth: invalid input")
)

// profileColors are assigned round-robin-by-chance to new accounts.
var profileColors = []string{
	"bg-blue-600", "bg-purple-600", "bg-green-600", "bg-red-600",
	"bg-yellow-600", "bg-pink-600", "bg-indigo-600", "bg-teal-600",
}

// Service implements identity and session management on top of the
// key-value store: the users hash keyed by username, the user_ids index
// hash, and session:<token> keys with a fixed TTL.
type Service struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewService creates an identity service.
func NewService(st *store.Store, logger zerolog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Register creates an account and a session for it. Fails with
// ErrUsernameTaken when the username is already present.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, string, error) {
	if username == "" || password == "" {
		return nil, "", ErrInvalidInput
	}

	_, exists, err := s.store.HGet(ctx, store.KeyUsers, username)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrUsernameTaken
	}

	digest, err := HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Password:     digest,
		CreatedAt:    time.Now().UnixMilli(),
		Role:         models.RoleUser,
		ProfileColor: randomColor(),
	}

	if err := s.putUser(ctx, user); err != nil {
		return nil, "", err
	}

	sessionID, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, sessionID, nil
}

// Login verifies credentials and opens a session. The check is constant
// in structure: an unknown username still costs one digest comparison.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	data, found, err := s.store.HGet(ctx, store.KeyUsers, username)
	if err != nil {
		return nil, "", err
	}

	digest := dummyDigest
	var user *models.User
	if found {
		if u, ok := decodeUser(data); ok {
			user = u
			digest = u.Password
		}
	}

	if !VerifyPassword(password, digest) || user == nil {
		return nil, "", ErrInvalidCredentials
	}

	sessionID, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, sessionID, nil
}

// CreateSession issues an opaque token bound to userID with the fixed
// 7-day expiry.
func (s *Service) CreateSession(ctx context.Context, userID string) (string, error) {
	sessionID, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, store.SessionKey(sessionID), userID, SessionTTL); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Logout invalidates a session. Calling it without an active session is
// a no-op, not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.Del(ctx, store.SessionKey(sessionID))
}

// CurrentUser resolves a session token to its user. Returns (nil, nil)
// for an absent or expired session: anonymous, not an error.
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, nil
	}
	userID, found, err := s.store.Get(ctx, store.SessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	user, err := s.UserByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	return user, err
}

// UserByID looks a user up through the id index, falling back to a full
// scan of the users hash for records written before the index existed.
func (s *Service) UserByID(ctx context.Context, userID string) (*models.User, error) {
	username, found, err := s.store.HGet(ctx, store.KeyUserIDs, userID)
	if err != nil {
		return nil, err
	}
	if found {
		data, ok, err := s.store.HGet(ctx, store.KeyUsers, username)
		if err != nil {
			return nil, err
		}
		if ok {
			if user, valid := decodeUser(data); valid && user.ID == userID {
				return user, nil
			}
		}
		// Stale index entry; fall through to the scan.
	}

	users, err := s.store.HGetAll(ctx, store.KeyUsers)
	if err != nil {
		return nil, err
	}
	for _, data := range users {
		user, ok := decodeUser(data)
		if !ok {
			continue
		}
		if user.ID == userID {
			// Repair the index for the next lookup.
			if err := s.store.HSet(ctx, store.KeyUserIDs, user.ID, user.Username); err != nil {
				s.logger.Warn().Err(err).Str("user_id", userID).Msg("id index repair failed")
			}
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

// UserByUsername fetches a user record by its hash key.
func (s *Service) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	data, found, err := s.store.HGet(ctx, store.KeyUsers, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	user, ok := decodeUser(data)
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UsernameTaken reports whether a username is already registered.
func (s *Service) UsernameTaken(ctx context.Context, username string) (bool, error) {
	_, found, err := s.store.HGet(ctx, store.KeyUsers, username)
	return found, err
}

// ListUsers returns every account with credentials stripped. Corrupt
// records are skipped rather than failing the listing.
func (s *Service) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	data, err := s.store.HGetAll(ctx, store.KeyUsers)
	if err != nil {
		return nil, err
	}
	users := make([]models.PublicUser, 0, len(data))
	for username, raw := range data {
		user, ok := decodeUser(raw)
		if !ok {
			s.logger.Warn().Str("username", username).Msg("skipping corrupt user record")
			continue
		}
		users = append(users, user.Public())
	}
	return users, nil
}

// ProfileUpdate holds the mutable profile fields. Nil pointers leave
// the field unchanged.
type ProfileUpdate struct {
	Username     *string
	Avatar       *string
	ProfileColor *string
}

// UpdateProfile applies a profile update. A username change re-keys the
// record in the users hash and refreshes the id index.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	user, err := s.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldUsername := user.Username
	if upd.Username != nil && *upd.Username != "" && *upd.Username != user.Username {
		taken, err := s.UsernameTaken(ctx, *upd.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
		user.Username = *upd.Username
	}
	if upd.Avatar != nil {
		user.Avatar = *upd.Avatar
	}
	if upd.ProfileColor != nil {
		user.ProfileColor = *upd.ProfileColor
	}

	if user.Username != oldUsername {
		if err := s.store.HDel(ctx, store.KeyUsers, oldUsername); err != nil {
			return nil, err
		}
	}
	if err := s.putUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) putUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.store.HSet(ctx, store.KeyUsers, user.Username, string(data)); err != nil {
		return err
	}
	// Keep the id index in the same write path so reads after this call
	// never miss it.
	return s.store.HSet(ctx, store.KeyUserIDs, user.ID, user.Username)
}

func decodeUser(data string) (*models.User, bool) {
	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, false
	}
	if user.ID == "" || user.Username == "" {
		return nil, false
	}
	return &user, true
}

// newToken returns an opaque 32-hex-char session token.
func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func randomColor() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(profileColors))))
	if err != nil {
		return profileColors[0]
	}
	return profileColors[n.Int64()]
}

// EnsureAdmin seeds the admin account if it does not exist yet. Called
// once at startup; failures are logged, not fatal.
func (s *Service) EnsureAdmin(ctx context.Context, password string) error {
	if !s.store.Configured() || password == "" {
		return nil
	}
	const adminUsername = "admin"

	taken, err := s.UsernameTaken(ctx, adminUsername)
	if err != nil {
		return err
	}
	if taken {
		return nil
	}

	digest, err := HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		ID:           uuid.NewString(),
		Username:     adminUsername,
		Password:     digest,
		CreatedAt:    time.Now().UnixMilli(),
		Role:         models.RoleAdmin,
		ProfileColor: "bg-red-600",
	}
	if err := s.putUser(ctx, admin); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	s.logger.Info().Msg("admin account created")
	return nil
}
