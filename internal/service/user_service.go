package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/platform/storage"
	"github.com/phrazzld/folio-api/internal/redact"
	"github.com/phrazzld/folio-api/internal/service/auth"
	"github.com/phrazzld/folio-api/internal/store"
)

// Limits enforced by UserService.
const (
	MaxBatchSize  = 100
	MaxAvatarSize = 5 << 20
	// RecentSignupWindow is how far back Stats counts recent signups.
	RecentSignupWindow = 7 * 24 * time.Hour
)

// AllowedAvatarTypes lists the accepted avatar content types.
var AllowedAvatarTypes = []string{"image/jpeg", "image/png", "image/webp"}

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UserPatch holds the profile fields to change. Nil fields are left alone.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Bio       *string
	Website   *string
	Location  *string
	AvatarURL *string
	Phone     *string
}

// BanInput describes a ban. ExpiresAt is ignored when Permanent is set.
type BanInput struct {
	Reason    string
	ExpiresAt *time.Time
	Permanent bool
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UserService provides user management. Operations that act on another
// user's account take the acting user and enforce who may do what.
type UserService interface {
	// Create makes an account on behalf of an admin.
	Create(ctx context.Context, actor Actor, in NewUserInput) (*domain.User, error)

	// Get retrieves a user by their ID.
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)

	List(ctx context.Context, filter store.UserFilter, page store.Page) ([]*domain.User, int, error)

	// Update applies patch; users update themselves, admins anyone.
	// Returns ErrProfileNotOwned otherwise.
	Update(ctx context.Context, actor Actor, id uuid.UUID, patch UserPatch) (*domain.User, error)

	Delete(ctx context.Context, actor Actor, id uuid.UUID) error

	// BatchCreate creates every account in one transaction or none.
	// More than MaxBatchSize inputs returns ErrBatchTooLarge.
	BatchCreate(ctx context.Context, actor Actor, inputs []NewUserInput) ([]*domain.User, error)

	SetActive(ctx context.Context, actor Actor, id uuid.UUID, active bool) (*domain.User, error)
	Stats(ctx context.Context, actor Actor) (*store.UserStats, error)
	UpdateRole(ctx context.Context, actor Actor, id uuid.UUID, role domain.Role) (*domain.User, error)
	Ban(ctx context.Context, actor Actor, id uuid.UUID, in BanInput) (*domain.User, error)
	Unban(ctx context.Context, actor Actor, id uuid.UUID) (*domain.User, error)

	GetSettings(ctx context.Context, actor Actor, id uuid.UUID) (domain.UserSettings, error)
	UpdateSettings(ctx context.Context, actor Actor, id uuid.UUID, settings domain.UserSettings) (domain.UserSettings, error)

	// UploadAvatar stores the image and returns its public URL.
	// Returns ErrAvatarNotOwned, ErrInvalidFileType or ErrFileTooLarge.
	UploadAvatar(ctx context.Context, actor Actor, id uuid.UUID, file Upload) (string, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	db        *sql.DB
	hasher    auth.PasswordHasher
	storage   storage.Storage
	now       func() time.Time
	logger    *slog.Logger
}

// NewUserService creates a new UserService. db is used for batch transactions.
func NewUserService(
	userStore store.UserStore,
	db *sql.DB,
	hasher auth.PasswordHasher,
	objects storage.Storage,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userStore: userStore,
		db:        db,
		hasher:    hasher,
		storage:   objects,
		now:       time.Now,
		logger:    logger.With("component", "user_service"),
	}
}

var _ UserService = (*UserServiceImpl)(nil)

func (s *UserServiceImpl) Create(ctx context.Context, actor Actor, in NewUserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := buildUser(s.hasher, in)
	if err != nil {
		return nil, err
	}
	if err := s.userStore.Create(ctx, user); err != nil {
		if store.IsDuplicateError(err) {
			s.logger.Debug("attempted to create duplicate user", "error", err)
		} else {
			s.logger.Error("failed to save user to database", redact.Attr(err))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("user created", "user_id", user.ID, "by", actor.ID)
	return user, nil
}

// Get retrieves a user by their ID
func (s *UserServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to retrieve user", "user_id", id, redact.Attr(err))
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

func (s *UserServiceImpl) List(ctx context.Context, filter store.UserFilter, page store.Page) ([]*domain.User, int, error) {
	users, total, err := s.userStore.List(ctx, filter, page)
	if err != nil {
		s.logger.Error("failed to list users", redact.Attr(err))
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// modify loads the target, applies fn and saves the result.
func (s *UserServiceImpl) modify(ctx context.Context, id uuid.UUID, op string, fn func(u *domain.User) error) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user for %s: %w", op, err)
	}
	if err := fn(user); err != nil {
		return nil, err
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.userStore.Update(ctx, user); err != nil {
		s.logger.Error("failed to update user", "op", op, "user_id", id, redact.Attr(err))
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	s.logger.Info("user updated", "op", op, "user_id", id)
	return user, nil
}

func (s *UserServiceImpl) Update(ctx context.Context, actor Actor, id uuid.UUID, patch UserPatch) (*domain.User, error) {
	if !domain.CanManage(actor.ID, actor.Role, id) {
		return nil, ErrProfileNotOwned
	}
	return s.modify(ctx, id, "update profile", func(u *domain.User) error {
		set := func(dst *string, v *string) {
			if v != nil {
				*dst = strings.TrimSpace(*v)
			}
		}
		set(&u.FirstName, patch.FirstName)
		set(&u.LastName, patch.LastName)
		set(&u.Bio, patch.Bio)
		set(&u.Website, patch.Website)
		set(&u.Location, patch.Location)
		set(&u.AvatarURL, patch.AvatarURL)
		set(&u.Phone, patch.Phone)
		return nil
	})
}

func (s *UserServiceImpl) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return ErrSelfAction
	}
	if err := s.userStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("user deleted", "user_id", id, "by", actor.ID)
	return nil
}

func (s *UserServiceImpl) BatchCreate(ctx context.Context, actor Actor, inputs []NewUserInput) ([]*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(inputs) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	users := make([]*domain.User, 0, len(inputs))
	for i, in := range inputs {
		u, err := buildUser(s.hasher, in)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", i, err)
		}
		users = append(users, u)
	}
	if len(users) == 0 {
		return users, nil
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)
		for i, u := range users {
			if err := txStore.Create(ctx, u); err != nil {
				return fmt.Errorf("user %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("batch create rolled back", "count", len(users), redact.Attr(err))
		return nil, fmt.Errorf("failed to create users: %w", err)
	}

	s.logger.Info("batch created users", "count", len(users), "by", actor.ID)
	return users, nil
}

func (s *UserServiceImpl) SetActive(ctx context.Context, actor Actor, id uuid.UUID, active bool) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if actor.ID == id && !active {
		return nil, ErrSelfAction
	}
	op := "deactivate user"
	if active {
		op = "activate user"
	}
	return s.modify(ctx, id, op, func(u *domain.User) error {
		u.IsActive = active
		return nil
	})
}

func (s *UserServiceImpl) Stats(ctx context.Context, actor Actor) (*store.UserStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	stats, err := s.userStore.Stats(ctx, s.now().Add(-RecentSignupWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to compute user stats: %w", err)
	}
	return stats, nil
}

func (s *UserServiceImpl) UpdateRole(ctx context.Context, actor Actor, id uuid.UUID, role domain.Role) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}
	if actor.ID == id {
		return nil, ErrSelfAction
	}
	return s.modify(ctx, id, "update role", func(u *domain.User) error {
		u.Role = role
		return nil
	})
}

func (s *UserServiceImpl) Ban(ctx context.Context, actor Actor, id uuid.UUID, in BanInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if actor.ID == id {
		return nil, ErrSelfAction
	}
	var until *time.Time
	if !in.Permanent {
		if in.ExpiresAt == nil || !in.ExpiresAt.After(s.now()) {
			return nil, ErrInvalidBan
		}
		t := in.ExpiresAt.UTC()
		until = &t
	}
	return s.modify(ctx, id, "ban user", func(u *domain.User) error {
		u.Ban(in.Reason, until)
		return nil
	})
}

func (s *UserServiceImpl) Unban(ctx context.Context, actor Actor, id uuid.UUID) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.modify(ctx, id, "unban user", func(u *domain.User) error {
		u.Unban()
		return nil
	})
}

func (s *UserServiceImpl) GetSettings(ctx context.Context, actor Actor, id uuid.UUID) (domain.UserSettings, error) {
	if !domain.CanManage(actor.ID, actor.Role, id) {
		return domain.UserSettings{}, ErrProfileNotOwned
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return domain.UserSettings{}, err
	}
	return user.Settings, nil
}

func (s *UserServiceImpl) UpdateSettings(ctx context.Context, actor Actor, id uuid.UUID, settings domain.UserSettings) (domain.UserSettings, error) {
	if !domain.CanManage(actor.ID, actor.Role, id) {
		return domain.UserSettings{}, ErrProfileNotOwned
	}
	user, err := s.modify(ctx, id, "update settings", func(u *domain.User) error {
		u.Settings = settings
		return nil
	})
	if err != nil {
		return domain.UserSettings{}, err
	}
	return user.Settings, nil
}

func (s *UserServiceImpl) UploadAvatar(ctx context.Context, actor Actor, id uuid.UUID, file Upload) (string, error) {
	if !domain.CanManage(actor.ID, actor.Role, id) {
		return "", ErrAvatarNotOwned
	}
	ext, ok := avatarExtensions[file.ContentType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileType, file.ContentType)
	}
	if file.Size > MaxAvatarSize {
		return "", ErrFileTooLarge
	}
	if _, err := s.userStore.GetByID(ctx, id); err != nil {
		return "", fmt.Errorf("failed to retrieve user for avatar: %w", err)
	}

	key := path.Join("avatars", id.String(), uuid.NewString()+ext)
	url, err := s.storage.Save(ctx, key, file.ContentType, file.Body, file.Size)
	if err != nil {
		s.logger.Error("failed to store avatar", "user_id", id, redact.Attr(err))
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}

	if _, err := s.modify(ctx, id, "set avatar", func(u *domain.User) error {
		u.AvatarURL = url
		return nil
	}); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned avatar", "key", key, redact.Attr(delErr))
		}
		return "", err
	}
	return url, nil
}
