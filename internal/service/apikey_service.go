package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/redact"
	"github.com/phrazzld/folio-api/internal/service/auth"
	"github.com/phrazzld/folio-api/internal/store"
)

const (
	apiKeyPrefixBytes = 4
	apiKeySecretBytes = 24
)

// APIKeyInput describes a new key.
type APIKeyInput struct {
	Name      string
	Scopes    []string
	ExpiresAt *time.Time
}

// APIKeyService issues and checks API keys. The plaintext key is returned
// exactly once, from Create.
type APIKeyService interface {
	Create(ctx context.Context, userID uuid.UUID, in APIKeyInput) (*domain.APIKey, string, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.APIKey, error)
	// Revoke deletes one of the user's keys.
	Revoke(ctx context.Context, userID, id uuid.UUID) error
	// Authenticate resolves a plaintext key to its owner. Returns
	// ErrInvalidAPIKey, ErrAPIKeyExpired, ErrAccountInactive or ErrAccountBanned.
	Authenticate(ctx context.Context, rawKey string) (*domain.User, *domain.APIKey, error)
}

type apiKeyService struct {
	keys   store.APIKeyStore
	users  store.UserStore
	hasher auth.PasswordHasher
	now    func() time.Time
	logger *slog.Logger
}

// NewAPIKeyService creates an APIKeyService.
func NewAPIKeyService(keys store.APIKeyStore, users store.UserStore, hasher auth.PasswordHasher, logger *slog.Logger) APIKeyService {
	return &apiKeyService{
		keys:   keys,
		users:  users,
		hasher: hasher,
		now:    time.Now,
		logger: logger.With("component", "apikey_service"),
	}
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// splitAPIKey parses fk_<prefix>_<secret>.
func splitAPIKey(raw string) (prefix, secret string, ok bool) {
	rest, found := strings.CutPrefix(raw, domain.APIKeyPrefix)
	if !found {
		return "", "", false
	}
	prefix, secret, found = strings.Cut(rest, "_")
	if !found || len(prefix) != apiKeyPrefixBytes*2 || secret == "" {
		return "", "", false
	}
	return prefix, secret, true
}

func (s *apiKeyService) Create(ctx context.Context, userID uuid.UUID, in APIKeyInput) (*domain.APIKey, string, error) {
	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.now()) {
		return nil, "", ErrInvalidExpiry
	}

	prefix, err := randomHex(apiKeyPrefixBytes)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate key prefix: %w", err)
	}
	secret, err := randomHex(apiKeySecretBytes)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate key secret: %w", err)
	}
	hashed, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash key: %w", err)
	}

	key := &domain.APIKey{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      in.Name,
		Prefix:    prefix,
		HashedKey: hashed,
		Scopes:    in.Scopes,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: s.now().UTC(),
	}
	if err := s.keys.Create(ctx, key); err != nil {
		s.logger.Error("failed to save api key", "user_id", userID, redact.Attr(err))
		return nil, "", fmt.Errorf("failed to create api key: %w", err)
	}
	s.logger.Info("api key created", "user_id", userID, "key_id", key.ID, "prefix", prefix)
	return key, domain.APIKeyPrefix + prefix + "_" + secret, nil
}

func (s *apiKeyService) List(ctx context.Context, userID uuid.UUID) ([]*domain.APIKey, error) {
	keys, err := s.keys.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

func (s *apiKeyService) Revoke(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.keys.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	s.logger.Info("api key revoked", "user_id", userID, "key_id", id)
	return nil
}

func (s *apiKeyService) Authenticate(ctx context.Context, rawKey string) (*domain.User, *domain.APIKey, error) {
	prefix, secret, ok := splitAPIKey(rawKey)
	if !ok {
		return nil, nil, ErrInvalidAPIKey
	}

	key, err := s.keys.GetByPrefix(ctx, prefix)
	if err != nil {
		if errors.Is(err, store.ErrAPIKeyNotFound) {
			return nil, nil, ErrInvalidAPIKey
		}
		return nil, nil, fmt.Errorf("failed to look up api key: %w", err)
	}
	if err := s.hasher.Compare(key.HashedKey, secret); err != nil {
		s.logger.Debug("api key secret mismatch", "prefix", prefix)
		return nil, nil, ErrInvalidAPIKey
	}
	now := s.now()
	if key.Expired(now) {
		return nil, nil, ErrAPIKeyExpired
	}

	user, err := s.users.GetByID(ctx, key.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, ErrInvalidAPIKey
		}
		return nil, nil, fmt.Errorf("failed to load api key owner: %w", err)
	}
	if !user.IsActive {
		return nil, nil, ErrAccountInactive
	}
	if user.IsBanned(now) {
		return nil, nil, ErrAccountBanned
	}

	if err := s.keys.TouchLastUsed(ctx, key.ID, now.UTC()); err != nil {
		s.logger.Warn("failed to record api key use", "key_id", key.ID, redact.Attr(err))
	}
	return user, key, nil
}
