package identity

import (
	"context"
	"errors"
	"fmt"

	"taskflow/internal/model"
	"taskflow/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("identity not found")
	ErrPasswordTooLong    = errors.New("password longer than 72 bytes")
)

// Service is the auth surface: it owns the identities table and publishes
// Created to its subscribers.
type Service struct {
	repo        repository.IdentityRepositoryInterface
	subscribers []Subscriber
	log         *zap.Logger
}

func NewService(repo repository.IdentityRepositoryInterface, log *zap.Logger, subscribers ...Subscriber) *Service {
	return &Service{repo: repo, subscribers: subscribers, log: log.Named("identity")}
}

// Register creates an identity with a bcrypt password hash. Subscribers run
// in the same transaction; if any fails, nothing is stored.
func (s *Service) Register(ctx context.Context, email, password string, meta map[string]interface{}) (*model.Identity, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if meta == nil {
		meta = map[string]interface{}{}
	}

	identity := &model.Identity{
		ID:                uuid.New(),
		Email:             email,
		EncryptedPassword: string(hash),
		RawUserMetaData:   datatypes.JSONMap(meta),
	}

	err = s.repo.Create(ctx, identity, s.publish(ctx))
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("identity registered", zap.String("user_id", identity.ID.String()))
	return identity, nil
}

// Authenticate returns the identity whose password matches.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.Identity, error) {
	identity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if identity == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.EncryptedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return identity, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	identity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrNotFound
	}
	return identity, nil
}

// Delete removes the identity and, through cascades, everything it owns.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.log.Info("identity deleted", zap.String("user_id", id.String()))
	return nil
}

func (s *Service) publish(ctx context.Context) repository.IdentityHook {
	return func(tx *gorm.DB, identity *model.Identity) error {
		ev := Created{Tx: tx, Identity: identity}
		for _, sub := range s.subscribers {
			if err := sub.OnIdentityCreated(ctx, ev); err != nil {
				return fmt.Errorf("identity created subscriber: %w", err)
			}
		}
		return nil
	}
}
