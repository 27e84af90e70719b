package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/odyssey-erp/accounts/internal/auth"
	"github.com/odyssey-erp/accounts/internal/shared"
)

// timingGuardPassword is hashed once so unknown usernames still pay for a
// bcrypt comparison.
const timingGuardPassword = "odyssey-accounts/timing-guard"

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// TokenIssuer mints session tokens for an authenticated username.
type TokenIssuer interface {
	Issue(subject string) (auth.Token, error)
}

// EventRecorder observes account events. Outcome is "ok" or a failure label.
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

// Service handles account business logic.
type Service struct {
	repo      RepositoryPort
	hasher    PasswordHasher
	tokens    TokenIssuer
	events    EventRecorder
	validator *validator.Validate
	dummyHash string
}

// NewService builds Service instance. events may be nil.
func NewService(repo RepositoryPort, hasher PasswordHasher, tokens TokenIssuer, events EventRecorder) (*Service, error) {
	dummy, err := hasher.Hash(timingGuardPassword)
	if err != nil {
		return nil, fmt.Errorf("users: prepare timing guard: %w", err)
	}
	v := validator.New()
	if err := v.RegisterValidation("bcrypt_len", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	}); err != nil {
		return nil, fmt.Errorf("users: register validation: %w", err)
	}
	return &Service{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		events:    events,
		validator: v,
		dummyHash: dummy,
	}, nil
}

// Register creates a new account. Checks run in order: missing or oversized
// fields, username collision, email collision. The lookups and the insert share one
// transaction, and the unique constraints catch whatever races past them.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Username = norm.NFC.String(in.Username)
	in.Email = norm.NFC.String(in.Email)
	if err := s.validate(in); err != nil {
		s.record("register", err)
		return nil, err
	}

	var created *User
	err := s.repo.InTx(ctx, func(store Store) error {
		if err := absent(store.FindByUsername(ctx, in.Username)); err != nil {
			return taken(err, shared.ErrUsernameTaken)
		}
		if err := absent(store.FindByEmail(ctx, in.Email)); err != nil {
			return taken(err, shared.ErrEmailTaken)
		}
		digest, err := s.hasher.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("users: hash password: %w: %w", shared.ErrInternal, err)
		}
		user, err := store.Create(ctx, &User{
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: digest,
		})
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("users: create returned no record: %w", shared.ErrInternal)
		}
		created = user
		return nil
	})
	if err != nil {
		s.record("register", err)
		return nil, internal("register", err)
	}
	s.record("register", nil)
	return created, nil
}

// Login verifies credentials and mints a session token for the account.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := s.validate(in); err != nil {
		s.record("login", err)
		return nil, err
	}

	user, err := s.repo.FindByUsername(ctx, norm.NFC.String(in.Username))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.hasher.Verify(in.Password, s.dummyHash)
			s.record("login", shared.ErrInvalidCredentials)
			return nil, shared.ErrInvalidCredentials
		}
		s.record("login", err)
		return nil, internal("login", err)
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.record("login", shared.ErrInvalidCredentials)
		return nil, shared.ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.record("login", err)
		return nil, internal("login", err)
	}
	s.record("login", nil)
	return &Session{User: user, Token: tok}, nil
}

// Get returns the account with id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internal("get", err)
	}
	return user, nil
}

// Update overwrites username and email of the account with id. The password
// is left untouched.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*User, error) {
	in.Username = norm.NFC.String(in.Username)
	in.Email = norm.NFC.String(in.Email)
	if err := s.validate(in); err != nil {
		s.record("update", err)
		return nil, err
	}
	user, err := s.repo.Update(ctx, &User{ID: id, Username: in.Username, Email: in.Email})
	if err != nil {
		s.record("update", err)
		return nil, internal("update", err)
	}
	s.record("update", nil)
	return user, nil
}

// Delete removes the account with id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.record("delete", err)
		return internal("delete", err)
	}
	s.record("delete", nil)
	return nil
}

func (s *Service) validate(in any) error {
	if err := s.validator.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err)
	}
	return nil
}

func (s *Service) record(event string, err error) {
	if s.events != nil {
		s.events.RecordAuthEvent(event, Outcome(err))
	}
}

// Outcome labels err for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, shared.ErrUsernameTaken):
		return "username_taken"
	case errors.Is(err, shared.ErrEmailTaken):
		return "email_taken"
	case errors.Is(err, shared.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}

// absent turns a lookup result into nil when nothing was found and
// errExists when a record came back.
func absent(_ *User, err error) error {
	if err == nil {
		return errExists
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}

var errExists = errors.New("record exists")

func taken(err, sentinel error) error {
	if errors.Is(err, errExists) {
		return sentinel
	}
	return err
}

// internal passes domain errors through and tags everything else as
// ErrInternal.
func internal(op string, err error) error {
	if Outcome(err) != "internal_error" || errors.Is(err, shared.ErrInternal) {
		return err
	}
	return fmt.Errorf("users: %s: %w: %w", op, shared.ErrInternal, err)
}
