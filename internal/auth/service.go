package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("email already exists")
	ErrNameRequired     = errors.New("name is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// UserStore is the persistence the auth service needs.
type UserStore interface {
	Create(user *entities.User) error
	GetByEmail(email string) (*entities.User, error)
	EmailExists(email string) (bool, error)
}

// Service handles registration and login.
type Service struct {
	users  UserStore
	tokens *TokenIssuer
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(users UserStore, tokens *TokenIssuer, cfg config.Auth) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		config: cfg,
	}
}

// Register creates a new account. Only the bcrypt hash of the password is
// stored.
func (s *Service) Register(name, email, password string) (*entities.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	// RFC 5321 limits addresses to 254 characters
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	if err := ValidatePassword(password, s.config.MinPasswordLength); err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}

	// The unique index settles races between concurrent registrations
	if err := s.users.Create(user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login checks credentials and issues a bearer token.
func (s *Service) Login(email, password string) (string, *entities.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil, ErrEmailRequired
	}
	if password == "" {
		return "", nil, ErrPasswordRequired
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return "", user, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IsValidationError reports whether err is caused by bad registration or
// login input.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrNameRequired, ErrEmailRequired, ErrPasswordRequired,
		ErrEmailInvalid, ErrPasswordTooShort, ErrPasswordTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
