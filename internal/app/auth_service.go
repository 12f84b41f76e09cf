package app

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gopherblog/internal/model"
	"gopherblog/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrUserNotFound      = errors.New("user not found")
)

const (
	MaxUsernameLen = 60
	MaxEmailLen    = 120
	MinPasswordLen = 6
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// dummyHash is compared against when the identifier matches no account, so a
// failed login costs the same whether the user exists or not.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("gopherblog-no-such-user"), bcrypt.DefaultCost)

type AuthService struct {
	db       *gorm.DB
	userRepo *repository.UserRepository
	postRepo *repository.PostRepository
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func NewAuthService(db *gorm.DB, userRepo *repository.UserRepository, postRepo *repository.PostRepository) *AuthService {
	return &AuthService{
		db:       db,
		userRepo: userRepo,
		postRepo: postRepo,
	}
}

func (s *AuthService) Register(input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := input.Password

	if username == "" || len(username) > MaxUsernameLen {
		return nil, ErrInvalidInput
	}
	if email == "" || len(email) > MaxEmailLen || !emailRegex.MatchString(email) {
		return nil, ErrInvalidInput
	}
	if len(password) < MinPasswordLen {
		return nil, ErrInvalidInput
	}

	existingByName, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrUsernameExists
	}

	existingByEmail, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(user); err != nil {
		// A concurrent signup can slip past the pre-checks; the unique
		// indexes are the authority.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.classifyDuplicate(username)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) classifyDuplicate(username string) error {
	taken, err := s.userRepo.GetByUsername(username)
	if err == nil && taken != nil {
		return ErrUsernameExists
	}
	return ErrEmailExists
}

// Verify resolves the identifier against username or email and checks the
// password. Both an unknown identifier and a wrong password come back as
// ErrInvalidCredential.
func (s *AuthService) Verify(identifier, password string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredential
	}

	user, err := s.userRepo.GetByUsername(identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.userRepo.GetByEmail(identifier)
		if err != nil {
			return nil, err
		}
	}
	if user == nil {
		// Burn a comparison anyway so the miss is not observably faster.
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}
	return user, nil
}

func (s *AuthService) GetUserByID(id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.userRepo.GetByID(id)
}

// DeleteAccount removes the user and every post they own in a single
// transaction.
func (s *AuthService) DeleteAccount(userID uint) error {
	if userID == 0 {
		return ErrInvalidInput
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.WithTx(tx).GetByID(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		if err := s.postRepo.WithTx(tx).DeleteByOwner(userID); err != nil {
			return err
		}
		return s.userRepo.WithTx(tx).Delete(userID)
	})
}
