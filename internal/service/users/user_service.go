package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidAuthToken = errors.New("invalid auth token")

type UserUseCase interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Verify(ctx context.Context, token string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	ParseToken(token string) (*Claims, error)
}

type VerificationNotifier interface {
	VerificationRequested(ctx context.Context, user *domain.User) error
}

type Claims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Session is what a successful login hands back to the client.
type Session struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	Token string      `json:"token"`
}

type Options struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type UserService struct {
	repo     repository.UserRepository
	notifier VerificationNotifier
	secret   []byte
	tokenTTL time.Duration
	cost     int
	log      logrus.FieldLogger
	now      func() time.Time
	pending  sync.WaitGroup
}

func NewUserService(repo repository.UserRepository, notifier VerificationNotifier, opts Options, log logrus.FieldLogger) *UserService {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := opts.TokenTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &UserService{
		repo:     repo,
		notifier: notifier,
		secret:   []byte(opts.JWTSecret),
		tokenTTL: ttl,
		cost:     cost,
		log:      log,
		now:      time.Now,
	}
}

// Register stores a new unverified account and mails the verification link
// in the background. Emails containing "admin" get the admin role.
func (s *UserService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrCredentialsRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	role := domain.RoleUser
	if strings.Contains(strings.ToLower(email), "admin") {
		role = domain.RoleAdmin
	}
	user := &domain.User{
		Email:             email,
		PasswordHash:      string(hash),
		Role:              role,
		VerificationToken: uuid.NewString(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	s.sendVerification(*user)
	return user, nil
}

func (s *UserService) sendVerification(user domain.User) {
	if s.notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.notifier.VerificationRequested(context.Background(), &user); err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).Warn("verification email not sent")
		}
	}()
}

// Wait blocks until background verification emails have finished.
func (s *UserService) Wait() {
	s.pending.Wait()
}

func (s *UserService) Verify(ctx context.Context, token string) (*domain.User, error) {
	user, err := s.repo.GetByVerificationToken(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.Verified = true
	user.VerificationToken = ""
	s.log.WithField("user_id", user.ID).Info("email verified")
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrCredentialsRequired
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, domain.ErrEmailNotVerified
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{Email: user.Email, Role: user.Role, Token: token}, nil
}

func (s *UserService) issueToken(user *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token issued by Login.
func (s *UserService) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidAuthToken
	}
	return claims, nil
}

var _ UserUseCase = (*UserService)(nil)
