package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"modulehub/internal/middleware"
	"modulehub/internal/models"
	"modulehub/internal/repository"
	"modulehub/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const maxUsernameLen = 30

var usernameStrip = regexp.MustCompile(`[^a-z0-9_.-]+`)

// SignupInput is the corporate-event registration payload.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// LoginResult carries a freshly issued access token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// AuthService registers users and issues and revokes access tokens.
type AuthService struct {
	users  repository.UserRepository
	rdb    *redis.Client
	secret string
}

// NewAuthService wires the service. rdb may be nil, in which case logout
// cannot revoke tokens.
func NewAuthService(users repository.UserRepository, rdb *redis.Client, secret string) *AuthService {
	return &AuthService{users: users, rdb: rdb, secret: secret}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewFieldValidationError(map[string]string{"password": err.Error()})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, models.NewFieldValidationError(map[string]string{
			"email": "A user is already registered with this e-mail address.",
		})
	} else if !isNotFound(err) {
		return nil, models.NewInternalError(err)
	}

	username, err := s.uniqueUsername(ctx, in.Name, email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Username: username,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, translate(err, "User", email)
	}
	return user, nil
}

// uniqueUsername derives a username from the first usable candidate and
// appends a counter until it is free.
func (s *AuthService) uniqueUsername(ctx context.Context, name, email string) (string, error) {
	base := "user"
	for _, candidate := range []string{name, strings.SplitN(email, "@", 2)[0]} {
		if slug := slugUsername(candidate); len(slug) >= 3 {
			base = slug
			break
		}
	}

	for i := 0; ; i++ {
		candidate := base
		if i > 0 {
			suffix := fmt.Sprintf("%d", i+1)
			if len(base)+len(suffix) > maxUsernameLen {
				candidate = base[:maxUsernameLen-len(suffix)]
			}
			candidate += suffix
		}
		taken, err := s.users.UsernameTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

func slugUsername(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), "_"))
	s = usernameStrip.ReplaceAllString(s, "")
	if len(s) > maxUsernameLen {
		s = s[:maxUsernameLen]
	}
	return s
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := models.NewFieldValidationError(map[string]string{
		"non_field_errors": "Unable to log in with provided credentials.",
	})

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, invalid
		}
		return nil, models.NewInternalError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, invalid
	}

	token, claims, err := middleware.IssueToken(s.secret, user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: claims.ExpiresAt, User: user}, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims middleware.TokenClaims) error {
	if s.rdb == nil || claims.JTI == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, middleware.RevocationKey(claims.JTI), "1", ttl).Err(); err != nil {
		middleware.RedisErrors.WithLabelValues("revoke").Inc()
		return models.NewInternalError(err)
	}
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "User", userID)
	}
	return user, nil
}

func (s *AuthService) SetAdmin(ctx context.Context, userID uint, isAdmin bool) error {
	return translate(s.users.SetAdmin(ctx, userID, isAdmin), "User", userID)
}

func (s *AuthService) ListAdmins(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListAdmins(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
