package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"modulehub/internal/middleware"
	"modulehub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestAuthService_SignupGeneratesUniqueUsername(t *testing.T) {
	repo := noopUserRepo()
	taken := map[string]bool{"ada_lovelace": true, "ada_lovelace2": true}
	repo.takenFn = func(_ context.Context, u string) (bool, error) { return taken[u], nil }
	var created *models.User
	repo.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 5
		created = u
		return nil
	}

	svc := NewAuthService(repo, nil, testSecret)
	user, err := svc.Signup(context.Background(), SignupInput{
		Name: "Ada Lovelace", Email: " Ada@Example.com ", Password: "s3cretpass",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada_lovelace3", user.Username)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("s3cretpass")))
}

func TestAuthService_SignupFallsBackToEmail(t *testing.T) {
	svc := NewAuthService(noopUserRepo(), nil, testSecret)
	user, err := svc.Signup(context.Background(), SignupInput{Name: "", Email: "grace@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, "grace", user.Username)
}

func TestAuthService_SignupRejections(t *testing.T) {
	tests := []struct {
		name  string
		in    SignupInput
		setup func(*userRepoStub)
		field string
	}{
		{
			name:  "weak password",
			in:    SignupInput{Name: "A", Email: "a@example.com", Password: "short"},
			field: "password",
		},
		{
			name: "duplicate email",
			in:   SignupInput{Name: "A", Email: "a@example.com", Password: "s3cretpass"},
			setup: func(r *userRepoStub) {
				r.getByEmailFn = func(_ context.Context, _ string) (*models.User, error) { return &models.User{ID: 9}, nil }
			},
			field: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := noopUserRepo()
			if tt.setup != nil {
				tt.setup(repo)
			}
			_, err := NewAuthService(repo, nil, testSecret).Signup(context.Background(), tt.in)

			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Fields, tt.field)
		})
	}
}

func TestAuthService_LoginAndLogout(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cretpass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := noopUserRepo()
	repo.getByEmailFn = func(_ context.Context, _ string) (*models.User, error) {
		return &models.User{ID: 3, Email: "a@example.com", Password: string(hash)}, nil
	}
	svc := NewAuthService(repo, rdb, testSecret)
	ctx := context.Background()

	_, err = svc.Login(ctx, "a@example.com", "wrong-pass1")
	assert.Equal(t, models.CodeValidation, err.(*models.AppError).Code)

	res, err := svc.Login(ctx, "a@example.com", "s3cretpass")
	require.NoError(t, err)
	claims, err := middleware.ParseToken(testSecret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)

	require.NoError(t, svc.Logout(ctx, claims))
	assert.True(t, mr.Exists(middleware.RevocationKey(claims.JTI)))
	assert.InDelta(t, middleware.AccessTokenTTL.Seconds(), mr.TTL(middleware.RevocationKey(claims.JTI)).Seconds(), 5)

	expired := middleware.TokenClaims{JTI: "old", ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, svc.Logout(ctx, expired))
	assert.False(t, mr.Exists(middleware.RevocationKey("old")))
}
