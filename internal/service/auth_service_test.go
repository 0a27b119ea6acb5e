package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-roster/internal/models"
	appErrors "github.com/noah-isme/school-roster/pkg/errors"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := models.AdminUser{
		Person:       models.Person{Name: "Maria", LastName: "Verdi", DateOfBirth: "1980-05-05"},
		Username:     "secretariat",
		PasswordHash: string(hash),
	}
	return NewAuthService(admin, nil, nil, AuthConfig{AccessTokenSecret: "test-secret", AccessTokenExpiry: time.Hour})
}

func TestAuthLoginAndValidate(t *testing.T) {
	svc := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "secretariat", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "Maria", resp.User.Name)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "secretariat", claims.Username)
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "secretariat", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "someone", Password: "s3cret"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "secretariat"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc := newTestAuthService(t)
	other := NewAuthService(svc.admin, nil, nil, AuthConfig{AccessTokenSecret: "another-secret"})

	resp, err := other.Login(context.Background(), models.LoginRequest{Username: "secretariat", Password: "s3cret"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := newTestAuthService(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "secretariat", Password: "s3cret"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
