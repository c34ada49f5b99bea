package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Kamohel0/green-public-website/internal/auth/repository"
	"github.com/Kamohel0/green-public-website/internal/auth/service"
	"github.com/Kamohel0/green-public-website/internal/auth/token"
	"github.com/Kamohel0/green-public-website/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupService(t *testing.T) *service.Service {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))

	tokens := token.NewManager("test-secret", 15*time.Minute, time.Hour)
	return service.NewService(repository.NewRepository(db), tokens, zap.NewNop())
}

func register(t *testing.T, svc *service.Service) string {
	user, pair, err := svc.Register(context.Background(), service.RegisterInput{
		Email:     "Thandi@Example.com",
		Password:  "sea-moss-gel",
		FirstName: "Thandi",
		LastName:  "Nkosi",
	})
	require.NoError(t, err)
	require.NotNil(t, pair)
	return user.ID
}

func TestRegister_NormalizesEmail(t *testing.T) {
	svc := setupService(t)
	register(t, svc)

	user, _, err := svc.Login(context.Background(), "thandi@example.com", "sea-moss-gel")
	require.NoError(t, err)
	assert.Equal(t, "thandi@example.com", user.Email)
	assert.NotEqual(t, "sea-moss-gel", user.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := setupService(t)
	register(t, svc)

	_, _, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    "thandi@example.com",
		Password: "another-pass",
	})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	svc := setupService(t)

	_, _, err := svc.Register(context.Background(), service.RegisterInput{
		Email:    "not-an-email",
		Password: "sea-moss-gel",
	})
	assert.ErrorIs(t, err, service.ErrInvalidEmail)

	_, _, err = svc.Register(context.Background(), service.RegisterInput{
		Email:    "a@b.com",
		Password: "short",
	})
	assert.ErrorIs(t, err, service.ErrWeakPassword)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := setupService(t)
	register(t, svc)

	_, _, err := svc.Login(context.Background(), "thandi@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := setupService(t)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRefresh_IssuesNewPair(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, service.RegisterInput{
		Email:    "thandi@example.com",
		Password: "sea-moss-gel",
	})
	require.NoError(t, err)

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// An access token must not work as a refresh credential.
	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestUpdateProfile(t *testing.T) {
	svc := setupService(t)
	userID := register(t, svc)

	user, err := svc.UpdateProfile(context.Background(), userID, "Thandiwe", "Nkosi-Dube")
	require.NoError(t, err)
	assert.Equal(t, "Thandiwe", user.FirstName)
	assert.Equal(t, "Nkosi-Dube", user.LastName)
}

func TestChangePassword(t *testing.T) {
	svc := setupService(t)
	userID := register(t, svc)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, userID, "wrong", "new-password-1")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, userID, "sea-moss-gel", "new-password-1")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "thandi@example.com", "new-password-1")
	assert.NoError(t, err)

	_, _, err = svc.Login(ctx, "thandi@example.com", "sea-moss-gel")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}
