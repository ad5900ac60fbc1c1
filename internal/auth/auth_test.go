package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashrafalve/ecommerce-store-go/internal/auth"
	"github.com/ashrafalve/ecommerce-store-go/internal/storage/memory"
)

func TestSignUpAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewService(memory.NewStore().Users())

	user, err := svc.SignUp(ctx, "  Ada@Example.com ", "correct horse battery", "Ada", "Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	logged, err := svc.Login(ctx, "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = svc.Login(ctx, "ada@example.com", "wrong password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestSignUpRejectsDuplicatesAndWeakInput(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewService(memory.NewStore().Users())

	_, err := svc.SignUp(ctx, "ada@example.com", "correct horse battery", "Ada", "Lovelace")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "ADA@example.com", "another password", "A", "L")
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	_, err = svc.SignUp(ctx, "short@example.com", "short", "S", "P")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}
