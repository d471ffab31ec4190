package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/trialbill/pkg/account"
	"github.com/dmitrymomot/trialbill/pkg/validator"
)

func newService(t *testing.T, store account.Store, opts ...account.Option) account.Service {
	t.Helper()
	return account.NewService(store, append([]account.Option{account.WithBcryptCost(bcrypt.MinCost)}, opts...)...)
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates user with hashed password", func(t *testing.T) {
		t.Parallel()

		var created []string
		svc := newService(t, account.NewMemoryStore(), account.WithAfterCreate(func(_ context.Context, u *account.User) error {
			created = append(created, u.ID)
			return nil
		}))

		user, err := svc.Register(context.Background(), "Jane", "  Jane@Example.com ", "correct horse")
		require.NoError(t, err)

		assert.Equal(t, "jane@example.com", user.Email)
		assert.True(t, user.HasPassword())
		assert.NotEqual(t, "correct horse", string(user.PasswordHash))
		_, err = uuid.Parse(user.ID)
		assert.NoError(t, err)
		assert.Equal(t, []string{user.ID}, created, "hook runs before Register returns")
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, account.NewMemoryStore())
		_, err := svc.Register(context.Background(), "Jane", "jane@example.com", "correct horse")
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), "Other", "JANE@example.com", "battery staple")
		assert.ErrorIs(t, err, account.ErrEmailTaken)
	})

	t.Run("validates input", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, account.NewMemoryStore())
		_, err := svc.Register(context.Background(), "", "not-an-email", "password")
		require.Error(t, err)

		errs := validator.ExtractValidationErrors(err)
		assert.True(t, errs.Has("name"))
		assert.True(t, errs.Has("email"))
		assert.True(t, errs.Has("password"))
	})

	t.Run("hook failures do not fail registration", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, account.NewMemoryStore(),
			account.WithAfterCreate(func(context.Context, *account.User) error { return errors.New("boom") }),
			account.WithAfterCreate(func(context.Context, *account.User) error { panic("boom") }),
		)
		_, err := svc.Register(context.Background(), "Jane", "jane@example.com", "correct horse")
		assert.NoError(t, err)
	})
}

func TestService_Authenticate(t *testing.T) {
	t.Parallel()

	store := account.NewMemoryStore()
	svc := newService(t, store)
	user, err := svc.Register(context.Background(), "Jane", "jane@example.com", "correct horse")
	require.NoError(t, err)

	got, err := svc.Authenticate(context.Background(), "JANE@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), "jane@example.com", "wrong horse")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)

	googleOnly := &account.User{ID: uuid.NewString(), Email: "g@example.com", GoogleID: "g-1"}
	require.NoError(t, store.Create(context.Background(), googleOnly))
	_, err = svc.Authenticate(context.Background(), "g@example.com", "")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
}

func TestService_Get(t *testing.T) {
	t.Parallel()

	svc := newService(t, account.NewMemoryStore())
	user, err := svc.Register(context.Background(), "Jane", "jane@example.com", "correct horse")
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.Name)

	_, err = svc.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, account.ErrUserNotFound)

	_, err = svc.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, account.ErrUserNotFound)
}

func TestNewService(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { account.NewService(nil) })
	assert.Panics(t, func() {
		account.NewService(account.NewMemoryStore(), account.WithGoogleOAuth(account.GoogleConfig{ClientID: "id"}, nil))
	})

	_, err := account.NewService(account.NewMemoryStore()).GoogleAuthURL(context.Background())
	assert.ErrorIs(t, err, account.ErrGoogleDisabled)
}
