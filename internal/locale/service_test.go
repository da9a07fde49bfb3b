package locale

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/users"
)

type fakeUsers struct {
	language string
	disabled bool
	setErr   error
	saved    string
}

func (f *fakeUsers) RequireEnabled(_ context.Context, actor shared.ActorContext) (users.User, error) {
	if err := users.RequireAuthenticated(actor); err != nil {
		return users.User{}, err
	}
	if f.disabled {
		return users.User{}, fmt.Errorf("%w: user is disabled", httpx.ErrUnauthorized)
	}
	return users.User{ID: actor.UserID, Email: actor.Email, IsActive: true}, nil
}

func (f *fakeUsers) Language(context.Context, shared.ActorContext) (string, error) {
	return f.language, nil
}

func (f *fakeUsers) SetLanguage(_ context.Context, _ shared.ActorContext, language string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.saved = language
	return nil
}

var cashier = shared.ActorContext{UserID: 3, Email: "cashier@example.com", SessionID: "s1"}

func TestGetUserLanguage(t *testing.T) {
	svc := NewService(&fakeUsers{language: "pt_BR"}, nil, nil)

	_, err := svc.GetUserLanguage(context.Background(), shared.ActorContext{})
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)

	pref, err := svc.GetUserLanguage(context.Background(), cashier)
	require.NoError(t, err)
	assert.True(t, pref.Success)
	assert.Equal(t, Default, pref.Locale)

	pref, err = NewService(&fakeUsers{}, nil, nil).GetUserLanguage(context.Background(), cashier)
	require.NoError(t, err)
	assert.Equal(t, Default, pref.Locale)
}

func TestChangeUserLanguage(t *testing.T) {
	store := &fakeUsers{}
	svc := NewService(store, nil, nil)

	res, err := svc.ChangeUserLanguage(context.Background(), cashier, "PT")
	require.NoError(t, err)
	assert.Equal(t, Default, res.Locale)
	assert.Equal(t, "Language changed to pt-MZ", res.Message)
	assert.Equal(t, "pt-MZ", store.saved)

	_, err = svc.ChangeUserLanguage(context.Background(), cashier, "  ")
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.ChangeUserLanguage(context.Background(), shared.ActorContext{}, "pt")
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)

	_, err = NewService(&fakeUsers{disabled: true}, nil, nil).ChangeUserLanguage(context.Background(), cashier, "pt")
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestChangeUserLanguageRejectsUnsupported(t *testing.T) {
	resolver, err := NewResolver("en-US", []string{"en-US"})
	require.NoError(t, err)
	svc := NewService(&fakeUsers{}, resolver, nil)

	_, err = svc.ChangeUserLanguage(context.Background(), cashier, "pt")
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "not supported")
}

func TestChangeUserLanguageStoreFailure(t *testing.T) {
	svc := NewService(&fakeUsers{setErr: errors.New("connection reset")}, nil, nil)

	_, err := svc.ChangeUserLanguage(context.Background(), cashier, "pt-MZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to change language")
}
