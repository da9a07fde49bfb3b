package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

type memRepo struct {
	users     map[int64]User
	companies map[string]string
}

func (m *memRepo) Get(_ context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user", httpx.ErrNotFound)
	}
	return u, nil
}

func (m *memRepo) ListActive(context.Context) ([]User, error) {
	var out []User
	for _, u := range m.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memRepo) SetLanguage(_ context.Context, id int64, language string) error {
	u := m.users[id]
	u.Language = language
	m.users[id] = u
	return nil
}

func (m *memRepo) CompanyOf(_ context.Context, email string) (string, error) {
	return m.companies[email], nil
}

func TestRequireEnabled(t *testing.T) {
	svc := NewService(&memRepo{users: map[int64]User{
		1: {ID: 1, Email: "on@example.com", IsActive: true},
		2: {ID: 2, Email: "off@example.com"},
	}})
	ctx := context.Background()

	_, err := svc.RequireEnabled(ctx, shared.ActorContext{})
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)

	_, err = svc.RequireEnabled(ctx, shared.ActorContext{UserID: 2, Email: "off@example.com"})
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)
	assert.Contains(t, err.Error(), "disabled")

	_, err = svc.RequireEnabled(ctx, shared.ActorContext{UserID: 9, Email: "gone@example.com"})
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)

	user, err := svc.RequireEnabled(ctx, shared.ActorContext{UserID: 1, Email: "on@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "on@example.com", user.Email)
}

func TestCompanyOfRequiresAssignment(t *testing.T) {
	svc := NewService(&memRepo{companies: map[string]string{"a@example.com": "Loja Maputo"}})

	company, err := svc.CompanyOf(context.Background(), shared.ActorContext{UserID: 1, Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Loja Maputo", company)

	_, err = svc.CompanyOf(context.Background(), shared.ActorContext{UserID: 2, Email: "b@example.com"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
