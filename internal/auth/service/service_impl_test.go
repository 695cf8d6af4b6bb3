package service

import (
	"context"
	"testing"

	"github.com/smallbiznis/invoicedesk/internal/auth/domain"
	"github.com/smallbiznis/invoicedesk/internal/auth/password"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, role string) domain.Service {
	t.Helper()

	hash, err := password.Hash("open-sesame")
	require.NoError(t, err)
	cfg := config.Config{Auth: config.AuthConfig{
		Username:     "operator",
		PasswordHash: hash,
		Role:         role,
	}}

	enforcer, err := NewEnforcer(testutil.NewDB(t), cfg)
	require.NoError(t, err)
	return New(Params{Log: zap.NewNop(), Cfg: cfg, Enforcer: enforcer})
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t, "Admin")
	ctx := context.Background()

	p, err := svc.Authenticate(ctx, "operator", "open-sesame")
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{Username: "operator", Role: domain.RoleAdmin}, p)

	_, err = svc.Authenticate(ctx, "operator", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "someone", "open-sesame")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthenticateWithoutPasswordHash(t *testing.T) {
	cfg := config.Config{Auth: config.AuthConfig{Username: "operator", Role: domain.RoleAdmin}}
	enforcer, err := NewEnforcer(testutil.NewDB(t), cfg)
	require.NoError(t, err)
	svc := New(Params{Log: zap.NewNop(), Cfg: cfg, Enforcer: enforcer})

	_, err = svc.Authenticate(context.Background(), "operator", "")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestAuthorizeByRole(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		role    string
		method  string
		path    string
		allowed bool
	}{
		{domain.RoleAdmin, "GET", "/api/v1/invoices", true},
		{domain.RoleAdmin, "POST", "/api/v1/invoices/123/pay", true},
		{domain.RoleAdmin, "DELETE", "/api/v1/recurring/9", true},
		{domain.RoleViewer, "GET", "/api/v1/invoices/123", true},
		{domain.RoleViewer, "get", "/api/v1/settings", true},
		{domain.RoleViewer, "POST", "/api/v1/invoices", false},
		{domain.RoleViewer, "PUT", "/api/v1/settings", false},
		{domain.RoleAdmin, "GET", "/internal/debug", false},
	}
	for _, tc := range cases {
		t.Run(tc.role+" "+tc.method+" "+tc.path, func(t *testing.T) {
			svc := newTestService(t, tc.role)
			p, err := svc.Authenticate(ctx, "operator", "open-sesame")
			require.NoError(t, err)

			err = svc.Authorize(ctx, p, tc.path, tc.method)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrForbidden)
			}
		})
	}
}

func TestAuthorizeRejectsAnonymous(t *testing.T) {
	svc := newTestService(t, domain.RoleAdmin)
	err := svc.Authorize(context.Background(), domain.Principal{}, "/api/v1/invoices", "GET")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestNewEnforcerRejectsUnknownRole(t *testing.T) {
	_, err := NewEnforcer(testutil.NewDB(t), config.Config{Auth: config.AuthConfig{Username: "operator", Role: "owner"}})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestNewEnforcerRebindsRoleOnRestart(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	_, err := NewEnforcer(db, config.Config{Auth: config.AuthConfig{Username: "operator", Role: domain.RoleAdmin}})
	require.NoError(t, err)
	enforcer, err := NewEnforcer(db, config.Config{Auth: config.AuthConfig{Username: "operator", Role: domain.RoleViewer}})
	require.NoError(t, err)

	roles, err := enforcer.GetRolesForUser("operator")
	require.NoError(t, err)
	assert.Equal(t, []string{"role:viewer"}, roles)

	svc := New(Params{Log: zap.NewNop(), Cfg: config.Config{}, Enforcer: enforcer})
	err = svc.Authorize(ctx, domain.Principal{Username: "operator"}, "/api/v1/clients", "POST")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
