package service

import (
	"context"
	"crypto/subtle"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/invoicedesk/internal/auth/domain"
	"github.com/smallbiznis/invoicedesk/internal/auth/password"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const apiPath = "/api/v1/*"

type Params struct {
	fx.In

	Log      *zap.Logger
	Cfg      config.Config
	Enforcer *casbin.SyncedEnforcer
}

type Service struct {
	log      *zap.Logger
	cfg      config.AuthConfig
	enforcer *casbin.SyncedEnforcer
}

func roleSubject(role string) string {
	return "role:" + role
}

// NewEnforcer loads the route policies from the casbin_rule table, seeds the
// role permissions and binds the configured operator to its role.
func NewEnforcer(db *gorm.DB, cfg config.Config) (*casbin.SyncedEnforcer, error) {
	role := strings.ToLower(strings.TrimSpace(cfg.Auth.Role))
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, cfg.Auth.Role)
	}

	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(cfg.Auth.Username)
	if username != "" {
		if _, err := enforcer.DeleteRolesForUser(username); err != nil {
			return nil, err
		}
		if _, err := enforcer.AddRoleForUser(username, roleSubject(role)); err != nil {
			return nil, err
		}
	}
	return enforcer, nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{roleSubject(domain.RoleAdmin), apiPath, "^(GET|HEAD|POST|PUT|PATCH|DELETE)$"},
		// Viewers read only.
		{roleSubject(domain.RoleViewer), apiPath, "^(GET|HEAD)$"},
	}
	for _, p := range policies {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	return nil
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("auth.service"),
		cfg:      p.Cfg.Auth,
		enforcer: p.Enforcer,
	}
}

func (s *Service) Authenticate(ctx context.Context, username, pw string) (domain.Principal, error) {
	if strings.TrimSpace(s.cfg.PasswordHash) == "" {
		return domain.Principal{}, domain.ErrNotConfigured
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	// Verify runs even for an unknown username.
	passOK := password.Verify(pw, s.cfg.PasswordHash)
	if !userOK || !passOK {
		s.log.Info("authentication failed", zap.String("username", username))
		return domain.Principal{}, domain.ErrInvalidCredentials
	}

	return domain.Principal{
		Username: s.cfg.Username,
		Role:     strings.ToLower(strings.TrimSpace(s.cfg.Role)),
	}, nil
}

func (s *Service) Authorize(ctx context.Context, p domain.Principal, path, method string) error {
	if p.Username == "" {
		return domain.ErrForbidden
	}
	allowed, err := s.enforcer.Enforce(p.Username, path, strings.ToUpper(method))
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Info("authorization denied",
			zap.String("username", p.Username),
			zap.String("role", p.Role),
			zap.String("method", method),
			zap.String("path", path),
		)
		return domain.ErrForbidden
	}
	return nil
}
