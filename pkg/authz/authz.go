package authz

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/sirupsen/logrus"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
	"github.com/bankhub/testcard-portal/pkg/composables"
	"github.com/bankhub/testcard-portal/pkg/serrors"
)

const (
	ModeDisabled = "disabled"
	ModeShadow   = "shadow"
	ModeEnforce  = "enforce"
)

var ErrForbidden = serrors.NewError("FORBIDDEN", "you don't have permission to perform this action", "")

// ObjectName builds the casbin object identifier for a module entity.
func ObjectName(module, entity string) string {
	return module + "." + entity
}

type Config struct {
	ModelPath  string
	PolicyPath string
	Mode       string
	Logger     *logrus.Logger
}

// Service enforces role-based access on service-layer operations. The UI hides
// SME-only controls; this is the server-side re-enforcement of the same rules.
type Service struct {
	enforcer *casbin.Enforcer
	mode     string
	logger   *logrus.Entry
	mu       sync.RWMutex
}

func NewService(cfg Config) (*Service, error) {
	enf, err := casbin.NewEnforcer(cfg.ModelPath, fileadapter.NewAdapter(cfg.PolicyPath))
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	if err := enf.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz: failed to load policies: %w", err)
	}

	var logger *logrus.Entry
	if cfg.Logger != nil {
		logger = cfg.Logger.WithField("component", "authz")
	} else {
		logger = logrus.WithField("component", "authz")
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ModeEnforce
	}

	return &Service{enforcer: enf, mode: mode, logger: logger}, nil
}

// Check evaluates a role/object/action triple without enforcement semantics.
func (s *Service) Check(role user.Role, object, action string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allowed, err := s.enforcer.Enforce(role.String(), object, action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	return allowed, nil
}

// Authorize returns ErrForbidden when the acting user's role may not perform
// the action on the object. In shadow mode denials are logged but allowed.
func (s *Service) Authorize(ctx context.Context, object, action string) error {
	if s.mode == ModeDisabled {
		return nil
	}
	u, err := composables.UseUser(ctx)
	if err != nil {
		return err
	}
	allowed, err := s.Check(u.Role(), object, action)
	if err != nil {
		return err
	}
	if allowed {
		return nil
	}
	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"role":   u.Role().String(),
		"object": object,
		"action": action,
		"mode":   s.mode,
	}).Warn("authz denied request")
	if s.mode == ModeShadow {
		return nil
	}
	return ErrForbidden
}

var (
	defaultMu      sync.RWMutex
	defaultService *Service
)

// SetDefault installs the process-wide authz service. Module services consult
// it through Authorize; before it is installed (unit tests, seeding) every
// check passes.
func SetDefault(s *Service) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultService = s
}

func Authorize(ctx context.Context, object, action string) error {
	defaultMu.RLock()
	s := defaultService
	defaultMu.RUnlock()
	if s == nil {
		return nil
	}
	return s.Authorize(ctx, object, action)
}
