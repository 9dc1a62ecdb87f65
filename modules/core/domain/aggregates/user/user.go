package user

import (
	"context"
	"time"

	"github.com/bankhub/testcard-portal/modules/core/domain/entities/environment"
	"golang.org/x/crypto/bcrypt"
)

// Role is the integer role carried on every user record.
type Role int

const (
	RoleSME       Role = 1
	RoleRequester Role = 2
	RoleViewer    Role = 3
	RoleManager   Role = 4
)

func (r Role) IsValid() bool {
	return r >= RoleSME && r <= RoleManager
}

func (r Role) String() string {
	switch r {
	case RoleSME:
		return "sme"
	case RoleRequester:
		return "requester"
	case RoleViewer:
		return "viewer"
	case RoleManager:
		return "manager"
	default:
		return "unknown"
	}
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// EnvAccess is the per-environment access flag set.
type EnvAccess struct {
	Prod bool
	QA   bool
	Test bool
}

// Has reports whether the user may touch the given environment. This is the
// predicate every list endpoint applies on top of SQL filters.
func (a EnvAccess) Has(env environment.Environment) bool {
	switch env {
	case environment.Prod:
		return a.Prod
	case environment.QA:
		return a.QA
	case environment.Test:
		return a.Test
	default:
		return false
	}
}

type User interface {
	ID() uint
	Email() string
	FirstName() string
	LastName() string
	FullName() string
	Phone() string
	Role() Role
	Status() Status
	EnvAccess() EnvAccess
	PasswordHash() string
	CheckPassword(password string) bool
	LastLogin() *time.Time
	CreatedAt() time.Time
	UpdatedAt() time.Time

	SetPassword(password string) (User, error)
	SetRole(role Role) User
	SetEnvAccess(access EnvAccess) User
	SetStatus(status Status) User
}

type Option func(*user)

func WithID(id uint) Option {
	return func(u *user) { u.id = id }
}

func WithPhone(phone string) Option {
	return func(u *user) { u.phone = phone }
}

func WithRole(role Role) Option {
	return func(u *user) { u.role = role }
}

func WithStatus(status Status) Option {
	return func(u *user) { u.status = status }
}

func WithEnvAccess(access EnvAccess) Option {
	return func(u *user) { u.envAccess = access }
}

func WithPasswordHash(hash string) Option {
	return func(u *user) { u.passwordHash = hash }
}

func WithLastLogin(t *time.Time) Option {
	return func(u *user) { u.lastLogin = t }
}

func WithTimestamps(createdAt, updatedAt time.Time) Option {
	return func(u *user) {
		u.createdAt = createdAt
		u.updatedAt = updatedAt
	}
}

func New(email, firstName, lastName string, opts ...Option) User {
	now := time.Now()
	u := &user{
		email:     email,
		firstName: firstName,
		lastName:  lastName,
		role:      RoleViewer,
		status:    StatusActive,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type user struct {
	id           uint
	email        string
	firstName    string
	lastName     string
	phone        string
	role         Role
	status       Status
	envAccess    EnvAccess
	passwordHash string
	lastLogin    *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

func (u *user) ID() uint              { return u.id }
func (u *user) Email() string         { return u.email }
func (u *user) FirstName() string     { return u.firstName }
func (u *user) LastName() string      { return u.lastName }
func (u *user) Phone() string         { return u.phone }
func (u *user) Role() Role            { return u.role }
func (u *user) Status() Status        { return u.status }
func (u *user) EnvAccess() EnvAccess  { return u.envAccess }
func (u *user) PasswordHash() string  { return u.passwordHash }
func (u *user) LastLogin() *time.Time { return u.lastLogin }
func (u *user) CreatedAt() time.Time  { return u.createdAt }
func (u *user) UpdatedAt() time.Time  { return u.updatedAt }

func (u *user) FullName() string {
	if u.firstName == "" {
		return u.lastName
	}
	if u.lastName == "" {
		return u.firstName
	}
	return u.firstName + " " + u.lastName
}

func (u *user) CheckPassword(password string) bool {
	if u.passwordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) == nil
}

func (u *user) SetPassword(password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	out := *u
	out.passwordHash = string(hash)
	out.updatedAt = time.Now()
	return &out, nil
}

func (u *user) SetRole(role Role) User {
	out := *u
	out.role = role
	out.updatedAt = time.Now()
	return &out
}

func (u *user) SetEnvAccess(access EnvAccess) User {
	out := *u
	out.envAccess = access
	out.updatedAt = time.Now()
	return &out
}

func (u *user) SetStatus(status Status) User {
	out := *u
	out.status = status
	out.updatedAt = time.Now()
	return &out
}

type FindParams struct {
	Role   Role
	Status Status
	Email  string
	Search string
	Limit  int
	Offset int
}

type Repository interface {
	GetByID(ctx context.Context, id uint) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]User, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, data User) (User, error)
	Update(ctx context.Context, data User) error
	UpdateLastLogin(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}
