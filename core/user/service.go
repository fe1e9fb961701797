package user

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/maendeleo/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	ServiceInterface interface {
		CheckUniqueness(uname, email string) error
		Create(ctx context.Context, nu NewUser) (User, error)
		QueryAll(ctx context.Context) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
	}

	service struct {
		repo    Repository
		timeout time.Duration
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, conf *core.Config) *service {
	return &service{
		repo:    repo,
		timeout: conf.Database.Timeout,
	}
}

func (svc *service) stage(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, svc.timeout)
}

func (svc *service) CheckUniqueness(uname, email string) error {
	ctx, cancel := svc.stage(context.Background())
	defer cancel()

	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	ctx, cancel := svc.stage(ctx)
	defer cancel()

	now := time.Now().UTC()
	active := true
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  &active,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(usr.Roles) == 0 {
		usr.Roles = []string{RoleStudent}
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) QueryAll(ctx context.Context) ([]User, error) {
	ctx, cancel := svc.stage(ctx)
	defer cancel()
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	ctx, cancel := svc.stage(ctx)
	defer cancel()
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	ctx, cancel := svc.stage(ctx)
	defer cancel()
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	ctx, cancel := svc.stage(ctx)
	defer cancel()

	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}
