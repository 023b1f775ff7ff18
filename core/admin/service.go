// Package admin backs the administrative console: operator login, enrollment
// review and export, user management with table diff-sync, class (turma)
// management and the global enrollment configuration.
package admin

import (
	"context"

	"github.com/pkg/errors"

	"github.com/NercinoN21/dlpl-frontend/core"
	"github.com/NercinoN21/dlpl-frontend/core/refcache"
	"github.com/NercinoN21/dlpl-frontend/core/session"
)

var (
	errMissingCredentials = errors.New("username and password are required")
	errMissingUserFields  = errors.New("name and password are required")
	errMissingTurmaFields = errors.New("turma name and semester are required")
	errNotAuthenticated   = errors.New("admin session not authenticated")
)

// Backend is the slice of the DLPL API the admin console needs.
type Backend interface {
	Login(ctx context.Context, username, password string) (core.Credentials, error)
	Users(ctx context.Context, creds core.Credentials) ([]core.UserRow, error)
	CreateUser(ctx context.Context, creds core.Credentials, name, password string) error
	UpdateUserActive(ctx context.Context, creds core.Credentials, name string, active bool) error
	UpdateUserAdmin(ctx context.Context, creds core.Credentials, name string, admin bool) error
	Turmas(ctx context.Context, creds core.Credentials) ([]core.Turma, error)
	CreateTurma(ctx context.Context, creds core.Credentials, turma core.Turma) error
	UpdateTurma(ctx context.Context, creds core.Credentials, old core.Turma, newName, newSemester string) error
	DeleteTurma(ctx context.Context, creds core.Credentials, turma core.Turma) error
	Semesters(ctx context.Context, creds core.Credentials) ([]string, error)
	Enrollments(ctx context.Context, creds core.Credentials, filter core.EnrollmentFilter) ([]core.EnrollmentRow, error)
	GetConfig(ctx context.Context, creds core.Credentials) (core.EnrollmentConfig, error)
	SaveConfig(ctx context.Context, creds core.Credentials, conf core.EnrollmentConfig) error
}

type Service struct {
	backend Backend
	cache   *refcache.Cache
	logger  core.Logger
}

func NewService(backend Backend, cache *refcache.Cache, logger core.Logger) *Service {
	return &Service{backend: backend, cache: cache, logger: logger}
}

// Login authenticates the operator and stores the bearer token and login
// cookies in the session.
func (svc *Service) Login(ctx context.Context, sess *session.Session, username, password string) error {
	username, password = core.CleanString(username), core.CleanString(password)
	if username == "" || password == "" {
		return core.NewValidationError(errMissingCredentials)
	}

	creds, err := svc.backend.Login(ctx, username, password)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	sess.Credentials = creds
	return nil
}

// Logout hard-resets the admin session.
func (svc *Service) Logout(sess *session.Session) {
	sess.Reset()
}

func credentials(sess *session.Session) (core.Credentials, error) {
	if sess.Credentials.Empty() {
		return core.Credentials{}, errNotAuthenticated
	}
	return sess.Credentials, nil
}

// Semesters serves the semester list through the shared reference cache.
func (svc *Service) Semesters(ctx context.Context, sess *session.Session) ([]string, error) {
	creds, err := credentials(sess)
	if err != nil {
		return nil, err
	}
	return svc.cache.Semesters(func() ([]string, error) {
		return svc.backend.Semesters(ctx, creds)
	})
}

// AllTurmas serves the full class list through the shared reference cache.
func (svc *Service) AllTurmas(ctx context.Context, sess *session.Session) ([]core.Turma, error) {
	creds, err := credentials(sess)
	if err != nil {
		return nil, err
	}
	return svc.cache.Turmas(func() ([]core.Turma, error) {
		return svc.backend.Turmas(ctx, creds)
	})
}

// Enrollments lists submitted enrollments matching filter.
func (svc *Service) Enrollments(ctx context.Context, sess *session.Session, filter core.EnrollmentFilter) ([]core.EnrollmentRow, error) {
	creds, err := credentials(sess)
	if err != nil {
		return nil, err
	}
	rows, err := svc.backend.Enrollments(ctx, creds, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	return rows, nil
}

// ListUsers returns the current operator accounts.
func (svc *Service) ListUsers(ctx context.Context, sess *session.Session) ([]core.UserRow, error) {
	creds, err := credentials(sess)
	if err != nil {
		return nil, err
	}
	users, err := svc.backend.Users(ctx, creds)
	if err != nil {
		return nil, errors.Wrap(err, "listing users")
	}
	return users, nil
}

// CreateUser registers a new operator account.
func (svc *Service) CreateUser(ctx context.Context, sess *session.Session, name, password string) error {
	creds, err := credentials(sess)
	if err != nil {
		return err
	}
	name, password = core.CleanString(name), core.CleanString(password)
	if name == "" || password == "" {
		return core.NewValidationError(errMissingUserFields)
	}
	return errors.Wrap(svc.backend.CreateUser(ctx, creds, name, password), "creating user")
}

// CreateTurma registers a new class and invalidates the reference cache.
func (svc *Service) CreateTurma(ctx context.Context, sess *session.Session, turma core.Turma) error {
	creds, err := credentials(sess)
	if err != nil {
		return err
	}
	if core.CleanString(turma.Name) == "" || core.CleanString(turma.Semester) == "" {
		return core.NewValidationError(errMissingTurmaFields)
	}
	if err := svc.backend.CreateTurma(ctx, creds, turma); err != nil {
		return errors.Wrap(err, "creating turma")
	}
	svc.cache.Invalidate()
	return nil
}

// UpdateTurma renames a class and invalidates the reference cache.
func (svc *Service) UpdateTurma(ctx context.Context, sess *session.Session, old core.Turma, newName, newSemester string) error {
	creds, err := credentials(sess)
	if err != nil {
		return err
	}
	if core.CleanString(newName) == "" || core.CleanString(newSemester) == "" {
		return core.NewValidationError(errMissingTurmaFields)
	}
	if err := svc.backend.UpdateTurma(ctx, creds, old, newName, newSemester); err != nil {
		return errors.Wrap(err, "updating turma")
	}
	svc.cache.Invalidate()
	return nil
}

// DeleteTurma removes a class and invalidates the reference cache.
func (svc *Service) DeleteTurma(ctx context.Context, sess *session.Session, turma core.Turma) error {
	creds, err := credentials(sess)
	if err != nil {
		return err
	}
	if err := svc.backend.DeleteTurma(ctx, creds, turma); err != nil {
		return errors.Wrap(err, "deleting turma")
	}
	svc.cache.Invalidate()
	return nil
}

// Config reads the global enrollment configuration.
func (svc *Service) Config(ctx context.Context, sess *session.Session) (core.EnrollmentConfig, error) {
	creds, err := credentials(sess)
	if err != nil {
		return core.EnrollmentConfig{}, err
	}
	conf, err := svc.backend.GetConfig(ctx, creds)
	if err != nil {
		return core.EnrollmentConfig{}, errors.Wrap(err, "reading config")
	}
	return conf, nil
}

// SaveConfig writes the global enrollment configuration and invalidates the
// reference cache.
func (svc *Service) SaveConfig(ctx context.Context, sess *session.Session, conf core.EnrollmentConfig) error {
	creds, err := credentials(sess)
	if err != nil {
		return err
	}
	if err := svc.backend.SaveConfig(ctx, creds, conf); err != nil {
		return errors.Wrap(err, "saving config")
	}
	svc.cache.Invalidate()
	return nil
}
