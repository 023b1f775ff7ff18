// Package enrollment drives the two-step public wizard: identity
// verification, then course/class selection and submission. All decisions
// (eligibility, scoring, acceptance) are made by the DLPL API; this service
// only walks the session through the states in between.
package enrollment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/NercinoN21/dlpl-frontend/core"
	"github.com/NercinoN21/dlpl-frontend/core/session"
)

// State is where a session currently stands in the wizard.
type State int

const (
	// StateUnverified accepts (name, cpf) and nothing else.
	StateUnverified State = iota
	// StateNoCourses is the dead end reached when a verified applicant has
	// no eligible courses. Terminal: no further action is possible.
	StateNoCourses
	// StateCourses is the selection + submission step.
	StateCourses
)

var (
	errMissingIdentity  = errors.New("name and CPF are required")
	errNotVerified      = errors.New("identity not verified yet")
	errUnknownCourse    = errors.New("course not in the eligible list")
	errIncompleteForm   = errors.New("course, choice, turma and semester are all required")
	errUnknownChoice    = errors.New("choice not among the placement options")
	errUnknownTurma     = errors.New("turma not among the active classes")
	errInactiveSemester = errors.New("semester is not the active one")
)

// Backend is the slice of the DLPL API the wizard needs.
type Backend interface {
	VerifyApplicant(ctx context.Context, name, cpf string) error
	EligibleCourses(ctx context.Context, name, cpf string) ([]string, error)
	EntryInfo(ctx context.Context, name, cpf, course string) (core.EntryInfo, error)
	ActiveTurmas(ctx context.Context) ([]core.Turma, string, error)
	SubmitEnrollment(ctx context.Context, sub core.EnrollmentSubmission) error
}

type Service struct {
	backend Backend
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// StateOf derives the wizard state from the session. A verified session
// whose course list has not loaded yet still counts as StateCourses; the
// page handler retries the course fetch before rendering.
func (svc *Service) StateOf(sess *session.Session) State {
	switch {
	case !sess.IsVerified:
		return StateUnverified
	case sess.CoursesLoaded && len(sess.Courses) == 0:
		return StateNoCourses
	default:
		return StateCourses
	}
}

// Verify normalizes the applicant name, checks the identity against the API
// and, on acceptance, marks the session verified and loads the eligible
// course list. Any failure leaves the session exactly as it was.
func (svc *Service) Verify(ctx context.Context, sess *session.Session, name, cpf string) error {
	name, cpf = core.CleanString(name), core.CleanString(cpf)
	if name == "" || cpf == "" {
		return core.NewValidationError(errMissingIdentity)
	}

	name = core.NormalizeName(name)
	if err := svc.backend.VerifyApplicant(ctx, name, cpf); err != nil {
		return errors.Wrap(err, "verifying applicant")
	}

	sess.IsVerified = true
	sess.Name = name
	sess.CPF = cpf
	return svc.EnsureCourses(ctx, sess)
}

// EnsureCourses loads the eligible course list once per session. A failed
// fetch is reported but does not clear the verified flag; the next render
// retries.
func (svc *Service) EnsureCourses(ctx context.Context, sess *session.Session) error {
	if !sess.IsVerified {
		return errNotVerified
	}
	if sess.CoursesLoaded {
		return nil
	}

	courses, err := svc.backend.EligibleCourses(ctx, sess.Name, sess.CPF)
	if err != nil {
		return errors.Wrap(err, "fetching eligible courses")
	}
	sess.Courses = courses
	sess.CoursesLoaded = true
	return nil
}

// SelectCourse makes course the current selection and returns its entry
// info, fetching it at most once per course per session. The first selection
// also fetches the active class list and semester, once per session
// regardless of course.
func (svc *Service) SelectCourse(ctx context.Context, sess *session.Session, course string) (core.EntryInfo, error) {
	if !sess.IsVerified {
		return core.EntryInfo{}, errNotVerified
	}
	if !contains(sess.Courses, course) {
		return core.EntryInfo{}, core.NewValidationError(errUnknownCourse)
	}

	info, cached := sess.CachedEntryInfo(course)
	if !cached {
		var err error
		info, err = svc.backend.EntryInfo(ctx, sess.Name, sess.CPF, course)
		if err != nil {
			return core.EntryInfo{}, errors.Wrapf(err, "fetching entry info for %q", course)
		}
		sess.PutEntryInfo(course, info)
	}

	if !sess.TurmasLoaded {
		turmas, semester, err := svc.backend.ActiveTurmas(ctx)
		if err != nil {
			return core.EntryInfo{}, errors.Wrap(err, "fetching active turmas")
		}
		sess.Turmas = turmas
		sess.Semesters = []string{semester}
		sess.TurmasLoaded = true
	}

	sess.SelectedCourse = course
	return info, nil
}

// Submission is the selection step's outcome, as bound from the form.
type Submission struct {
	Course   string
	Choice   string
	Turma    string
	Semester string
}

// Submit posts the enrollment. Validation failures never reach the network
// and leave the session untouched; an accepted submission hard-resets the
// session back to StateUnverified.
func (svc *Service) Submit(ctx context.Context, sess *session.Session, sub Submission) error {
	if !sess.IsVerified {
		return errNotVerified
	}
	if sub.Course == "" || sub.Choice == "" || sub.Turma == "" || sub.Semester == "" {
		return core.NewValidationError(errIncompleteForm)
	}

	info, err := svc.SelectCourse(ctx, sess, sub.Course)
	if err != nil {
		return err
	}
	if !contains(info.Options, sub.Choice) {
		return core.NewValidationError(errUnknownChoice)
	}
	if !turmaExists(sess.Turmas, sub.Turma) {
		return core.NewValidationError(errUnknownTurma)
	}
	// semester is read-only: only the server-reported active value passes
	if sub.Semester != sess.ActiveSemester() {
		return core.NewValidationError(errInactiveSemester)
	}

	payload := core.EnrollmentSubmission{
		Name:     sess.Name,
		CPF:      sess.CPF,
		Course:   sub.Course,
		Choice:   sub.Choice,
		Turma:    sub.Turma,
		Semester: sub.Semester,
	}
	if err := svc.backend.SubmitEnrollment(ctx, payload); err != nil {
		return errors.Wrap(err, "submitting enrollment")
	}

	sess.Reset()
	return nil
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}

func turmaExists(turmas []core.Turma, name string) bool {
	for _, t := range turmas {
		if t.Name == name {
			return true
		}
	}
	return false
}
