package enrollment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NercinoN21/dlpl-frontend/core"
	"github.com/NercinoN21/dlpl-frontend/core/session"
	"github.com/NercinoN21/dlpl-frontend/services/dlplapi"
)

// stubBackend counts calls and answers from canned data, standing in for the
// DLPL API.
type stubBackend struct {
	verifyErr  error
	courses    []string
	coursesErr error
	entryInfo  map[string]core.EntryInfo
	turmas     []core.Turma
	semester   string
	submitErr  error

	verifyCalls    int
	coursesCalls   int
	entryInfoCalls int
	turmasCalls    int
	submitCalls    int
	submitted      []core.EnrollmentSubmission
}

func (b *stubBackend) VerifyApplicant(_ context.Context, name, cpf string) error {
	b.verifyCalls++
	return b.verifyErr
}

func (b *stubBackend) EligibleCourses(_ context.Context, name, cpf string) ([]string, error) {
	b.coursesCalls++
	return b.courses, b.coursesErr
}

func (b *stubBackend) EntryInfo(_ context.Context, name, cpf, course string) (core.EntryInfo, error) {
	b.entryInfoCalls++
	return b.entryInfo[course], nil
}

func (b *stubBackend) ActiveTurmas(_ context.Context) ([]core.Turma, string, error) {
	b.turmasCalls++
	return b.turmas, b.semester, nil
}

func (b *stubBackend) SubmitEnrollment(_ context.Context, sub core.EnrollmentSubmission) error {
	b.submitCalls++
	if b.submitErr != nil {
		return b.submitErr
	}
	b.submitted = append(b.submitted, sub)
	return nil
}

func newTestBackend() *stubBackend {
	return &stubBackend{
		courses: []string{"Letras", "Libras"},
		entryInfo: map[string]core.EntryInfo{
			"Letras": {PredictedScore: 8.5, Options: []string{"1a opção", "2a opção"}},
			"Libras": {PredictedScore: 7.0, Options: []string{"1a opção"}},
		},
		turmas:   []core.Turma{{Name: "Turma A", Semester: "2025.1"}, {Name: "Turma B", Semester: "2025.1"}},
		semester: "2025.1",
	}
}

func setup() (*Service, *stubBackend, *session.Session) {
	backend := newTestBackend()
	return NewService(backend), backend, &session.Session{ID: "test"}
}

func verify(t *testing.T, svc *Service, sess *session.Session) {
	t.Helper()
	require.NoError(t, svc.Verify(context.Background(), sess, "Ana Lúcia 3", "111.111.111-11"))
}

func TestVerify(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc, backend, sess := setup()

		verify(t, svc, sess)

		assert.True(t, sess.IsVerified)
		assert.Equal(t, "ANA LUCIA", sess.Name, "name must be normalized before the verification call")
		assert.Equal(t, "111.111.111-11", sess.CPF)
		assert.Equal(t, []string{"Letras", "Libras"}, sess.Courses)
		assert.Equal(t, 1, backend.verifyCalls)
		assert.Equal(t, StateCourses, svc.StateOf(sess))
	})

	t.Run("missing fields issue no call", func(t *testing.T) {
		svc, backend, sess := setup()

		err := svc.Verify(context.Background(), sess, "", "111.111.111-11")

		assert.IsType(t, &core.ValidationError{}, err)
		assert.Equal(t, 0, backend.verifyCalls)
		assert.False(t, sess.IsVerified)
	})

	t.Run("rejection leaves session unverified", func(t *testing.T) {
		svc, backend, sess := setup()
		backend.verifyErr = &dlplapi.APIError{Status: 404, Message: "CPF não encontrado"}

		err := svc.Verify(context.Background(), sess, "Ana", "111.111.111-11")

		require.Error(t, err)
		assert.False(t, sess.IsVerified)
		assert.Empty(t, sess.Name)
		assert.Empty(t, sess.CPF)
		assert.Equal(t, StateUnverified, svc.StateOf(sess))
	})

	t.Run("empty course list is a dead end, not an error", func(t *testing.T) {
		svc, backend, sess := setup()
		backend.courses = nil

		verify(t, svc, sess)

		assert.True(t, sess.IsVerified)
		assert.Equal(t, StateNoCourses, svc.StateOf(sess))
	})

	t.Run("course fetch failure keeps verification and retries later", func(t *testing.T) {
		svc, backend, sess := setup()
		backend.coursesErr = &dlplapi.ConnectionError{Err: assert.AnError}

		err := svc.Verify(context.Background(), sess, "Ana", "111.111.111-11")

		require.Error(t, err)
		assert.True(t, sess.IsVerified)
		assert.Equal(t, StateCourses, svc.StateOf(sess), "not a dead end until an empty list is actually fetched")

		backend.coursesErr = nil
		require.NoError(t, svc.EnsureCourses(context.Background(), sess))
		assert.Equal(t, []string{"Letras", "Libras"}, sess.Courses)
		assert.Equal(t, 2, backend.coursesCalls)
	})
}

func TestVerifiedIdentityReadback(t *testing.T) {
	svc, _, sess := setup()

	verify(t, svc, sess)

	// what verification accepted is exactly what later reads return
	assert.Equal(t, "ANA LUCIA", sess.Name)
	assert.Equal(t, "111.111.111-11", sess.CPF)
}

func TestSelectCourse(t *testing.T) {
	t.Run("memoizes entry info per course", func(t *testing.T) {
		svc, backend, sess := setup()
		verify(t, svc, sess)

		for _, course := range []string{"Letras", "Libras", "Letras"} {
			_, err := svc.SelectCourse(context.Background(), sess, course)
			require.NoError(t, err)
		}

		assert.Equal(t, 2, backend.entryInfoCalls, "A, B, A must fetch exactly twice")
		assert.Equal(t, "Letras", sess.SelectedCourse)
	})

	t.Run("turmas fetched once per session regardless of course", func(t *testing.T) {
		svc, backend, sess := setup()
		verify(t, svc, sess)

		_, err := svc.SelectCourse(context.Background(), sess, "Letras")
		require.NoError(t, err)
		_, err = svc.SelectCourse(context.Background(), sess, "Libras")
		require.NoError(t, err)

		assert.Equal(t, 1, backend.turmasCalls)
		assert.Equal(t, []string{"2025.1"}, sess.Semesters)
	})

	t.Run("unknown course rejected", func(t *testing.T) {
		svc, backend, sess := setup()
		verify(t, svc, sess)

		_, err := svc.SelectCourse(context.Background(), sess, "Direito")

		assert.IsType(t, &core.ValidationError{}, err)
		assert.Equal(t, 0, backend.entryInfoCalls)
	})
}

func TestSubmit(t *testing.T) {
	completeSub := Submission{Course: "Letras", Choice: "1a opção", Turma: "Turma A", Semester: "2025.1"}

	t.Run("success clears all session state", func(t *testing.T) {
		svc, backend, sess := setup()
		verify(t, svc, sess)
		_, err := svc.SelectCourse(context.Background(), sess, "Letras")
		require.NoError(t, err)

		require.NoError(t, svc.Submit(context.Background(), sess, completeSub))

		assert.Equal(t, 1, backend.submitCalls)
		require.Len(t, backend.submitted, 1)
		assert.Equal(t, core.EnrollmentSubmission{
			Name: "ANA LUCIA", CPF: "111.111.111-11",
			Course: "Letras", Choice: "1a opção", Turma: "Turma A", Semester: "2025.1",
		}, backend.submitted[0])

		// hard reset back to the initial unverified view
		assert.Equal(t, StateUnverified, svc.StateOf(sess))
		assert.Equal(t, &session.Session{ID: "test"}, sess)
	})

	t.Run("missing field issues no network call and changes nothing", func(t *testing.T) {
		svc, backend, sess := setup()
		verify(t, svc, sess)
		_, err := svc.SelectCourse(context.Background(), sess, "Letras")
		require.NoError(t, err)
		before := *sess

		sub := completeSub
		sub.Turma = ""
		err = svc.Submit(context.Background(), sess, sub)

		assert.IsType(t, &core.ValidationError{}, err)
		assert.Equal(t, 0, backend.submitCalls)
		assert.Equal(t, before.Name, sess.Name)
		assert.True(t, sess.IsVerified)
		assert.Equal(t, "Letras", sess.SelectedCourse)
	})

	t.Run("forced semester", func(t *testing.T) {
		svc, backend, sess := setup()
		verify(t, svc, sess)
		_, err := svc.SelectCourse(context.Background(), sess, "Letras")
		require.NoError(t, err)

		sub := completeSub
		sub.Semester = "2024.2"
		err = svc.Submit(context.Background(), sess, sub)

		assert.IsType(t, &core.ValidationError{}, err)
		assert.Equal(t, 0, backend.submitCalls)
	})

	t.Run("rejection keeps the session intact", func(t *testing.T) {
		svc, backend, sess := setup()
		backend.submitErr = &dlplapi.APIError{Status: 409, Message: "inscrições encerradas"}
		verify(t, svc, sess)
		_, err := svc.SelectCourse(context.Background(), sess, "Letras")
		require.NoError(t, err)

		err = svc.Submit(context.Background(), sess, completeSub)

		require.Error(t, err)
		assert.True(t, sess.IsVerified)
		assert.Equal(t, StateCourses, svc.StateOf(sess))
	})
}
