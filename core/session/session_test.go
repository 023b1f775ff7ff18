package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NercinoN21/dlpl-frontend/core"
)

func TestSessionReset(t *testing.T) {
	sess := &Session{ID: "abc"}
	sess.IsVerified = true
	sess.Name = "ANA LUCIA"
	sess.CPF = "111.111.111-11"
	sess.Courses = []string{"Letras"}
	sess.CoursesLoaded = true
	sess.SelectedCourse = "Letras"
	sess.Turmas = []core.Turma{{Name: "Turma A", Semester: "2025.1"}}
	sess.Semesters = []string{"2025.1"}
	sess.TurmasLoaded = true
	sess.PutEntryInfo("Letras", core.EntryInfo{PredictedScore: 8.5, Options: []string{"1a opção"}})
	sess.Credentials = core.Credentials{Token: "tok", Cookies: map[string]string{"session-token": "x"}}
	sess.UserBaseline = []core.UserRow{{Name: "root"}}

	sess.Reset()

	assert.Equal(t, "abc", sess.ID, "identifier must survive a reset")
	assert.Equal(t, &Session{ID: "abc"}, sess)
	_, ok := sess.CachedEntryInfo("Letras")
	assert.False(t, ok)
	assert.True(t, sess.Credentials.Empty())
}

func TestSessionEntryInfoOnlyForEligibleCourses(t *testing.T) {
	sess := &Session{Courses: []string{"Letras", "Libras"}}

	sess.PutEntryInfo("Letras", core.EntryInfo{PredictedScore: 7})
	sess.PutEntryInfo("Direito", core.EntryInfo{PredictedScore: 9}) // not eligible

	_, ok := sess.CachedEntryInfo("Letras")
	assert.True(t, ok)
	_, ok = sess.CachedEntryInfo("Direito")
	assert.False(t, ok, "entry info must only exist for eligible courses")
}

func TestSessionActiveSemester(t *testing.T) {
	sess := &Session{}
	assert.Equal(t, "", sess.ActiveSemester())

	sess.Semesters = []string{"2025.1"}
	assert.Equal(t, "2025.1", sess.ActiveSemester())
}

func TestStore(t *testing.T) {
	store := NewStore()

	sess := store.Issue()
	assert.NotEmpty(t, sess.ID)

	got, ok := store.Get(sess.ID)
	assert.True(t, ok)
	assert.Same(t, sess, got)

	other := store.Issue()
	assert.NotEqual(t, sess.ID, other.ID)

	store.Drop(sess.ID)
	_, ok = store.Get(sess.ID)
	assert.False(t, ok)
}
