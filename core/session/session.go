// Package session holds the per-browser state of both surfaces: the public
// enrollment wizard and the admin console. A Session lives for one browser
// session in one process; nothing in it is persisted.
package session

import (
	"github.com/NercinoN21/dlpl-frontend/core"
)

// Session is the mutable state of a single browser session. It is mutated
// only by the handler currently serving that session (one logical thread of
// control per session) and passed by reference into every service call.
type Session struct {
	ID string

	// enrollment wizard
	IsVerified     bool
	Name           string
	CPF            string
	Courses        []string
	CoursesLoaded  bool
	SelectedCourse string
	Turmas         []core.Turma
	Semesters      []string
	TurmasLoaded   bool
	entryInfo      map[string]core.EntryInfo

	// admin console
	Credentials  core.Credentials
	UserBaseline []core.UserRow
}

// Reset clears every field except the session identifier: the hard reset
// performed on successful enrollment submission and on admin logout.
func (s *Session) Reset() {
	*s = Session{ID: s.ID}
}

// ActiveSemester returns the single server-reported active semester, or ""
// when none has been fetched yet.
func (s *Session) ActiveSemester() string {
	if len(s.Semesters) == 0 {
		return ""
	}
	return s.Semesters[0]
}

// CachedEntryInfo returns the memoized entry info for course, if any.
func (s *Session) CachedEntryInfo(course string) (core.EntryInfo, bool) {
	info, ok := s.entryInfo[course]
	return info, ok
}

// PutEntryInfo memoizes the entry info fetched for course. Only courses the
// applicant is eligible for are kept; anything else is discarded so that
// entry info never outlives its course list.
func (s *Session) PutEntryInfo(course string, info core.EntryInfo) {
	var eligible bool
	for _, c := range s.Courses {
		if c == course {
			eligible = true
			break
		}
	}
	if !eligible {
		return
	}
	if s.entryInfo == nil {
		s.entryInfo = make(map[string]core.EntryInfo)
	}
	s.entryInfo[course] = info
}
