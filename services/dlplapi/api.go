package dlplapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/NercinoN21/dlpl-frontend/core"
)

// sessionCookieName is the cookie the API issues at login alongside the
// bearer token; both must be forwarded on every authenticated call.
const sessionCookieName = "session-token"

// isoLayout is the timezone-less ISO-8601 format the config endpoint speaks.
const isoLayout = "2006-01-02T15:04:05"

var (
	errNoToken         = errors.New("login response carries no token")
	errNoSessionCookie = errors.New("login response carries no session cookie")
	errNoSemester      = errors.New("no active semester reported")
	errNoOptions       = errors.New("no placement options returned for course")
)

// Public enrollment endpoints

// VerifyApplicant checks (name, cpf) against the verification endpoint.
// A nil error means the identity was accepted.
func (c *Client) VerifyApplicant(ctx context.Context, name, cpf string) error {
	params := url.Values{"name": {name}, "cpf": {cpf}}
	return c.get(ctx, "/enrollment/verify-cpf-by-name", params, nil, nil)
}

// EligibleCourses returns the courses the verified applicant may enroll in.
// An empty list is a valid answer, not an error.
func (c *Client) EligibleCourses(ctx context.Context, name, cpf string) ([]string, error) {
	var out struct {
		Courses []string `json:"courses"`
	}
	params := url.Values{"name": {name}, "cpf": {cpf}}
	if err := c.get(ctx, "/enrollment/courses", params, nil, &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

// EntryInfo returns the predicted score and ranked placement options for one
// of the applicant's eligible courses.
func (c *Client) EntryInfo(ctx context.Context, name, cpf, course string) (core.EntryInfo, error) {
	var info core.EntryInfo
	params := url.Values{"name": {name}, "cpf": {cpf}, "course": {course}}
	if err := c.get(ctx, "/enrollment/entry-info", params, nil, &info); err != nil {
		return core.EntryInfo{}, err
	}
	if len(info.Options) == 0 {
		return core.EntryInfo{}, errors.Wrapf(errNoOptions, "course %q", course)
	}
	return info, nil
}

// ActiveTurmas returns the open classes and the single active semester.
func (c *Client) ActiveTurmas(ctx context.Context) ([]core.Turma, string, error) {
	var out struct {
		Turmas         []core.Turma `json:"turmas"`
		ActiveSemester string       `json:"active_semester"`
	}
	if err := c.get(ctx, "/turma/active", nil, nil, &out); err != nil {
		return nil, "", err
	}
	if out.ActiveSemester == "" {
		return nil, "", errNoSemester
	}
	return out.Turmas, out.ActiveSemester, nil
}

// SubmitEnrollment posts a completed enrollment.
func (c *Client) SubmitEnrollment(ctx context.Context, sub core.EnrollmentSubmission) error {
	return c.postJSON(ctx, "/enrollment/", sub, nil, nil)
}

// Admin endpoints

// Login authenticates an operator and returns the bearer token plus the
// cookie jar issued by the API. Both are required; a 2xx response missing
// either one is rejected.
func (c *Client) Login(ctx context.Context, username, password string) (core.Credentials, error) {
	form := url.Values{"name": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/users/login", strings.NewReader(form.Encode()),
	)
	if err != nil {
		return core.Credentials{}, errors.Wrap(err, "building login request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return core.Credentials{}, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	var out struct {
		Token string `json:"token"`
	}
	if err := decodeResponse(resp, &out); err != nil {
		return core.Credentials{}, err
	}
	if out.Token == "" {
		return core.Credentials{}, errNoToken
	}

	cookies := make(map[string]string, len(resp.Cookies()))
	for _, ck := range resp.Cookies() {
		cookies[ck.Name] = ck.Value
	}
	if _, ok := cookies[sessionCookieName]; !ok {
		return core.Credentials{}, errNoSessionCookie
	}
	return core.Credentials{Token: out.Token, Cookies: cookies}, nil
}

// Users lists all operator accounts, active or not.
func (c *Client) Users(ctx context.Context, creds core.Credentials) ([]core.UserRow, error) {
	var out struct {
		Users []core.UserRow `json:"users"`
	}
	if err := c.get(ctx, "/users/", nil, &creds, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// CreateUser registers a new operator account.
func (c *Client) CreateUser(ctx context.Context, creds core.Credentials, name, password string) error {
	form := url.Values{"name": {name}, "password": {password}}
	return c.postForm(ctx, "/users/", form, &creds, nil)
}

// UpdateUserActive toggles the is_active flag of one account.
func (c *Client) UpdateUserActive(ctx context.Context, creds core.Credentials, name string, active bool) error {
	form := url.Values{"name": {name}, "is_active": {strconv.FormatBool(active)}}
	return c.putForm(ctx, "/users/update-active", form, &creds)
}

// UpdateUserAdmin toggles the admin flag of one account.
func (c *Client) UpdateUserAdmin(ctx context.Context, creds core.Credentials, name string, admin bool) error {
	form := url.Values{"name": {name}, "admin": {strconv.FormatBool(admin)}}
	return c.putForm(ctx, "/users/update-admin", form, &creds)
}

// Turmas lists every registered class, active or not.
func (c *Client) Turmas(ctx context.Context, creds core.Credentials) ([]core.Turma, error) {
	var out struct {
		Turmas []core.Turma `json:"turmas"`
	}
	if err := c.get(ctx, "/turma/", nil, &creds, &out); err != nil {
		return nil, err
	}
	return out.Turmas, nil
}

func (c *Client) CreateTurma(ctx context.Context, creds core.Credentials, turma core.Turma) error {
	return c.postJSON(ctx, "/turma/", turma, &creds, nil)
}

// UpdateTurma renames old to (newName, newSemester).
func (c *Client) UpdateTurma(ctx context.Context, creds core.Credentials, old core.Turma, newName, newSemester string) error {
	payload := struct {
		core.Turma
		NewName     string `json:"new_name"`
		NewSemester string `json:"new_semester"`
	}{Turma: old, NewName: newName, NewSemester: newSemester}
	return c.sendJSON(ctx, http.MethodPut, "/turma/", payload, &creds, nil)
}

func (c *Client) DeleteTurma(ctx context.Context, creds core.Credentials, turma core.Turma) error {
	return c.sendJSON(ctx, http.MethodDelete, "/turma/", turma, &creds, nil)
}

// Semesters lists every known semester.
func (c *Client) Semesters(ctx context.Context, creds core.Credentials) ([]string, error) {
	var out struct {
		Semesters []string `json:"semesters"`
	}
	if err := c.get(ctx, "/turma/semesters", nil, &creds, &out); err != nil {
		return nil, err
	}
	return out.Semesters, nil
}

// Enrollments lists submitted enrollments matching filter.
func (c *Client) Enrollments(ctx context.Context, creds core.Credentials, filter core.EnrollmentFilter) ([]core.EnrollmentRow, error) {
	params := url.Values{}
	if filter.StudentName != "" {
		params.Set("query_nome", filter.StudentName)
	}
	if filter.Semester != "" {
		params.Set("query_semestre", filter.Semester)
	}
	if filter.Turma != "" {
		params.Set("query_turma", filter.Turma)
	}

	var out struct {
		Data []core.EnrollmentRow `json:"data"`
	}
	if err := c.get(ctx, "/enrollment/", params, &creds, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

type configRecord struct {
	ActiveSemester string  `json:"activeSemester"`
	CutoffScore    float64 `json:"cutoffScore"`
	StartDate      string  `json:"enrollmentStartDate"`
	EndDate        string  `json:"enrollmentEndDate"`
}

// GetConfig reads the global enrollment configuration.
func (c *Client) GetConfig(ctx context.Context, creds core.Credentials) (core.EnrollmentConfig, error) {
	var rec configRecord
	if err := c.get(ctx, "/config/", nil, &creds, &rec); err != nil {
		return core.EnrollmentConfig{}, err
	}

	conf := core.EnrollmentConfig{
		ActiveSemester: rec.ActiveSemester,
		CutoffScore:    rec.CutoffScore,
	}
	var err error
	if conf.EnrollmentStart, err = parseISOTime(rec.StartDate); err != nil {
		return core.EnrollmentConfig{}, errors.Wrap(err, "parsing enrollmentStartDate")
	}
	if conf.EnrollmentEnd, err = parseISOTime(rec.EndDate); err != nil {
		return core.EnrollmentConfig{}, errors.Wrap(err, "parsing enrollmentEndDate")
	}
	return conf, nil
}

// SaveConfig writes the global enrollment configuration.
func (c *Client) SaveConfig(ctx context.Context, creds core.Credentials, conf core.EnrollmentConfig) error {
	rec := configRecord{
		ActiveSemester: conf.ActiveSemester,
		CutoffScore:    conf.CutoffScore,
		StartDate:      conf.EnrollmentStart.Format(isoLayout),
		EndDate:        conf.EnrollmentEnd.Format(isoLayout),
	}
	return c.postJSON(ctx, "/config/", rec, &creds, nil)
}

func parseISOTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(isoLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
