package core

import "time"

// Turma is a class/section offering for a given semester.
type Turma struct {
	Name     string `json:"name"`
	Semester string `json:"semester"`
}

func (t Turma) Label() string {
	return t.Name + " - " + t.Semester
}

// EntryInfo is the per-course predicted admission score and ranked list of
// placement options for a verified applicant.
type EntryInfo struct {
	PredictedScore float64  `json:"NOTA_PREDITA"`
	Options        []string `json:"OPCOES"`
}

// UserRow is a snapshot of a backend-owned operator account.
// Name identifies the row and is never editable; IsActive and Admin are the
// two mutable fields the admin console may toggle.
type UserRow struct {
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
	Admin    bool   `json:"admin"`
}

// EnrollmentRow is one submitted enrollment as listed by the admin console.
type EnrollmentRow struct {
	Name      string `json:"name"`
	CPF       string `json:"cpf"`
	Course    string `json:"course"`
	Choice    string `json:"choice"`
	Turma     string `json:"turma"`
	Semester  string `json:"semester"`
	CreatedAt string `json:"created_at"`
}

// EnrollmentSubmission is the payload of a completed wizard.
type EnrollmentSubmission struct {
	Name     string `json:"name"`
	CPF      string `json:"cpf"`
	Course   string `json:"course"`
	Choice   string `json:"choice"`
	Turma    string `json:"turma"`
	Semester string `json:"semester"`
}

// EnrollmentFilter narrows the admin enrollment listing. Zero values mean
// "no filter" and are omitted from the backend query.
type EnrollmentFilter struct {
	StudentName string
	Semester    string
	Turma       string
}

// EnrollmentConfig is the global enrollment configuration record.
type EnrollmentConfig struct {
	ActiveSemester  string
	CutoffScore     float64
	EnrollmentStart time.Time
	EnrollmentEnd   time.Time
}

// Credentials carries an authenticated admin session: the bearer token plus
// the cookie pairs issued at login, both forwarded on every admin call.
type Credentials struct {
	Token   string
	Cookies map[string]string
}

func (c Credentials) Empty() bool {
	return c.Token == ""
}
