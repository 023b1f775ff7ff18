package echoui

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/NercinoN21/dlpl-frontend/core"
	"github.com/NercinoN21/dlpl-frontend/core/enrollment"
	"github.com/NercinoN21/dlpl-frontend/core/session"
)

type enrollmentUI struct {
	svc        *enrollment.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerEnrollmentUI(
	e *echo.Echo,
	sessions echo.MiddlewareFunc,
	svc *enrollment.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	ui := enrollmentUI{svc: svc, validate: validate, translator: translator}

	g := e.Group("", sessions)
	g.GET("/", ui.page)
	g.POST("/verify", ui.verify)
	g.POST("/select-course", ui.selectCourse)
	g.POST("/enroll", ui.enroll)
}

// wizardPage is the rendering instruction for the enrollment page: the
// wizard state plus everything the selected state needs on screen.
type wizardPage struct {
	State      enrollment.State
	Notice     string
	NoticeKind string // "error" | "success" | "warning"

	Name           string
	Courses        []string
	SelectedCourse string
	EntryInfo      *core.EntryInfo
	Turmas         []core.Turma
	Semester       string
}

func (p wizardPage) Unverified() bool { return p.State == enrollment.StateUnverified }
func (p wizardPage) NoCourses() bool  { return p.State == enrollment.StateNoCourses }
func (p wizardPage) Selecting() bool  { return p.State == enrollment.StateCourses }

// buildPage derives the page from the session, retrying the course fetch on
// verified sessions that don't have the list yet.
func (ui *enrollmentUI) buildPage(ctx echo.Context, sess *session.Session) wizardPage {
	page := wizardPage{}
	if sess.IsVerified {
		if err := ui.svc.EnsureCourses(ctx.Request().Context(), sess); err != nil {
			page.Notice, page.NoticeKind = "Erro ao buscar cursos: "+notice(err, ui.translator), "error"
		}
	}

	page.State = ui.svc.StateOf(sess)
	page.Name = sess.Name
	page.Courses = sess.Courses
	page.SelectedCourse = sess.SelectedCourse
	page.Turmas = sess.Turmas
	page.Semester = sess.ActiveSemester()
	if info, ok := sess.CachedEntryInfo(sess.SelectedCourse); ok {
		page.EntryInfo = &info
	}
	return page
}

func (ui *enrollmentUI) render(ctx echo.Context, page wizardPage) error {
	return ctx.Render(http.StatusOK, "enrollment.html", page)
}

func (ui *enrollmentUI) page(ctx echo.Context) error {
	return ui.render(ctx, ui.buildPage(ctx, currentSession(ctx)))
}

type verifyForm struct {
	Name string `form:"name" validate:"required"`
	CPF  string `form:"cpf" validate:"required,cpf"`
}

func (f *verifyForm) Validate(validate *validator.Validate) error {
	return validate.Struct(f)
}

func (ui *enrollmentUI) verify(ctx echo.Context) error {
	sess := currentSession(ctx)

	var form verifyForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to verifyForm")
	}
	if err := form.Validate(ui.validate); err != nil {
		page := ui.buildPage(ctx, sess)
		page.Notice, page.NoticeKind = "Por favor, preencha o nome e o CPF. "+notice(err, ui.translator), "error"
		return ui.render(ctx, page)
	}

	if err := ui.svc.Verify(ctx.Request().Context(), sess, form.Name, form.CPF); err != nil {
		page := ui.buildPage(ctx, sess)
		page.Notice, page.NoticeKind = "Erro na verificação: "+notice(err, ui.translator), "error"
		return ui.render(ctx, page)
	}

	page := ui.buildPage(ctx, sess)
	page.Notice, page.NoticeKind = "Dados verificados! Você pode prosseguir.", "success"
	return ui.render(ctx, page)
}

func (ui *enrollmentUI) selectCourse(ctx echo.Context) error {
	sess := currentSession(ctx)

	if _, err := ui.svc.SelectCourse(ctx.Request().Context(), sess, ctx.FormValue("course")); err != nil {
		page := ui.buildPage(ctx, sess)
		page.Notice, page.NoticeKind = "Erro ao buscar informações: "+notice(err, ui.translator), "error"
		return ui.render(ctx, page)
	}
	return ui.render(ctx, ui.buildPage(ctx, sess))
}

func (ui *enrollmentUI) enroll(ctx echo.Context) error {
	sess := currentSession(ctx)

	sub := enrollment.Submission{
		Course:   ctx.FormValue("course"),
		Choice:   ctx.FormValue("choice"),
		Turma:    ctx.FormValue("turma"),
		Semester: ctx.FormValue("semester"),
	}
	if err := ui.svc.Submit(ctx.Request().Context(), sess, sub); err != nil {
		page := ui.buildPage(ctx, sess)
		page.Notice, page.NoticeKind = "Erro ao finalizar: "+notice(err, ui.translator), "error"
		return ui.render(ctx, page)
	}

	// session was hard-reset: back to the verification step
	page := ui.buildPage(ctx, sess)
	page.Notice, page.NoticeKind = "Inscrição finalizada com sucesso!", "success"
	return ui.render(ctx, page)
}
