package echoui

import (
	"fmt"
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/NercinoN21/dlpl-frontend/core"
	"github.com/NercinoN21/dlpl-frontend/core/admin"
	"github.com/NercinoN21/dlpl-frontend/core/session"
)

// console tabs
const (
	tabEnrollments = "enrollments"
	tabUsers       = "users"
	tabTurmas      = "turmas"
	tabConfig      = "config"
)

type adminUI struct {
	svc        *admin.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAdminUI(
	e *echo.Echo,
	sessions echo.MiddlewareFunc,
	svc *admin.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	ui := adminUI{svc: svc, validate: validate, translator: translator}

	g := e.Group("/admin", sessions)
	g.GET("", ui.page)
	g.GET("/enrollments", ui.enrollments)
	g.POST("/login", ui.login)
	g.POST("/logout", ui.logout)
	g.GET("/enrollments/export", ui.exportEnrollments)
	g.POST("/users", ui.createUser)
	g.POST("/users/sync", ui.syncUsers)
	g.POST("/turmas", ui.createTurma)
	g.POST("/turmas/update", ui.updateTurma)
	g.POST("/turmas/delete", ui.deleteTurma)
	g.POST("/config", ui.saveConfig)
}

// adminPage is the rendering instruction for the admin console (or, when no
// admin session is active, the login page).
type adminPage struct {
	LoggedIn   bool
	Tab        string
	Notice     string
	NoticeKind string

	Filter      core.EnrollmentFilter
	Semesters   []string
	Turmas      []core.Turma
	Enrollments []core.EnrollmentRow
	Users       []core.UserRow
	Config      *core.EnrollmentConfig
}

func (ui *adminUI) render(ctx echo.Context, page adminPage) error {
	name := "admin.html"
	if !page.LoggedIn {
		name = "admin_login.html"
	}
	return ctx.Render(http.StatusOK, name, page)
}

func (ui *adminUI) renderLogin(ctx echo.Context, noticeMsg, kind string) error {
	return ui.render(ctx, adminPage{Notice: noticeMsg, NoticeKind: kind})
}

// buildConsole loads whatever the requested tab shows. Load failures become
// the page notice; the console always renders.
func (ui *adminUI) buildConsole(ctx echo.Context, sess *session.Session, tab string, filter core.EnrollmentFilter) adminPage {
	page := adminPage{LoggedIn: true, Tab: tab, Filter: filter}
	reqCtx := ctx.Request().Context()

	fail := func(prefix string, err error) {
		page.Notice, page.NoticeKind = prefix+": "+notice(err, ui.translator), "error"
	}

	var err error
	switch tab {
	case tabUsers:
		if page.Users, err = ui.svc.ListUsers(reqCtx, sess); err != nil {
			fail("Erro ao listar usuários", err)
			break
		}
		// fresh fetch supersedes the diff baseline
		sess.UserBaseline = append([]core.UserRow(nil), page.Users...)
	case tabTurmas:
		if page.Turmas, err = ui.svc.AllTurmas(reqCtx, sess); err != nil {
			fail("Erro ao listar turmas", err)
		}
	case tabConfig:
		var conf core.EnrollmentConfig
		if conf, err = ui.svc.Config(reqCtx, sess); err != nil {
			fail("Erro ao ler configuração", err)
			break
		}
		page.Config = &conf
		if page.Semesters, err = ui.svc.Semesters(reqCtx, sess); err != nil {
			fail("Erro ao listar semestres", err)
		}
	default:
		page.Tab = tabEnrollments
		if page.Semesters, err = ui.svc.Semesters(reqCtx, sess); err != nil {
			fail("Erro ao listar semestres", err)
			break
		}
		if page.Turmas, err = ui.svc.AllTurmas(reqCtx, sess); err != nil {
			fail("Erro ao listar turmas", err)
			break
		}
		if page.Enrollments, err = ui.svc.Enrollments(reqCtx, sess, filter); err != nil {
			fail("Erro ao listar inscrições", err)
		}
	}
	return page
}

func filterFromQuery(ctx echo.Context) core.EnrollmentFilter {
	return core.EnrollmentFilter{
		StudentName: core.CleanString(ctx.QueryParam("nome")),
		Semester:    core.CleanString(ctx.QueryParam("semestre")),
		Turma:       core.CleanString(ctx.QueryParam("turma")),
	}
}

func (ui *adminUI) page(ctx echo.Context) error {
	sess := currentSession(ctx)
	if sess.Credentials.Empty() {
		return ui.renderLogin(ctx, "", "")
	}
	return ui.render(ctx, ui.buildConsole(ctx, sess, ctx.QueryParam("tab"), filterFromQuery(ctx)))
}

// enrollments is a direct entry into the enrollment console, equivalent to
// the default /admin tab.
func (ui *adminUI) enrollments(ctx echo.Context) error {
	sess := currentSession(ctx)
	if sess.Credentials.Empty() {
		return ui.renderLogin(ctx, "", "")
	}
	return ui.render(ctx, ui.buildConsole(ctx, sess, tabEnrollments, filterFromQuery(ctx)))
}

type loginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (f *loginForm) Validate(validate *validator.Validate) error {
	return validate.Struct(f)
}

func (ui *adminUI) login(ctx echo.Context) error {
	sess := currentSession(ctx)

	var form loginForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to loginForm")
	}
	if err := form.Validate(ui.validate); err != nil {
		return ui.renderLogin(ctx, notice(err, ui.translator), "error")
	}

	if err := ui.svc.Login(ctx.Request().Context(), sess, form.Username, form.Password); err != nil {
		return ui.renderLogin(ctx, "Erro no login. Verifique suas credenciais. "+notice(err, ui.translator), "error")
	}
	return ui.render(ctx, ui.buildConsole(ctx, sess, tabEnrollments, core.EnrollmentFilter{}))
}

func (ui *adminUI) logout(ctx echo.Context) error {
	ui.svc.Logout(currentSession(ctx))
	return ui.renderLogin(ctx, "Sessão encerrada.", "success")
}

func (ui *adminUI) exportEnrollments(ctx echo.Context) error {
	sess := currentSession(ctx)
	if sess.Credentials.Empty() {
		return ui.renderLogin(ctx, "", "")
	}

	filter := filterFromQuery(ctx)
	rows, err := ui.svc.Enrollments(ctx.Request().Context(), sess, filter)
	if err != nil {
		page := ui.buildConsole(ctx, sess, tabEnrollments, filter)
		page.Notice, page.NoticeKind = "Erro ao exportar: "+notice(err, ui.translator), "error"
		return ui.render(ctx, page)
	}

	data, err := admin.ExportEnrollments(rows)
	if err != nil {
		return errors.Wrap(err, "exporting enrollments")
	}

	ctx.Response().Header().Set(
		echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", admin.ExportFilename(filter)),
	)
	return ctx.Blob(
		http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		data,
	)
}

type newUserForm struct {
	Name     string `form:"name" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (f *newUserForm) Validate(validate *validator.Validate) error {
	return validate.Struct(f)
}

func (ui *adminUI) createUser(ctx echo.Context) error {
	sess := currentSession(ctx)
	if sess.Credentials.Empty() {
		return ui.renderLogin(ctx, "", "")
	}

	var form newUserForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to newUserForm")
	}
	if err := form.Validate(ui.validate); err != nil {
		page := ui.buildConsole(ctx, sess, tabUsers, core.EnrollmentFilter{})
		page.Notice, page.NoticeKind = "Preencha o nome e a senha. "+notice(err, ui.translator), "error"
		return ui.render(ctx, page)
	}

	if err := ui.svc.CreateUser(ctx.Request().Context(), sess, form.Name, form.Password); err != nil {
		page := ui.buildConsole(ctx, sess, tabUsers, core.EnrollmentFilter{})
		page.Notice, page.NoticeKind = "Erro ao criar usuário: "+notice(err, ui.translator), "error"
		return ui.render(ctx, page)
	}

	page := ui.buildConsole(ctx, sess, tabUsers, core.EnrollmentFilter{})
	page.Notice, page.NoticeKind = fmt.Sprintf("Usuário %q criado!", form.Name), "success"
	return ui.render(ctx, page)
}

// syncUsers rebuilds the edited table from the posted rows (one hidden name
// per row, checkbox present = flag on), diffs it against the baseline and
// replays only the changed cells.
func (ui *adminUI) syncUsers(ctx echo.Context) error {
	sess := currentSession(ctx)
	if sess.Credentials.Empty() {
		return ui.renderLogin(ctx, "", "")
	}

	form, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "reading sync form")
	}

	names := form["user_name"]
	edited := make([]core.UserRow, 0, len(names))
	for _, name := range names {
		edited = append(edited, core.UserRow{
			Name:     name,
			IsActive: form.Has("active_" + name),
			Admin:    form.Has("admin_" + name),
		})
	}

	results := ui.svc.SyncUsers(ctx.Request().Context(), sess, edited)

	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}

	page := ui.buildConsole(ctx, sess, tabUsers, core.EnrollmentFilter{})
	switch {
	case len(results) == 0:
		page.Notice, page.NoticeKind = "Nenhuma alteração a salvar.", "warning"
	case failed == 0:
		page.Notice, page.NoticeKind = "Alterações salvas.", "success"
	default:
		page.Notice = fmt.Sprintf("%d de %d alterações falharam; as demais foram salvas.", failed, len(results))
		page.NoticeKind = "error"
	}
	return ui.render(ctx, page)
}

type turmaForm struct {
	Name     string `form:"name" validate:"required"`
	Semester string `form:"semester" validate:"required"`
}

func (f *turmaForm) Validate(validate *validator.Validate) error {
	return validate.Struct(f)
}

func (ui *adminUI) createTurma(ctx echo.Context) error {
	sess := currentSession(ctx)
	if sess.Credentials.Empty() {
		return ui.renderLogin(ctx, "", "")
	}

	var form turmaForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to turmaForm")
	}
	if err := form.Validate(ui.validate); err != nil {
		page := ui.buildConsole(ctx, sess, tabTurmas, core.EnrollmentFilter{})
		page.Notice, page.NoticeKind = notice(err, ui.translator), "error"
		return ui.render(ctx, page)
	}

	turma := core.Turma{Name: form.Name, Semester: form.Semester}
	if err := ui.svc.CreateTurma(ctx.Request().Context(), sess, turma); err != nil {
		page := ui.buildConsole(ctx, sess, tabTurmas, core.EnrollmentFilter{})
		page.Notice, page.NoticeKind = "Erro ao criar turma: "+notice(err, ui.translator), "error"
		return ui.render(ctx, page)
	}

	page := ui.buildConsole(ctx, sess, tabTurmas, core.EnrollmentFilter{})
	page.Notice, page.NoticeKind = fmt.Sprintf("Turma %q criada!", turma.Label()), "success"
	return ui.render(ctx, page)
}

func (ui *adminUI) updateTurma(ctx echo.Context) error {
	sess := currentSession(ctx)
	if sess.Credentials.Empty() {
		return ui.renderLogin(ctx, "", "")
	}

	old := core.Turma{Name: ctx.FormValue("old_name"), Semester: ctx.FormValue("old_semester")}
	err := ui.svc.UpdateTurma(
		ctx.Request().Context(), sess, old,
		ctx.FormValue("new_name"), ctx.FormValue("new_semester"),
	)

	page := ui.buildConsole(ctx, sess, tabTurmas, core.EnrollmentFilter{})
	if err != nil {
		page.Notice, page.NoticeKind = "Erro ao editar turma: "+notice(err, ui.translator), "error"
	} else {
		page.Notice, page.NoticeKind = "Turma atualizada.", "success"
	}
	return ui.render(ctx, page)
}

func (ui *adminUI) deleteTurma(ctx echo.Context) error {
	sess := currentSession(ctx)
	if sess.Credentials.Empty() {
		return ui.renderLogin(ctx, "", "")
	}

	turma := core.Turma{Name: ctx.FormValue("name"), Semester: ctx.FormValue("semester")}
	err := ui.svc.DeleteTurma(ctx.Request().Context(), sess, turma)

	page := ui.buildConsole(ctx, sess, tabTurmas, core.EnrollmentFilter{})
	if err != nil {
		page.Notice, page.NoticeKind = "Erro ao deletar turma: "+notice(err, ui.translator), "error"
	} else {
		page.Notice, page.NoticeKind = "Turma removida.", "success"
	}
	return ui.render(ctx, page)
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

func (ui *adminUI) saveConfig(ctx echo.Context) error {
	sess := currentSession(ctx)
	if sess.Credentials.Empty() {
		return ui.renderLogin(ctx, "", "")
	}

	conf, err := bindConfigForm(ctx)
	if err != nil {
		page := ui.buildConsole(ctx, sess, tabConfig, core.EnrollmentFilter{})
		page.Notice, page.NoticeKind = "Configuração inválida: "+notice(err, ui.translator), "error"
		return ui.render(ctx, page)
	}

	if err := ui.svc.SaveConfig(ctx.Request().Context(), sess, conf); err != nil {
		page := ui.buildConsole(ctx, sess, tabConfig, core.EnrollmentFilter{})
		page.Notice, page.NoticeKind = "Erro ao salvar configurações: "+notice(err, ui.translator), "error"
		return ui.render(ctx, page)
	}

	page := ui.buildConsole(ctx, sess, tabConfig, core.EnrollmentFilter{})
	page.Notice, page.NoticeKind = "Configurações salvas!", "success"
	return ui.render(ctx, page)
}

func bindConfigForm(ctx echo.Context) (core.EnrollmentConfig, error) {
	var conf core.EnrollmentConfig

	conf.ActiveSemester = core.CleanString(ctx.FormValue("active_semester"))
	if conf.ActiveSemester == "" {
		return conf, core.NewValidationError(errors.New("semestre ativo é obrigatório"))
	}
	if _, err := fmt.Sscanf(ctx.FormValue("cutoff_score"), "%f", &conf.CutoffScore); err != nil {
		return conf, core.NewValidationError(errors.New("nota de corte inválida"))
	}
	if conf.CutoffScore < 0 || conf.CutoffScore > 10 {
		return conf, core.NewValidationError(errors.New("nota de corte deve estar entre 0 e 10"))
	}

	start, err := combineDateTime(ctx.FormValue("start_date"), ctx.FormValue("start_time"))
	if err != nil {
		return conf, core.NewValidationError(errors.New("data de início inválida"))
	}
	end, err := combineDateTime(ctx.FormValue("end_date"), ctx.FormValue("end_time"))
	if err != nil {
		return conf, core.NewValidationError(errors.New("data de fim inválida"))
	}
	conf.EnrollmentStart, conf.EnrollmentEnd = start, end
	return conf, nil
}

func combineDateTime(date, clock string) (time.Time, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(timeLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}
