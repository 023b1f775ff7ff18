package echoui

import (
	"fmt"
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/NercinoN21/dlpl-frontend/core"
	"github.com/NercinoN21/dlpl-frontend/services/dlplapi"
)

// newAppHTTPErrorHandler handles whatever escapes the handlers: routing
// errors and genuine server bugs. API failures never get here; they are
// turned into inline notices at the point of call.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code := http.StatusInternalServerError
		message := http.StatusText(code)

		if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
			code = herr.Code
			if msg, ok := herr.Message.(string); ok {
				message = msg
			}
		} else {
			logger.Error(message, err)
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if !ctx.Response().Committed {
			if rErr := ctx.String(code, message); rErr != nil {
				ctx.Echo().Logger.Error(rErr)
			}
		}
	}
}

// notice converts a service error into the inline message shown to the user:
// validation problems as-is, API rejections with status and server message
// verbatim, transport failures with the underlying error.
func notice(err error, translator ut.Translator) string {
	switch cause := errors.Cause(err).(type) {
	case *core.ValidationError:
		if len(cause.Fields) > 0 {
			parts := make([]string, 0, len(cause.Fields))
			for _, fld := range cause.Fields {
				parts = append(parts, fld.Field+": "+fld.Error)
			}
			return strings.Join(parts, "; ")
		}
		return cause.Error()
	case validator.ValidationErrors:
		parts := make([]string, 0, len(cause))
		for _, vErr := range cause {
			parts = append(parts, vErr.Field()+": "+vErr.Translate(translator))
		}
		return strings.Join(parts, "; ")
	}

	if apiErr, ok := dlplapi.AsAPIError(err); ok {
		return fmt.Sprintf("Erro na API (%d): %s", apiErr.Status, apiErr.Message)
	}
	if dlplapi.IsConnectionError(err) {
		return "Erro de conexão com a API: " + errors.Cause(err).Error()
	}
	return err.Error()
}
