package main

import (
	"log"
	"os"

	echoui "github.com/NercinoN21/dlpl-frontend/apps/web/echo"
	"github.com/NercinoN21/dlpl-frontend/core"
	"github.com/NercinoN21/dlpl-frontend/core/admin"
	"github.com/NercinoN21/dlpl-frontend/core/enrollment"
	"github.com/NercinoN21/dlpl-frontend/core/refcache"
	"github.com/NercinoN21/dlpl-frontend/core/session"
	"github.com/NercinoN21/dlpl-frontend/services/dlplapi"
	logsvc "github.com/NercinoN21/dlpl-frontend/services/logger"
)

func main() {
	std := log.New(os.Stdout, "WEB : ", log.LstdFlags|log.Lshortfile)

	// set up services
	var logger core.Logger
	if core.Conf.GetBool("debug") || core.Conf.GetBool("testMode") {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std)
	}

	publicAPI := dlplapi.NewClient(dlplapi.ClientConfig{BaseURL: core.Conf.GetString("apiBaseURL")})
	adminAPI := dlplapi.NewClient(dlplapi.ClientConfig{BaseURL: core.Conf.GetString("adminAPIBaseURL")})
	cache := refcache.New(core.Conf.GetDuration("refCacheTTL"))

	enrollSvc := enrollment.NewService(publicAPI)
	adminSvc := admin.NewService(adminAPI, cache, logger)

	// start web server
	app := echoui.NewServer(
		&echoui.Options{
			Address:       core.Conf.GetString("address"),
			Logger:        logger,
			Sessions:      session.NewStore(),
			EnrollmentSvc: enrollSvc,
			AdminSvc:      adminSvc,
		},
	)
	app.Start()
}
