package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"

	"github.com/eggrates/eggrate/cmd/eggrated/handlers"
	configs "github.com/eggrates/eggrate/pkg/configs/backend"
	"github.com/eggrates/eggrate/pkg/domain"
	kpg "github.com/eggrates/eggrate/pkg/domain/eggrate/db/postgres"
	"github.com/eggrates/eggrate/pkg/utils/echoutil"
	"github.com/eggrates/eggrate/pkg/utils/filewatch"
)

func main() {
	configPath := flag.String(
		"config", os.Getenv("EGGRATE_BACKEND_CONFIG"), "path to config file",
	)
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	conf, err := configs.LoadBackendConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	// set log
	echoutil.SetLevel(e, conf.Cluster().LogLevel())
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	defer cancel()

	{
		// a config change restarts the server rather than reloading in place.
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *configPath)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer cancel()
		ctx = wctx
	}
	context.AfterFunc(ctx, func() {
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := e.Shutdown(graceful); err != nil {
			log.Printf("error on shutdown: %s", err)
		}
	})

	db, err := kpg.New(
		ctx, conf.Cluster().Database(),
		kpg.WithLookbackDays(conf.Cluster().Backfill().LookbackDays()),
	)
	if err != nil {
		log.Fatalf("can not connect to database: %s", err)
	}
	defer db.Close()

	if err := db.Schema().Ensure(ctx); err != nil {
		log.Fatalf("can not prepare database schema: %s", err)
	}

	// handlers
	{
		e.GET("/api/rates/latest/", handlers.GetLatestRateHandler(db.Rates()))
		e.GET("/api/rates/history/", handlers.GetRateHistoryHandler(db.Rates()))
		e.POST("/api/rates/", handlers.PostRatesHandler(db.Rates()))
	}

	{
		e.DELETE("/api/admin/cities/", handlers.DeleteCityHandler(db.Places()))
		e.DELETE("/api/admin/states/", handlers.DeleteStateHandler(db.Places()))
	}

	e.GET("/api/health/", handlers.HealthHandler(db.Places()))

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	// scheduled jobs run inside the daemon; cmd/loops covers ad-hoc runs.
	jobs := cron.New()
	{
		logger := log.Default()
		windowDays := conf.Cluster().Retention().WindowDays()

		if _, err := jobs.AddFunc(conf.Cluster().Backfill().Schedule(), func() {
			report, err := db.Backfill().Run(ctx, time.Now())
			if err != nil {
				logger.Printf("backfill failed: %s", err)
				return
			}
			logger.Printf(
				"backfill done: filled %d legacy rows, %d facts, %d unresolved",
				report.FilledRows, report.FilledFacts, len(report.Unresolved),
			)
		}); err != nil {
			log.Fatalf("can not schedule backfill: %s", err)
		}

		if _, err := jobs.AddFunc(conf.Cluster().Retention().Schedule(), func() {
			cutoff := domain.Day(time.Now()).AddDate(0, 0, -windowDays)
			report, err := db.Retention().Run(ctx, cutoff)
			if err != nil {
				logger.Printf("retention failed: %s", err)
				return
			}
			if report.SecondaryErr != nil {
				logger.Printf("retention kept normalized rows: %s", report.SecondaryErr)
			}
			logger.Printf(
				"retention done: archived %d legacy rows and %d facts before %s",
				report.LegacyArchived, report.FactsArchived,
				report.Cutoff.Format("2006-01-02"),
			)
		}); err != nil {
			log.Fatalf("can not schedule retention: %s", err)
		}
	}
	jobs.Start()
	defer jobs.Stop()

	port := strconv.Itoa(int(conf.Port()))
	cert, key := *pcert, *pkey
	if cert != "" && key != "" {
		e.Logger.Fatal(e.StartTLS(":"+port, cert, key))
	} else {
		e.Logger.Fatal(e.Start(":" + port))
	}
}
