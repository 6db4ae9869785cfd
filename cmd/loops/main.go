package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/eggrates/eggrate/cmd/loops/recurring"
	configs "github.com/eggrates/eggrate/pkg/configs/backend"
	"github.com/eggrates/eggrate/pkg/domain"
	kpg "github.com/eggrates/eggrate/pkg/domain/eggrate/db/postgres"
	"github.com/eggrates/eggrate/pkg/utils/args"
	"github.com/eggrates/eggrate/pkg/utils/filewatch"
	"github.com/eggrates/eggrate/pkg/utils/try"
)

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	// call cancel() when this function exits
	defer cancel()

	// define command line flags
	//-- path to config file
	pconfig := flag.String(
		"config", os.Getenv("EGGRATE_BACKEND_CONFIG"), "path to config file",
	)
	//-- which loop type to run
	loopType := args.Parser(domain.AsLoopType)
	flag.Var(loopType, "type", "one of loop type (backfill|retention)")
	//-- loop policy
	policy := args.Parser(recurring.ParsePolicy)
	flag.Var(
		policy, "policy",
		`loop policy (syntax: forever[:COOLDOWN]|once).`+
			` "forever[:COOLDOWN]" = run forever until error. When a cycle is over, `+
			`wait COOLDOWN (optional duration. default: 0) as interval.`+
			` "once" = run one cycle and exit.`,
	)
	// parse command line flags
	flag.Parse()

	if !loopType.IsSet() || !policy.IsSet() {
		flag.Usage()
		os.Exit(2)
	}

	{
		// watch config
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf := try.To(configs.LoadBackendConfig(*pconfig)).OrFatal(logger)

	db := try.To(kpg.New(
		ctx, conf.Cluster().Database(),
		kpg.WithLookbackDays(conf.Cluster().Backfill().LookbackDays()),
		kpg.WithLogger(logger),
	)).OrFatal(logger)
	defer db.Close()

	if err := db.Schema().Ensure(ctx); err != nil {
		logger.Fatal(err)
	}

	logger.Printf(
		`start loop "%s" /w policy "%s"`,
		loopType.Value().String(), policy.Value().String(),
	)

	err := StartLoop(
		ctx, logger, db, conf.Cluster(),
		LoopManifest{
			Type:   loopType.Value(),
			Policy: recurring.UntilError(policy.Value()),
		},
	)

	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		logger.Fatal(err, "(loop context is cancelled by:", context.Cause(ctx), ")")
	}
	logger.Fatal(err)
}
