package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/eggrates/eggrate/cmd/loops/recurring"
	backfilltask "github.com/eggrates/eggrate/cmd/loops/tasks/backfill"
	retentiontask "github.com/eggrates/eggrate/cmd/loops/tasks/retention"
	configs "github.com/eggrates/eggrate/pkg/configs/backend"
	"github.com/eggrates/eggrate/pkg/domain"
	kdb "github.com/eggrates/eggrate/pkg/domain/eggrate/db"
	"github.com/eggrates/eggrate/pkg/loop"
)

type LoggerOptions func(*log.Logger) *log.Logger

func byLogger(l *log.Logger, opt ...LoggerOptions) *log.Logger {
	for _, o := range opt {
		l = o(l)
	}
	return l
}

func Copied() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		return log.New(l.Writer(), l.Prefix(), l.Flags())
	}
}

func WithPrefix(pre string) LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetPrefix(pre)
		return l
	}
}

// Wrapper for monitoring loop tasks
//
//	Log the start and end of each time a task is executed. Essentially, it executes a task.
func monitor[T any](logger *log.Logger, task loop.Task[T]) loop.Task[T] {
	// counter for execution of the task
	var counter uint64
	return func(ctx context.Context, t T) (ret T, next loop.Next) {
		counter += 1
		timestamp := time.Now()

		logger.Printf("task start: #0x%X: ", counter)

		// log at the end of the task
		defer func() {
			logger.Printf(
				"task end: #0x%X (takes %s): %s\n with value = %#v",
				counter, time.Since(timestamp), next, ret,
			)
		}()

		ret, next = task(ctx, t)
		return
	}
}

// Manifest for starting a loop, which determines how the loop should behave.
type LoopManifest struct {
	// Which loop to run
	Type domain.LoopType

	// Policy for the looping
	Policy recurring.Policy
}

func StartLoop(
	ctx context.Context,
	logger *log.Logger,
	db kdb.EggRateDatabase,
	conf *configs.EggRateClusterConfig,
	manifest LoopManifest,
) error {
	switch manifest.Type {
	case domain.Backfill:
		return startBackfillLoop(ctx, logger, db, manifest)
	case domain.Retention:
		return startRetentionLoop(ctx, logger, db, conf.Retention().WindowDays(), manifest)
	default:
		return fmt.Errorf("unknown loop type: %s", manifest.Type)
	}
}

func startBackfillLoop(
	ctx context.Context,
	logger *log.Logger,
	db kdb.EggRateDatabase,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[backfill loop]"))
	_, err := loop.Start(
		ctx, backfilltask.Seed(),
		monitor(
			l,
			backfilltask.Task(
				db.Backfill(), time.Now, l,
			).Applied(manifest.Policy),
		),
		loop.WithTimeout(10*time.Minute),
	)
	return err
}

func startRetentionLoop(
	ctx context.Context,
	logger *log.Logger,
	db kdb.EggRateDatabase,
	windowDays int,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[retention loop]"))
	_, err := loop.Start(
		ctx, retentiontask.Seed(),
		monitor(
			l,
			retentiontask.Task(
				db.Retention(), windowDays, time.Now, l,
			).Applied(manifest.Policy),
		),
		loop.WithTimeout(10*time.Minute),
	)
	return err
}
