// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ebpretty/config"
	"ebpretty/pretty"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by pretty subcommand
	Overwrite bool
	FixOnly   bool

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Printer creates document printer from current configuration. When debug
// report is requested printer stores tree dumps in it.
func (e *LocalEnv) Printer() (*pretty.Printer, error) {
	if e.Cfg == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}
	p, err := pretty.NewPrinter(&e.Cfg.Document, e.Log)
	if err != nil {
		return nil, err
	}
	if e.Rpt != nil {
		p.WithReport(e.Rpt)
	}
	return p, nil
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
