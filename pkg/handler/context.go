package handler

// DI for all handlers alike.

import (
	"context"
	"sync"

	"github.com/yumyai/unirefcmp/pkg/db"
	"github.com/yumyai/unirefcmp/pkg/uniprot"
)

type AppContext struct {
	Client      *uniprot.Client
	Jobs        *db.JobStore
	DownloadDir string

	// Seconds between reloads of a pending job page.
	RefreshSeconds int

	// Parent of background downloads. Cancelled on shutdown.
	BaseCtx context.Context

	running sync.WaitGroup
}

// Wait blocks until every background download started by this context is done.
func (appctx *AppContext) Wait() {
	appctx.running.Wait()
}

func (appctx *AppContext) baseContext() context.Context {
	if appctx.BaseCtx != nil {
		return appctx.BaseCtx
	}
	return context.Background()
}

func (appctx *AppContext) refreshSeconds() int {
	if appctx.RefreshSeconds > 0 {
		return appctx.RefreshSeconds
	}
	return 5
}
