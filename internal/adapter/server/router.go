package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	httpHandle "orderflow/internal/adapter/http"
	"orderflow/internal/core/domain/types"
	"orderflow/pkg/flags"
	"orderflow/pkg/logger"
)

type API struct {
	mux       *http.ServeMux
	log       logger.Logger
	lifecycle *httpHandle.LifecycleHandle
	audit     *httpHandle.AuditHandle
}

func NewRouter(logger logger.Logger, lifecycle *httpHandle.LifecycleHandle, audit *httpHandle.AuditHandle) *API {
	mux := http.NewServeMux()

	return &API{
		mux:       mux,
		log:       logger,
		lifecycle: lifecycle,
		audit:     audit,
	}
}

func (api *API) Run(ctx context.Context) {
	api.mux.Handle("POST /orders", api.Middleware(api.lifecycle.CreateOrder()))
	api.mux.Handle("POST /orders/transition", api.Middleware(api.lifecycle.Transition()))
	api.mux.Handle("POST /components/reset", api.Middleware(api.lifecycle.ResetComponent()))
	api.mux.Handle("GET /orders/{number}/dwell", api.Middleware(api.lifecycle.Dwell()))
	if api.audit != nil {
		api.mux.Handle("POST /audit/sweep", api.Middleware(api.audit.RunSweep()))
	}

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(*flags.Port),
		Handler: api.mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			api.log.Error(ctx, types.ActionResponseFailed, "error running http server", err)
		}
	}()
}
