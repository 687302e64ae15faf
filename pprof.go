package main

import (
	"errors"
	"net/http"
	"net/http/pprof"
)

// 访问/debug/pprof/进入pprof实时分析页面，/metrics为prometheus指标
func startHTTPDebugger(addr string, metrics *Metrics) *http.Server {
	debugHandler := http.NewServeMux()
	debugHandler.Handle("/debug/pprof/", http.HandlerFunc(pprof.Index))
	debugHandler.Handle("/debug/pprof/profile", http.HandlerFunc(pprof.Profile))
	debugHandler.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: debugHandler}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("debug server: %v", err)
		}
	}()
	log.Infof("debug server listening at %v", addr)
	return server
}
