// Package server publishes a calibration library over a read-only HTTP API.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/xrdlab/sputtercal/pkg/config"
	"github.com/xrdlab/sputtercal/pkg/library"
)

const shutdownTimeout = 5 * time.Second

type server struct {
	lib  *library.Library
	conf config.Config
}

// NewRouter returns the API routes for lib.
func NewRouter(lib *library.Library, conf config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	s := &server{lib: lib, conf: conf}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/targets", s.listTargets)
	router.GET("/targets/:name", s.getTarget)
	router.GET("/targets/:name/rotating", s.getRotatingEstimate)
	router.GET("/targets/:name/fit", s.getFit)
	router.GET("/powerselect", s.getPowerSelection)
	router.GET("/version", getVersion)

	return router
}

// Run serves the API on addr until ctx is canceled.
func Run(ctx context.Context, addr string, lib *library.Library, conf config.Config) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", addr)
	}
	return Serve(ctx, l, lib, conf)
}

// Serve serves the API on l until ctx is canceled, then shuts down
// gracefully.
func Serve(ctx context.Context, l net.Listener, lib *library.Library, conf config.Config) error {
	srv := &http.Server{
		Handler:           NewRouter(lib, conf),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return pkgerrors.Wrap(err, "http server failed")
	case <-ctx.Done():
	}

	logrus.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return pkgerrors.Wrap(err, "failed to shutdown http server")
	}
	return nil
}
