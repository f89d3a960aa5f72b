package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	nats "github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/finsight/marketcal/config"
	"github.com/finsight/marketcal/pkg/api"
	"github.com/finsight/marketcal/pkg/ingest"
	"github.com/finsight/marketcal/pkg/notify"
	"github.com/finsight/marketcal/pkg/source"
	"github.com/finsight/marketcal/pkg/storage"
	"github.com/finsight/marketcal/pkg/storage/memory"
	"github.com/finsight/marketcal/pkg/storage/postgres"
)

type apiServer struct {
	c *config.Config

	quitCh chan bool
	doneCh chan bool

	db    *sqlx.DB
	nc    *nats.Conn
	store storage.Interface
}

func init() {
	formatter := &logrus.TextFormatter{
		FullTimestamp: true,
	}
	logrus.SetFormatter(formatter)

	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

func newAPIServer(c *config.Config) (*apiServer, error) {
	s := &apiServer{
		c:      c,
		quitCh: make(chan bool),
		doneCh: make(chan bool),
	}

	if c.DatabaseURL != "" {
		db, err := sqlx.Open("postgres", c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			return nil, err
		}
		s.db = db
		s.store = postgres.NewStore(db)
	} else {
		log.Warn("no database configured, falling back to in-memory store")
		s.store = memory.NewStore()
	}

	if c.NATSServerURL != "" {
		nc, err := nats.Connect(c.NATSServerURL, nats.DrainTimeout(10*time.Second))
		if err != nil {
			log.Warn("failed to connect to NATS, notifications disabled: ", err)
		} else {
			s.nc = nc
		}
	}

	return s, nil
}

func (s *apiServer) Serve() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(logger())

	publisher := notify.NewNop()
	if s.nc != nil {
		publisher = notify.NewNATS(s.nc)
	}

	fmp := source.NewFMPClient(s.c.FMPBaseURL, s.c.FMPAPIKey,
		time.Duration(s.c.FetchTimeoutSeconds)*time.Second, s.c.FetchConcurrency)

	var macro source.MacroCalendar = fmp
	if s.c.CalendarCSVPath != "" {
		macro = source.NewCalendarFile(s.c.CalendarCSVPath)
	}

	svc := ingest.NewService(fmp, macro, fmp, s.store, publisher)

	// Register API endpoints
	apiHandler := api.NewHandler(s.store, svc)
	apiHandler.RegisterRoutes(e)

	go func() {
		log.WithFields(log.Fields{
			"host": s.c.BindHost,
			"port": s.c.BindPort,
		}).Info("Starting server")

		if err := e.Start(fmt.Sprintf("%s:%d", s.c.BindHost, s.c.BindPort)); err != nil {
			e.Logger.Info("Shutting down the server")
		}
	}()

	// Wait until receiving the quit signal
	<-s.quitCh
	log.Info("Shutdown signal received")

	// Create a 10 second timeout context
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the echo web server
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Error(err)
	}

	// We've done!
	s.doneCh <- true
}

// logger returns a middleware that logs HTTP requests.
func logger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			var err error
			if err = next(c); err != nil {
				c.Error(err)
			}
			stop := time.Now()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			}

			log.WithFields(log.Fields{
				"timestamp":     stop.Format(time.RFC3339),
				"id":            id,
				"remote_ip":     c.RealIP(),
				"host":          req.Host,
				"method":        req.Method,
				"uri":           req.RequestURI,
				"status":        res.Status,
				"status_text":   http.StatusText(res.Status),
				"error":         errMsg,
				"bytes_out":     res.Size,
				"latency":       stop.Sub(start).Nanoseconds(),
				"latency_human": stop.Sub(start).String(),
			}).Infof("%s %s %s %d %s", req.Method, req.RequestURI, req.Proto,
				res.Status, strconv.FormatInt(res.Size, 10))

			return err
		}
	}
}

func (s *apiServer) Shutdown() {
	if s.nc != nil {
		s.nc.Drain()
	}

	// Send the quit signal to the server.Serve() routine
	s.quitCh <- true

	// Wait up to 10 seconds
	select {
	case <-s.doneCh:
		log.Info("Shutdown server successful")
	case <-time.After(10 * time.Second):
		log.Error("Shutdown server failed")
	}
}

func (s *apiServer) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// RunServeAPI returns the cobra run function for the API server.
func RunServeAPI(c *config.Config) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		s, err := newAPIServer(c)
		if err != nil {
			log.Error("failed to create new server instance: ", err)
			os.Exit(1)
		}
		defer s.Close()

		go s.Serve()

		// Wait for interrupt signal to gracefully shutdown the server
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		s.Shutdown()
	}
}
