package httpserver

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"math"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/hostmon/internal/ingest"
	"github.com/tinytelemetry/hostmon/internal/model"
	"github.com/tinytelemetry/hostmon/internal/web"
)

const maxIngestBody = 64 << 10

// IngestService is the narrow service contract required by the HTTP API.
type IngestService interface {
	Authorize(credential string) error
	Ingest(ctx context.Context, credential string, r model.Reading) (model.IngestAck, error)
	Latest(ctx context.Context, limit int, host string) ([]model.MetricSample, error)
}

// Server exposes ingest, query, health and dashboard endpoints.
type Server struct {
	addr     string
	svc      IngestService
	assets   fs.FS
	server   *http.Server
	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewServer creates a new HTTP API server. assets holds the dashboard
// files; nil disables the dashboard routes.
func NewServer(addr string, svc IngestService, assets fs.FS) *Server {
	if addr == "" {
		addr = "127.0.0.1:8000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		svc:    svc,
		assets: assets,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.POST("/ingest", s.handleIngest)
	r.GET("/latest", s.handleLatest)

	if s.assets != nil {
		r.GET("/", s.handleDashboard)
		r.GET("/dashboard", s.handleDashboard)
		r.StaticFS("/static", onlyFiles{http.FS(s.assets)})
	}
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("httpserver: serve: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound listener address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ingestRequest mirrors model.Reading with pointers so a missing field can
// be told apart from a zero value.
type ingestRequest struct {
	Host    *string  `json:"host" binding:"required"`
	CPUPct  *float64 `json:"cpu_pct" binding:"required"`
	MemPct  *float64 `json:"mem_pct" binding:"required"`
	DiskPct *float64 `json:"disk_pct" binding:"required"`
	RxKbps  *float64 `json:"rx_kbps" binding:"required"`
	TxKbps  *float64 `json:"tx_kbps" binding:"required"`
	PingMs  *float64 `json:"ping_ms"`
}

func (r ingestRequest) reading() model.Reading {
	return model.Reading{
		Host:    *r.Host,
		CPUPct:  *r.CPUPct,
		MemPct:  *r.MemPct,
		DiskPct: *r.DiskPct,
		RxKbps:  *r.RxKbps,
		TxKbps:  *r.TxKbps,
		PingMs:  r.PingMs,
	}
}

func (s *Server) handleIngest(c *gin.Context) {
	credential := c.GetHeader(model.APIKeyHeader)
	// Credentials are checked before the body is even decoded.
	if err := s.svc.Authorize(credential); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxIngestBody)
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ack, err := s.svc.Ingest(c.Request.Context(), credential, req.reading())
	if err != nil {
		var verr *ingest.ValidationError
		switch {
		case errors.Is(err, ingest.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
		case errors.As(err, &verr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  verr.Error(),
				"fields": verr.FieldNames(),
			})
		default:
			log.Printf("httpserver: ingest from host=%q failed: %v", *req.Host, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store sample"})
		}
		return
	}

	c.JSON(http.StatusOK, ack)
}

func (s *Server) handleLatest(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "limit must be an integer"})
		return
	}

	samples, err := s.svc.Latest(c.Request.Context(), limit, c.Query("host"))
	if err != nil {
		log.Printf("httpserver: latest query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read samples"})
		return
	}
	if samples == nil {
		samples = []model.MetricSample{}
	}
	c.JSON(http.StatusOK, samples)
}

// parseLimit reads the limit query value. Empty means the default; integers
// too large for int saturate instead of failing, since the service clamps.
func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.DefaultLatestLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			if strings.HasPrefix(raw, "-") {
				return math.MinInt, nil
			}
			return math.MaxInt, nil
		}
		return 0, err
	}
	return n, nil
}

func (s *Server) handleDashboard(c *gin.Context) {
	data, err := fs.ReadFile(s.assets, web.IndexFile)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "dashboard not found"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// onlyFiles hides directory listings under /static.
type onlyFiles struct {
	fs http.FileSystem
}

func (o onlyFiles) Open(name string) (http.File, error) {
	f, err := o.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
