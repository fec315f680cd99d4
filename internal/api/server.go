// Package api handles HTTP and WebSocket API endpoints
package api

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereceipt/quickreceipt/internal/export"
	"github.com/thereceipt/quickreceipt/internal/logger"
	"github.com/thereceipt/quickreceipt/internal/printer"
	"github.com/thereceipt/quickreceipt/internal/receipt"
	"github.com/thereceipt/quickreceipt/internal/renderer"
	"github.com/thereceipt/quickreceipt/internal/shell"
	"github.com/thereceipt/quickreceipt/internal/view"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Options configures the server
type Options struct {
	Printer printer.Target
	Dots    int
}

// Server is the API server
type Server struct {
	router   *gin.Engine
	shell    *shell.Shell
	preview  renderer.Rasterizer
	opts     Options
	logger   *zap.Logger
	hub      *Hub
	upgrader websocket.Upgrader
	unsub    func()
}

// NewServer creates a new API server
func NewServer(sh *shell.Shell, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "api"))

	router := gin.New()
	router.Use(logger.Recovery(log), logger.GinMiddleware(log), corsMiddleware())

	s := &Server{
		router:  router,
		shell:   sh,
		preview: renderer.NewNative(log),
		opts:    opts,
		logger:  log,
		hub:     NewHub(log),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
	}

	s.unsub = sh.Subscribe(s.hub.BroadcastState)
	s.setupRoutes()

	return s
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)

	s.router.GET("/settings", s.handleGetSettings)
	s.router.PUT("/settings", s.handlePutSettings)
	s.router.POST("/settings/logo", s.handleUploadLogo)
	s.router.DELETE("/settings/logo", s.handleDeleteLogo)

	s.router.GET("/transaction", s.handleGetTransaction)
	s.router.PUT("/transaction", s.handlePutTransaction)

	s.router.GET("/items", s.handleGetItems)
	s.router.POST("/items", s.handleAddItem)
	s.router.PATCH("/items/:id", s.handlePatchItem)
	s.router.DELETE("/items/:id", s.handleDeleteItem)
	s.router.GET("/items.xlsx", s.handleItemsWorkbook)

	s.router.GET("/draft", s.handleGetDraft)
	s.router.POST("/draft", s.handlePostDraft)

	s.router.GET("/receipt", s.handleSnapshot)
	s.router.GET("/receipt/preview.png", s.handlePreviewPNG)
	s.router.GET("/receipt/preview.txt", s.handlePreviewText)
	s.router.GET("/receipt/preview.html", s.handlePreviewHTML)

	s.router.POST("/viewport", s.handleViewport)
	s.router.POST("/preview/open", s.handlePreviewOpen)
	s.router.POST("/preview/close", s.handlePreviewClose)

	s.router.POST("/export", s.handleExport)
	s.router.POST("/share", s.handleShare)
	s.router.POST("/print", s.handlePrint)

	// WebSocket
	s.router.GET("/ws", s.handleWebSocket)

	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, export.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, receipt.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, shell.ErrInvalidInput), errors.Is(err, receiptformat.ErrInvalidDraft):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.shell.Snapshot())
}

func (s *Server) handleViewport(c *gin.Context) {
	var req struct {
		Width int `json:"width" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "width is required"})
		return
	}

	state := s.shell.SetViewport(req.Width)
	c.JSON(http.StatusOK, gin.H{"captureState": state})
}

func (s *Server) handlePreviewOpen(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"captureState": s.shell.OpenPreview()})
}

func (s *Server) handlePreviewClose(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"captureState": s.shell.ClosePreview()})
}

func (s *Server) handleExport(c *gin.Context) {
	artifact, err := s.shell.Download(c.Request.Context())
	if err != nil {
		if errors.Is(err, export.ErrInFlight) {
			s.fail(c, err)
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": export.MsgFailed})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	c.Data(http.StatusOK, "application/pdf", artifact.Data)
}

func (s *Server) handleShare(c *gin.Context) {
	handoff, err := s.shell.Share(c.Request.Context())
	if err != nil {
		if errors.Is(err, export.ErrInFlight) {
			s.fail(c, err)
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": export.MsgFailed})
		return
	}
	c.JSON(http.StatusOK, handoff)
}

func (s *Server) handlePrint(c *gin.Context) {
	var req struct {
		Host   string `json:"host"`
		Port   int    `json:"port"`
		Device string `json:"device"`
		Baud   int    `json:"baud"`
		Dots   int    `json:"dots"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	target := s.opts.Printer
	if req.Host != "" || req.Device != "" {
		target = printer.Target{Host: req.Host, Port: req.Port, Device: req.Device, Baud: req.Baud}
	}
	dots := s.opts.Dots
	if req.Dots > 0 {
		dots = req.Dots
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	conn, err := printer.Open(ctx, target)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	defer conn.Close()

	if err := s.shell.Print(ctx, conn, dots); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handlePreviewPNG(c *gin.Context) {
	doc, err := s.shell.Preview()
	if err != nil {
		s.fail(c, err)
		return
	}

	img, err := s.preview.Rasterize(c.Request.Context(), doc, renderer.DefaultOptions())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Type", "image/png")
	c.Status(http.StatusOK)
	if err := png.Encode(c.Writer, img); err != nil {
		s.logger.Warn("Failed to write preview", zap.Error(err))
	}
}

func (s *Server) handlePreviewText(c *gin.Context) {
	doc, err := s.shell.Preview()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.String(http.StatusOK, doc.String())
}

func (s *Server) handlePreviewHTML(c *gin.Context) {
	doc, err := s.shell.Preview()
	if err != nil {
		s.fail(c, err)
		return
	}
	frag, err := doc.HTMLFragment()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(frag))
}

func (s *Server) handleIndex(c *gin.Context) {
	doc, err := s.shell.Preview()
	if err != nil {
		s.fail(c, err)
		return
	}
	page, err := doc.HTMLPage(view.PageOptions{LiveURL: "/ws", FragmentURL: "/receipt/preview.html"})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// Serve listens on addr until ctx is cancelled
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	return srv.Shutdown(shutdownCtx)
}

// Close detaches from the shell and disconnects websocket clients
func (s *Server) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.hub.Close()
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
