// Package server exposes the pattern compiler over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ava12/melody/compiler"
	"github.com/ava12/melody/internal/diag"
)

const ctxSourceName = "melody.source_name"

const defaultSourceName = "request"

// Options configures HTTP API.
type Options struct {
	Compiler     compiler.Options
	MaxBodyBytes int64

	// AccessLogger receives one line per request, no access log if nil.
	AccessLogger *log.Logger
	Color        bool
}

type compileRequest struct {
	Name   string `json:"name"`
	Source string `json:"source" binding:"required"`
}

type compileResponse struct {
	Name        string            `json:"name"`
	Pattern     string            `json:"pattern"`
	Definitions map[string]string `json:"definitions"`
	Order       []string          `json:"order"`
	Unused      []string          `json:"unused,omitempty"`
}

type matchRequest struct {
	compileRequest
	Input string `json:"input"`

	// Definition selects a named pattern instead of the root one.
	Definition string `json:"definition"`
}

type matchResponse struct {
	Pattern string            `json:"pattern"`
	Matched bool              `json:"matched"`
	Match   string            `json:"match,omitempty"`
	Groups  map[string]string `json:"groups,omitempty"`
}

type errorItem struct {
	Code     int      `json:"code"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
	Col      int      `json:"col,omitempty"`
	Expected string   `json:"expected,omitempty"`
	Found    string   `json:"found,omitempty"`
	Names    []string `json:"names,omitempty"`
}

// NewRouter creates gin engine serving /healthz, /v1/compile, and /v1/match.
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	if opts.AccessLogger != nil {
		r.Use(requestLoggerWithColor(opts.AccessLogger, opts.Color))
	}
	r.Use(gin.Recovery())
	if opts.MaxBodyBytes > 0 {
		r.Use(bodyLimitMiddleware(opts.MaxBodyBytes))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	v1 := r.Group("/v1")
	v1.POST("/compile", makeCompileHandler(opts))
	v1.POST("/match", makeMatchHandler(opts))
	return r
}

func bodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func makeCompileHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req compileRequest
		if !bindRequest(c, &req) {
			return
		}

		res, ok := compileRequestSource(c, req, opts)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, compileResponse{
			Name:        res.Name,
			Pattern:     res.Pattern,
			Definitions: res.Definitions,
			Order:       res.Order,
			Unused:      res.Unused,
		})
	}
}

func makeMatchHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req matchRequest
		if !bindRequest(c, &req) {
			return
		}

		res, ok := compileRequestSource(c, req.compileRequest, opts)
		if !ok {
			return
		}

		pattern := res.Pattern
		if req.Definition != "" {
			var found bool
			pattern, found = res.Definitions[req.Definition]
			if !found {
				c.JSON(http.StatusNotFound, gin.H{"error": "no definition ." + req.Definition})
				return
			}
		} else if !res.HasRoot() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "source has no top-level pattern, set definition"})
			return
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resp := matchResponse{Pattern: pattern}
		m := re.FindStringSubmatch(req.Input)
		if m != nil {
			resp.Matched = true
			resp.Match = m[0]
			for i, name := range re.SubexpNames() {
				if name != "" {
					if resp.Groups == nil {
						resp.Groups = map[string]string{}
					}
					resp.Groups[name] = m[i]
				}
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func bindRequest(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
	}
	return false
}

func compileRequestSource(c *gin.Context, req compileRequest, opts Options) (*compiler.Result, bool) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultSourceName
	}
	c.Set(ctxSourceName, name)

	res, err := compiler.Compile(name, req.Source, opts.Compiler)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorItems(err)})
		return nil, false
	}
	return res, true
}

func errorItems(err error) []errorItem {
	list := diag.Errors(err)
	if len(list) == 0 {
		return []errorItem{{Message: err.Error()}}
	}

	res := make([]errorItem, len(list))
	for i, me := range list {
		res[i] = errorItem{
			Code:     me.Code,
			Message:  me.Message,
			Line:     me.Line,
			Col:      me.Col,
			Expected: me.Expected,
			Found:    me.Found,
			Names:    me.Names,
		}
	}
	return res
}

// Run serves until ctx is done, then shuts the server down gracefully.
func Run(ctx context.Context, listen string, opts Options) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("melody server listening: addr=%q max_body_bytes=%d", listen, opts.MaxBodyBytes)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Printf("melody server stopped: addr=%q", listen)
		return nil
	}
}
