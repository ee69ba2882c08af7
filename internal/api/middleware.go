package api

import (
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"validator-explorer/internal/observability"
	"validator-explorer/internal/ss58"
)

const chainKey = "chain"

type handlerFunc func(c *gin.Context) (any, error)

// handle writes the result of fn as JSON, or its error as an error body.
// Handlers that write the response themselves return a nil result.
func (s *Server) handle(fn handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := fn(c)
		if err != nil {
			s.abort(c, err)
			return
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) abort(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.WithFields(logrus.Fields{
			"route": c.FullPath(),
			"error": err,
		}).Error("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

// withChain resolves the :chain path parameter, case-insensitively.
func (s *Server) withChain() gin.HandlerFunc {
	return func(c *gin.Context) {
		alias := strings.ToUpper(c.Param("chain"))
		chain, ok := s.chains[alias]
		if !ok {
			s.abort(c, errors.Wrapf(errUnknownChain, "chain %q", c.Param("chain")))
			return
		}
		c.Set(chainKey, chain)
		c.Next()
	}
}

func chainOf(c *gin.Context) *Chain {
	return c.MustGet(chainKey).(*Chain)
}

// stashParam returns the :stash path parameter if it is an SS58 address.
func stashParam(c *gin.Context) (string, error) {
	stash := c.Param("stash")
	if !ss58.Valid(stash) {
		return "", errors.Wrapf(errInvalidStash, "%q", stash)
	}
	return stash, nil
}

// requestLogger logs every request through logrus and records its metrics.
func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		observability.RecordHTTPRequest(route, strconv.Itoa(status), elapsed.Seconds())

		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": elapsed,
		}).Debug("request served")
	}
}

var corsHeaders = strings.Join([]string{
	"User-Agent",
	"Sec-Fetch-Mode",
	"Referer",
	"Origin",
	"Access-Control-Request-Method",
	"Access-Control-Request-Headers",
	"Content-Type",
}, ", ")

// cors allows the configured origins. "*" allows any origin.
func cors(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// toolPaths are the front-end pages served from the static directory.
var toolPaths = []string{
	"/tools/validatorStatus",
	"/tools/ksmVN",
	"/tools/dotVN",
	"/tools/dotSR",
	"/tools/oneKValidatorsDot",
	"/tools/oneKValidators",
	"/tools",
	"/contact",
}

// serveStatic serves dir/static at the root and under every tool path.
func serveStatic(dir string) gin.HandlerFunc {
	files := http.FileServer(http.Dir(path.Join(dir, "static")))

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		p := c.Request.URL.Path
		for _, prefix := range toolPaths {
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				p = strings.TrimPrefix(p, prefix)
				break
			}
		}
		if p == "" {
			p = "/"
		}

		r := c.Request.Clone(c.Request.Context())
		r.URL.Path = p
		files.ServeHTTP(c.Writer, r)
	}
}
