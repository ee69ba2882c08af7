// Package api serves the staking data of every configured chain over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"validator-explorer/internal/collector"
	"validator-explorer/internal/events"
	"validator-explorer/internal/logging"
	"validator-explorer/internal/rewards"
	"validator-explorer/internal/snapshot"
	"validator-explorer/internal/useractions"
	"validator-explorer/internal/validators"
)

// Chain carries the services of one chain.
type Chain struct {
	Alias      string // DOT, KSM, WND
	Name       string // Polkadot, Kusama, Westend
	Validators *validators.Engine
	Rewards    *rewards.Engine
	Events     *events.Service
}

// Options for creating Server.
type Options struct {
	Chains    []*Chain
	Snapshots *snapshot.Reader
	Collector *collector.Runner
	Actions   *useractions.Service
	Feed      *EraFeed // Default: a new feed nobody publishes into

	CORSOrigins []string
	ServeWWW    bool
	WWWDir      string

	Log *logrus.Entry
}

// Server defines an instance of the HTTP API.
type Server struct {
	chains    map[string]*Chain
	snapshots *snapshot.Reader
	collector *collector.Runner
	actions   *useractions.Service
	feed      *EraFeed
	engine    *gin.Engine
	log       *logrus.Entry
}

// New returns a new Server with every route registered.
func New(opts Options) *Server {
	feed := opts.Feed
	if feed == nil {
		feed = NewEraFeed()
	}

	s := &Server{
		chains:    make(map[string]*Chain, len(opts.Chains)),
		snapshots: opts.Snapshots,
		collector: opts.Collector,
		actions:   opts.Actions,
		feed:      feed,
		engine:    gin.New(),
		log:       logging.OrDefault(opts.Log),
	}
	for _, c := range opts.Chains {
		s.chains[strings.ToUpper(c.Alias)] = c
	}

	s.engine.Use(gin.Recovery(), requestLogger(s.log), cors(opts.CORSOrigins))
	s.registerRouter()
	if opts.ServeWWW {
		s.engine.NoRoute(serveStatic(opts.WWWDir))
	}
	return s
}

func (s *Server) registerRouter() {
	s.engine.GET("/health", s.handle(s.health))

	v1 := s.engine.Group("/api/v1")
	v1.GET("/validators/:chain", s.withChain(), s.handle(s.allValidators))

	actions := s.engine.Group("/api/actions")
	actions.POST("/nomination/result", s.handle(s.recordNominationResult))
	actions.GET("/nomination/:stash", s.handle(s.nominationRecord))
	actions.POST("/refKey/:stash", s.handle(s.issueRefKey))
	actions.GET("/refKey/:stash", s.handle(s.refKey))
	actions.GET("/decodeRefKey/:key", s.handle(s.decodeRefKey))
	actions.POST("/newsletter", s.handle(s.subscribe))

	g := s.engine.Group("/api/:chain", s.withChain())

	g.GET("/allValidators", s.handle(s.allValidators))
	g.GET("/validators", s.handle(s.snapshotValidators))
	g.GET("/validDetail", s.handle(s.validDetail))
	g.GET("/valid", s.handle(s.oneKV))
	g.GET("/nominators", s.handle(s.snapshotNominators))
	g.GET("/1kv/nominators", s.handle(s.oneKVNominators))
	g.GET("/nominated/stash/:stash", s.handle(s.nominatedValidators))
	g.GET("/nominator/:stash", s.handle(s.nominatorInfo))

	g.GET("/validator/:stash/trend", s.handle(s.validatorTrend))
	g.GET("/validator/:stash/unclaimedEras", s.handle(s.unclaimedEras))
	g.GET("/validator/:stash/slashes", s.handle(s.validatorSlashes))
	g.GET("/slashes", s.handle(s.slashes))

	g.GET("/events/commissions", s.handle(s.commissionChanges))
	g.GET("/events/stalePayouts", s.handle(s.stalePayouts))
	g.GET("/stash/:stash/inactive", s.handle(s.inactiveEras))
	g.GET("/stash/:stash/events", s.handle(s.userEvents))

	g.GET("/stash/:stash/rewards", s.handle(s.stashRewards))
	g.GET("/stash/:stash/rewards/collector", s.handle(s.collectRewards))
	g.GET("/stash/:stash/rewards/collector/csv", s.handle(s.rewardsReport(collector.FormatCSV)))
	g.GET("/stash/:stash/rewards/collector/json", s.handle(s.rewardsReport(collector.FormatJSON)))

	g.GET("/era", s.handle(s.era))
	g.GET("/era/ws", s.eraFeed)

	g.POST("/nomination", s.handle(s.recordNomination))
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("api server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve api: %w", err)
	}
	return nil
}

type healthResp struct {
	Status string   `json:"status"`
	Chains []string `json:"chains"`
}

func (s *Server) health(_ *gin.Context) (any, error) {
	chains := make([]string, 0, len(s.chains))
	for alias := range s.chains {
		chains = append(chains, alias)
	}
	sort.Strings(chains)
	return &healthResp{Status: "ok", Chains: chains}, nil
}
