package rpcServer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/cors"
	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/metrics"
	"github.com/steakhouse-fi/sizzle/internal/metrics/metricsTypes"
	"github.com/steakhouse-fi/sizzle/pkg/engine"
	"github.com/steakhouse-fi/sizzle/pkg/eventBus/eventBusTypes"
	"github.com/steakhouse-fi/sizzle/pkg/phases"
	"github.com/steakhouse-fi/sizzle/pkg/storage"
	"go.uber.org/zap"
)

type RpcServerConfig struct {
	HttpPort int
}

type RpcServer struct {
	Logger           *zap.Logger
	rpcConfig        *RpcServerConfig
	globalConfig     *config.Config
	allocationEngine *engine.AllocationEngine
	store            storage.LeaderboardStore
	registry         *phases.Registry
	metricsSink      *metrics.MetricsSink
	eventBus         eventBusTypes.IEventBus

	// Unix seconds of the last successful snapshot refresh, 0 if none yet.
	lastSnapshotRefresh atomic.Int64

	httpServer *http.Server
}

func NewRpcServer(
	rpcConfig *RpcServerConfig,
	cfg *config.Config,
	ae *engine.AllocationEngine,
	store storage.LeaderboardStore,
	registry *phases.Registry,
	eb eventBusTypes.IEventBus,
	sink *metrics.MetricsSink,
	l *zap.Logger,
) *RpcServer {
	return &RpcServer{
		Logger:           l,
		rpcConfig:        rpcConfig,
		globalConfig:     cfg,
		allocationEngine: ae,
		store:            store,
		registry:         registry,
		eventBus:         eb,
		metricsSink:      sink,
	}
}

// watchSnapshotRefreshes keeps the last-refresh timestamp current so the
// stats endpoint can report snapshot freshness.
func (s *RpcServer) watchSnapshotRefreshes(ctx context.Context) {
	consumer := &eventBusTypes.Consumer{
		Id:      "rpcServer",
		Context: ctx,
		Channel: make(chan *eventBusTypes.Event, 100),
	}
	s.eventBus.Subscribe(consumer)

	go func() {
		defer s.eventBus.Unsubscribe(consumer)
		for {
			select {
			case event := <-consumer.Channel:
				if event.Name != eventBusTypes.Event_SnapshotRefreshed {
					continue
				}
				if data, ok := event.Data.(*eventBusTypes.SnapshotRefreshedData); ok {
					s.lastSnapshotRefresh.Store(data.FetchedAt.Unix())
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *RpcServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", s.instrument("/v1/health", s.handleHealth))
	mux.HandleFunc("GET /v1/leaderboard", s.instrument("/v1/leaderboard", s.handleLeaderboard))
	mux.HandleFunc("GET /v1/participants/{address}", s.instrument("/v1/participants", s.handleParticipant))
	mux.HandleFunc("GET /v1/phases", s.instrument("/v1/phases", s.handlePhases))
	mux.HandleFunc("GET /v1/phases/{number}", s.instrument("/v1/phases/detail", s.handlePhase))
	mux.HandleFunc("GET /v1/phases/{number}/allocations", s.instrument("/v1/phases/allocations", s.handlePhaseAllocations))
	mux.HandleFunc("POST /v1/phases/{number}/join", s.instrument("/v1/phases/join", s.handleJoin))
	mux.HandleFunc("GET /v1/stats", s.instrument("/v1/stats", s.handleStats))

	return cors.Default().Handler(mux)
}

// instrument wraps a handler with request count and latency metrics,
// labeled by route pattern rather than raw path.
func (s *RpcServer) instrument(route string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		handler(w, r)
		if s.metricsSink != nil {
			labels := []metricsTypes.MetricsLabel{{Name: "path", Value: route}}
			_ = s.metricsSink.Incr(metricsTypes.Metric_Incr_HttpRequest, labels, 1)
			_ = s.metricsSink.Timing(metricsTypes.Metric_Timing_HttpDuration, time.Since(startedAt), labels)
		}
	}
}

func (s *RpcServer) Start(ctx context.Context, shutdownChan chan bool) error {
	if s.eventBus != nil {
		s.watchSnapshotRefreshes(ctx)
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.rpcConfig.HttpPort),
		Handler: s.routes(),
	}

	go func() {
		s.Logger.Sugar().Infow("Starting HTTP RPC server", zap.Int("port", s.rpcConfig.HttpPort))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Sugar().Errorw("HTTP RPC server failed", zap.Error(err))
		}
	}()

	go func() {
		<-shutdownChan
		s.Logger.Sugar().Infow("Shutting down HTTP RPC server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.Logger.Sugar().Errorw("Failed to shut down HTTP RPC server", zap.Error(err))
		}
	}()

	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *RpcServer) writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Logger.Sugar().Errorw("Failed to encode response", zap.Error(err))
	}
}

func (s *RpcServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJson(w, status, &errorResponse{Error: message})
}
