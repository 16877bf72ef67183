package daemon

import (
	"context"
	"sync/atomic"

	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/metrics"
	"github.com/steakhouse-fi/sizzle/pkg/allocationQueue"
	"github.com/steakhouse-fi/sizzle/pkg/engine"
	"github.com/steakhouse-fi/sizzle/pkg/eventBus/eventBusTypes"
	"github.com/steakhouse-fi/sizzle/pkg/phases"
	"github.com/steakhouse-fi/sizzle/pkg/pipeline"
	"github.com/steakhouse-fi/sizzle/pkg/rpcServer"
	"github.com/steakhouse-fi/sizzle/pkg/storage"
	"go.uber.org/zap"
)

// Daemon is the long-running process: the snapshot pipeline, the
// serialized allocation queue and the HTTP API, sharing one engine.
type Daemon struct {
	Logger         *zap.Logger
	GlobalConfig   *config.Config
	Storage        storage.LeaderboardStore
	Registry       *phases.Registry
	Engine         *engine.AllocationEngine
	Queue          *allocationQueue.AllocationQueue
	Pipeline       *pipeline.SnapshotPipeline
	EventBus       eventBusTypes.IEventBus
	MetricsSink    *metrics.MetricsSink
	ShutdownChan   chan bool
	shouldShutdown *atomic.Bool
}

func NewDaemon(
	cfg *config.Config,
	s storage.LeaderboardStore,
	registry *phases.Registry,
	ae *engine.AllocationEngine,
	queue *allocationQueue.AllocationQueue,
	p *pipeline.SnapshotPipeline,
	eb eventBusTypes.IEventBus,
	sink *metrics.MetricsSink,
	l *zap.Logger,
) *Daemon {
	shouldShutdown := &atomic.Bool{}
	shouldShutdown.Store(false)
	return &Daemon{
		Logger:         l,
		GlobalConfig:   cfg,
		Storage:        s,
		Registry:       registry,
		Engine:         ae,
		Queue:          queue,
		Pipeline:       p,
		EventBus:       eb,
		MetricsSink:    sink,
		ShutdownChan:   make(chan bool),
		shouldShutdown: shouldShutdown,
	}
}

// WithRpcServer starts the HTTP API. rpcChannel receives the shutdown
// signal forwarded by the caller.
func (d *Daemon) WithRpcServer(ctx context.Context, rpcChannel chan bool) error {
	rpc := rpcServer.NewRpcServer(&rpcServer.RpcServerConfig{
		HttpPort: d.GlobalConfig.RpcConfig.HttpPort,
	}, d.GlobalConfig, d.Engine, d.Storage, d.Registry, d.EventBus, d.MetricsSink, d.Logger)

	return rpc.Start(ctx, rpcChannel)
}

func (d *Daemon) Start(ctx context.Context) {
	d.Logger.Info("Starting sizzle daemon")

	go func() {
		for range d.ShutdownChan {
			d.Logger.Sugar().Infow("Received shutdown signal")
			d.shouldShutdown.Store(true)

			if err := d.Pipeline.Shutdown(); err != nil {
				d.Logger.Sugar().Errorw("Failed to shut down pipeline", zap.Error(err))
			}
			d.Queue.Close()
		}
	}()

	go d.Queue.Process()

	if err := d.Pipeline.Start(ctx); err != nil {
		d.Logger.Sugar().Fatalw("Failed to start snapshot pipeline", zap.Error(err))
	}
}
