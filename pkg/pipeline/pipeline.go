package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/metrics"
	"github.com/steakhouse-fi/sizzle/internal/metrics/metricsTypes"
	"github.com/steakhouse-fi/sizzle/pkg/allocationQueue"
	"github.com/steakhouse-fi/sizzle/pkg/eventBus/eventBusTypes"
	"github.com/steakhouse-fi/sizzle/pkg/fetcher"
	"github.com/steakhouse-fi/sizzle/pkg/phases"
	"github.com/steakhouse-fi/sizzle/pkg/scoring"
	"github.com/steakhouse-fi/sizzle/pkg/storage"
	"go.uber.org/zap"
)

// cutoffCheckInterval bounds how stale an unallocated ended phase can
// get. The refresh job runs on the configured feed interval; cutoff
// detection is cheap and runs more often.
const cutoffCheckInterval = time.Minute

// SnapshotPipeline drives the two recurring jobs: pulling the upstream
// leaderboard snapshot into the store, and enqueueing allocation runs
// for phases whose windows have closed.
type SnapshotPipeline struct {
	logger       *zap.Logger
	globalConfig *config.Config
	feedClient   *fetcher.FeedClient
	store        storage.LeaderboardStore
	registry     *phases.Registry
	cache        *scoring.ScoreCache
	queue        *allocationQueue.AllocationQueue
	eventBus     eventBusTypes.IEventBus
	metricsSink  *metrics.MetricsSink

	scheduler gocron.Scheduler
}

func NewSnapshotPipeline(
	l *zap.Logger,
	cfg *config.Config,
	feedClient *fetcher.FeedClient,
	store storage.LeaderboardStore,
	registry *phases.Registry,
	cache *scoring.ScoreCache,
	queue *allocationQueue.AllocationQueue,
	eb eventBusTypes.IEventBus,
	sink *metrics.MetricsSink,
) *SnapshotPipeline {
	return &SnapshotPipeline{
		logger:       l,
		globalConfig: cfg,
		feedClient:   feedClient,
		store:        store,
		registry:     registry,
		cache:        cache,
		queue:        queue,
		eventBus:     eb,
		metricsSink:  sink,
	}
}

// RefreshSnapshot pulls the current leaderboard, validates it and
// replaces the stored participant set. Phase activity flags are latched
// before the upsert by diffing stake and unstake counters against the
// previous snapshot.
func (sp *SnapshotPipeline) RefreshSnapshot(ctx context.Context) error {
	startedAt := time.Now()
	fetchedAt := time.Now().UTC()

	response, err := sp.feedClient.FetchLeaderboard(ctx)
	if err != nil {
		return fmt.Errorf("snapshot refresh failed: %w", err)
	}

	participants, rejected := sp.feedClient.ConvertRows(response.Leaderboard, fetchedAt)

	if currentPhase, ok := sp.registry.PhaseAt(fetchedAt); ok {
		if err := sp.latchPhaseActivity(currentPhase.Number, participants); err != nil {
			sp.logger.Sugar().Errorw("Failed to latch phase activity", zap.Error(err))
		}
	}

	accepted, err := sp.store.UpsertParticipants(participants)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	// The facts changed wholesale; cached breakdowns are all stale now.
	sp.cache.Purge()

	active := 0
	for _, p := range participants {
		if p.IsActive {
			active++
		}
	}

	if sp.metricsSink != nil {
		_ = sp.metricsSink.Incr(metricsTypes.Metric_Incr_SnapshotRefreshed, nil, 1)
		_ = sp.metricsSink.Incr(metricsTypes.Metric_Incr_SnapshotRowsRejected, nil, float64(rejected))
		_ = sp.metricsSink.Gauge(metricsTypes.Metric_Gauge_TotalParticipants, float64(accepted), nil)
		_ = sp.metricsSink.Gauge(metricsTypes.Metric_Gauge_ActiveParticipants, float64(active), nil)
		_ = sp.metricsSink.Timing(metricsTypes.Metric_Timing_SnapshotRefreshDuration, time.Since(startedAt), nil)
	}
	if sp.eventBus != nil {
		sp.eventBus.Publish(&eventBusTypes.Event{
			Name: eventBusTypes.Event_SnapshotRefreshed,
			Data: &eventBusTypes.SnapshotRefreshedData{
				FetchedAt: fetchedAt,
				TotalRows: response.TotalRows,
				Accepted:  accepted,
				Rejected:  rejected,
			},
		})
	}

	sp.logger.Sugar().Infow("Refreshed leaderboard snapshot",
		zap.Int("accepted", accepted),
		zap.Int("rejected", rejected),
		zap.Int("active", active),
	)
	return nil
}

// latchPhaseActivity compares incoming counters with the stored ones and
// records stake/unstake activity on current-phase memberships. Only
// participants that actually joined the phase carry a membership row to
// update.
func (sp *SnapshotPipeline) latchPhaseActivity(phaseNumber uint64, incoming []*storage.Participant) error {
	for _, p := range incoming {
		existing, err := sp.store.GetParticipant(p.Address)
		if err != nil {
			return err
		}
		if existing == nil {
			continue
		}

		stakeTx := p.StakeCount > existing.StakeCount
		unstaked := p.UnstakeCount > existing.UnstakeCount
		if !stakeTx && !unstaked {
			continue
		}

		membership, err := sp.store.GetMembership(p.Address, phaseNumber)
		if err != nil {
			return err
		}
		if membership == nil {
			continue
		}

		if err := sp.store.MarkMembershipActivity(phaseNumber, p.Address, stakeTx, unstaked); err != nil {
			return err
		}
	}
	return nil
}

// CheckPhaseCutoffs enqueues an allocation run for every ended phase
// that has not settled yet. Settlement is tracked separately from
// allocation records, so a phase that settled with an empty population
// is not retried. The queue serializes the actual work, so enqueueing
// the same phase twice is harmless: the second run fails the
// already-settled check.
func (sp *SnapshotPipeline) CheckPhaseCutoffs() {
	now := time.Now().UTC()
	for _, phase := range sp.registry.EndedBy(now) {
		settled, err := sp.store.PhaseSettled(phase.Number)
		if err != nil {
			sp.logger.Sugar().Errorw("Failed to check phase settlement status",
				zap.Uint64("phaseNumber", phase.Number),
				zap.Error(err),
			)
			continue
		}
		if settled {
			continue
		}

		sp.logger.Sugar().Infow("Phase cutoff reached, enqueueing allocation",
			zap.Uint64("phaseNumber", phase.Number),
		)
		sp.queue.Enqueue(&allocationQueue.AllocationCalculationMessage{
			Data: allocationQueue.AllocationCalculationData{
				CalculationType: allocationQueue.AllocationCalculationType_CalculateAllocations,
				PhaseNumber:     phase.Number,
				AsOf:            now,
			},
		})
	}
}

// Start schedules the recurring jobs and runs an immediate first
// refresh.
func (sp *SnapshotPipeline) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	sp.scheduler = scheduler

	_, err = scheduler.NewJob(
		gocron.DurationJob(sp.globalConfig.FeedConfig.RefreshInterval),
		gocron.NewTask(func() {
			if err := sp.RefreshSnapshot(ctx); err != nil {
				sp.logger.Sugar().Errorw("Snapshot refresh failed", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule snapshot refresh: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cutoffCheckInterval),
		gocron.NewTask(func() {
			sp.CheckPhaseCutoffs()
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule cutoff check: %w", err)
	}

	scheduler.Start()

	if err := sp.RefreshSnapshot(ctx); err != nil {
		sp.logger.Sugar().Errorw("Initial snapshot refresh failed", zap.Error(err))
	}
	sp.CheckPhaseCutoffs()

	return nil
}

func (sp *SnapshotPipeline) Shutdown() error {
	if sp.scheduler == nil {
		return nil
	}
	return sp.scheduler.Shutdown()
}
