package allocationQueue

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/logger"
	"github.com/steakhouse-fi/sizzle/pkg/allocation"
	"github.com/steakhouse-fi/sizzle/pkg/engine"
	"github.com/steakhouse-fi/sizzle/pkg/phases"
	"github.com/steakhouse-fi/sizzle/pkg/scoring"
	"github.com/steakhouse-fi/sizzle/pkg/storage"
	"github.com/stretchr/testify/assert"
)

// queueTestStore is the minimal store the queue tests need. Only the
// paths an allocation run touches are populated.
type queueTestStore struct {
	participants map[string]*storage.Participant
	memberships  map[string]*storage.PhaseMembership
	allocations  map[uint64][]*storage.AllocationRecord
	settlements  map[uint64]*storage.PhaseSettlement
}

func newQueueTestStore() *queueTestStore {
	return &queueTestStore{
		participants: make(map[string]*storage.Participant),
		memberships:  make(map[string]*storage.PhaseMembership),
		allocations:  make(map[uint64][]*storage.AllocationRecord),
		settlements:  make(map[uint64]*storage.PhaseSettlement),
	}
}

func storeKey(address string, phaseNumber uint64) string {
	return fmt.Sprintf("%s:%d", strings.ToLower(address), phaseNumber)
}

func (s *queueTestStore) UpsertParticipants(participants []*storage.Participant) (int, error) {
	for _, p := range participants {
		s.participants[strings.ToLower(p.Address)] = p
	}
	return len(participants), nil
}

func (s *queueTestStore) GetParticipant(address string) (*storage.Participant, error) {
	return s.participants[strings.ToLower(address)], nil
}

func (s *queueTestStore) ListParticipants() ([]*storage.Participant, error) {
	out := make([]*storage.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (s *queueTestStore) ListActiveParticipants() ([]*storage.Participant, error) {
	all, _ := s.ListParticipants()
	out := make([]*storage.Participant, 0, len(all))
	for _, p := range all {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *queueTestStore) ListTopByStake(limit int) ([]*storage.Participant, error) {
	out, _ := s.ListActiveParticipants()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *queueTestStore) RecordJoin(membership *storage.PhaseMembership) (*storage.PhaseMembership, error) {
	s.memberships[storeKey(membership.Address, membership.PhaseNumber)] = membership
	return membership, nil
}

func (s *queueTestStore) GetMembership(address string, phaseNumber uint64) (*storage.PhaseMembership, error) {
	return s.memberships[storeKey(address, phaseNumber)], nil
}

func (s *queueTestStore) ListMembershipsForPhase(phaseNumber uint64) ([]*storage.PhaseMembership, error) {
	out := make([]*storage.PhaseMembership, 0)
	for _, m := range s.memberships {
		if m.PhaseNumber == phaseNumber {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (s *queueTestStore) UpdateMembershipStates(phaseNumber uint64, addresses []string, state phases.MembershipState) error {
	for _, address := range addresses {
		if m, ok := s.memberships[storeKey(address, phaseNumber)]; ok {
			m.State = state
		}
	}
	return nil
}

func (s *queueTestStore) MarkMembershipActivity(phaseNumber uint64, address string, stakeTx bool, unstaked bool) error {
	return nil
}

func (s *queueTestStore) InsertAllocationRecords(records []*storage.AllocationRecord) error {
	if len(records) == 0 {
		return nil
	}
	phaseNumber := records[0].PhaseNumber
	if len(s.allocations[phaseNumber]) > 0 {
		return fmt.Errorf("phase %d is already allocated", phaseNumber)
	}
	s.allocations[phaseNumber] = records
	return nil
}

func (s *queueTestStore) ListAllocationsForPhase(phaseNumber uint64) ([]*storage.AllocationRecord, error) {
	return s.allocations[phaseNumber], nil
}

func (s *queueTestStore) PhaseAllocated(phaseNumber uint64) (bool, error) {
	return len(s.allocations[phaseNumber]) > 0, nil
}

func (s *queueTestStore) MarkPhaseSettled(settlement *storage.PhaseSettlement) error {
	if _, exists := s.settlements[settlement.PhaseNumber]; exists {
		return fmt.Errorf("phase %d is already settled", settlement.PhaseNumber)
	}
	s.settlements[settlement.PhaseNumber] = settlement
	return nil
}

func (s *queueTestStore) PhaseSettled(phaseNumber uint64) (bool, error) {
	_, exists := s.settlements[phaseNumber]
	return exists, nil
}

var queueTestLaunch = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestQueue(t *testing.T) (*AllocationQueue, *queueTestStore) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: os.Getenv(config.Debug) == "true"})
	assert.NoError(t, err)

	cfg := &config.Config{
		PhasesConfig: config.PhasesConfig{
			LaunchTime:   queueTestLaunch,
			Count:        6,
			DurationDays: 30,
			RewardPool:   decimal.RequireFromString(config.DefaultPhaseRewardPool),
		},
		ScoreCacheConfig: config.ScoreCacheConfig{Ttl: 5 * time.Minute},
	}

	registry, err := phases.NewRegistry(&cfg.PhasesConfig)
	assert.NoError(t, err)

	store := newQueueTestStore()
	ae := engine.NewAllocationEngine(
		l,
		cfg,
		store,
		registry,
		scoring.NewScoreCalculator(l),
		scoring.NewScoreCache(cfg.ScoreCacheConfig.Ttl, nil),
		allocation.NewDistributor(l),
		nil,
		nil,
	)
	return NewAllocationQueue(ae, l), store
}

func joinParticipant(store *queueTestStore, address string, staked string, phaseNumber uint64, firstStake time.Time, joinedAt time.Time) {
	store.participants[address] = &storage.Participant{
		Address:        address,
		TotalStaked:    decimal.RequireFromString(staked),
		FirstStakeTime: &firstStake,
		IsActive:       true,
		StakeCount:     1,
	}
	store.memberships[storeKey(address, phaseNumber)] = &storage.PhaseMembership{
		Id:          storeKey(address, phaseNumber),
		Address:     address,
		PhaseNumber: phaseNumber,
		State:       phases.MembershipState_Joined,
		JoinedAt:    joinedAt,
	}
}

func Test_EnqueueAndWait(t *testing.T) {
	phase2Start := queueTestLaunch.Add(30 * 24 * time.Hour)
	phase2End := queueTestLaunch.Add(60 * 24 * time.Hour)

	t.Run("explicit phase runs through the worker", func(t *testing.T) {
		queue, store := newTestQueue(t)
		go queue.Process()
		defer queue.Close()

		joinParticipant(store, "0xaaa", "1000000", 2, phase2End.Add(-35*24*time.Hour), phase2Start)

		response, err := queue.EnqueueAndWait(context.Background(), AllocationCalculationData{
			CalculationType: AllocationCalculationType_CalculateAllocations,
			PhaseNumber:     2,
			AsOf:            phase2End,
		})
		assert.NoError(t, err)
		assert.Equal(t, uint64(2), response.PhaseNumber)
		assert.Len(t, response.Result.Shares, 1)
		assert.True(t, response.Result.Shares[0].SharePercent.Equal(decimal.NewFromInt(100)))

		records, _ := store.ListAllocationsForPhase(2)
		assert.Len(t, records, 1)
	})

	t.Run("engine errors surface to the caller", func(t *testing.T) {
		queue, _ := newTestQueue(t)
		go queue.Process()
		defer queue.Close()

		_, err := queue.EnqueueAndWait(context.Background(), AllocationCalculationData{
			CalculationType: AllocationCalculationType_CalculateAllocations,
			PhaseNumber:     2,
			AsOf:            phase2Start.Add(time.Hour),
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "has not ended")
	})

	t.Run("unknown calculation type is rejected", func(t *testing.T) {
		queue, _ := newTestQueue(t)
		go queue.Process()
		defer queue.Close()

		_, err := queue.EnqueueAndWait(context.Background(), AllocationCalculationData{
			CalculationType: AllocationCalculationType("bogus"),
		})
		assert.Error(t, err)
	})
}
