package postgres

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/pkg/phases"
	"github.com/steakhouse-fi/sizzle/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresLeaderboardStore struct {
	Db           *gorm.DB
	Logger       *zap.Logger
	GlobalConfig *config.Config
}

func NewPostgresLeaderboardStore(db *gorm.DB, l *zap.Logger, cfg *config.Config) *PostgresLeaderboardStore {
	return &PostgresLeaderboardStore{
		Db:           db,
		Logger:       l,
		GlobalConfig: cfg,
	}
}

func (s *PostgresLeaderboardStore) UpsertParticipants(participants []*storage.Participant) (int, error) {
	if len(participants) == 0 {
		return 0, nil
	}
	for _, p := range participants {
		p.Address = strings.ToLower(p.Address)
	}

	res := s.Db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_staked",
			"first_stake_time",
			"is_active",
			"stake_count",
			"unstake_count",
			"referral_bonus_points",
			"pre_weighted_share",
			"advisory_grade",
			"advisory_rank",
			"advisory_percentile",
			"updated_at",
		}),
	}).Create(&participants)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to upsert participants: %w", res.Error)
	}
	return len(participants), nil
}

func (s *PostgresLeaderboardStore) GetParticipant(address string) (*storage.Participant, error) {
	var participant *storage.Participant
	res := s.Db.Model(&storage.Participant{}).
		Where("address = ?", strings.ToLower(address)).
		First(&participant)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return participant, nil
}

func (s *PostgresLeaderboardStore) ListParticipants() ([]*storage.Participant, error) {
	var participants []*storage.Participant
	res := s.Db.Model(&storage.Participant{}).Order("address asc").Find(&participants)
	if res.Error != nil {
		return nil, res.Error
	}
	return participants, nil
}

func (s *PostgresLeaderboardStore) ListActiveParticipants() ([]*storage.Participant, error) {
	var participants []*storage.Participant
	res := s.Db.Model(&storage.Participant{}).
		Where("is_active = ?", true).
		Order("address asc").
		Find(&participants)
	if res.Error != nil {
		return nil, res.Error
	}
	return participants, nil
}

// ListTopByStake is the leaderboard ordering: stake descending. Allocation
// ordering is score-based and computed elsewhere.
func (s *PostgresLeaderboardStore) ListTopByStake(limit int) ([]*storage.Participant, error) {
	var participants []*storage.Participant
	res := s.Db.Model(&storage.Participant{}).
		Where("is_active = ?", true).
		Order("total_staked desc").
		Order("address asc").
		Limit(limit).
		Find(&participants)
	if res.Error != nil {
		return nil, res.Error
	}
	return participants, nil
}

func (s *PostgresLeaderboardStore) RecordJoin(membership *storage.PhaseMembership) (*storage.PhaseMembership, error) {
	membership.Address = strings.ToLower(membership.Address)
	if membership.Id == "" {
		membership.Id = uuid.NewString()
	}

	res := s.Db.Model(&storage.PhaseMembership{}).Clauses(clause.Returning{}).Create(&membership)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to record join for '%s' phase %d: %w",
			membership.Address, membership.PhaseNumber, res.Error)
	}
	return membership, nil
}

func (s *PostgresLeaderboardStore) GetMembership(address string, phaseNumber uint64) (*storage.PhaseMembership, error) {
	var membership *storage.PhaseMembership
	res := s.Db.Model(&storage.PhaseMembership{}).
		Where("address = ? and phase_number = ?", strings.ToLower(address), phaseNumber).
		First(&membership)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return membership, nil
}

func (s *PostgresLeaderboardStore) ListMembershipsForPhase(phaseNumber uint64) ([]*storage.PhaseMembership, error) {
	var memberships []*storage.PhaseMembership
	res := s.Db.Model(&storage.PhaseMembership{}).
		Where("phase_number = ?", phaseNumber).
		Order("address asc").
		Find(&memberships)
	if res.Error != nil {
		return nil, res.Error
	}
	return memberships, nil
}

func (s *PostgresLeaderboardStore) UpdateMembershipStates(phaseNumber uint64, addresses []string, state phases.MembershipState) error {
	if len(addresses) == 0 {
		return nil
	}
	lowered := make([]string, 0, len(addresses))
	for _, a := range addresses {
		lowered = append(lowered, strings.ToLower(a))
	}

	res := s.Db.Model(&storage.PhaseMembership{}).
		Where("phase_number = ? and address in ?", phaseNumber, lowered).
		Updates(map[string]interface{}{
			"state":      state,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update membership states for phase %d: %w", phaseNumber, res.Error)
	}
	return nil
}

// MarkMembershipActivity latches staking activity onto a membership.
// Flags only ever go from false to true within a phase.
func (s *PostgresLeaderboardStore) MarkMembershipActivity(phaseNumber uint64, address string, stakeTx bool, unstaked bool) error {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if stakeTx {
		updates["stake_tx_during_phase"] = true
	}
	if unstaked {
		updates["unstaked_during_phase"] = true
	}
	if len(updates) == 1 {
		return nil
	}

	res := s.Db.Model(&storage.PhaseMembership{}).
		Where("phase_number = ? and address = ?", phaseNumber, strings.ToLower(address)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to mark membership activity for '%s' phase %d: %w", address, phaseNumber, res.Error)
	}
	return nil
}

// InsertAllocationRecords writes a phase's allocations exactly once.
// Records are immutable: re-running a phase is rejected up front.
func (s *PostgresLeaderboardStore) InsertAllocationRecords(records []*storage.AllocationRecord) error {
	if len(records) == 0 {
		return nil
	}
	phaseNumber := records[0].PhaseNumber

	allocated, err := s.PhaseAllocated(phaseNumber)
	if err != nil {
		return err
	}
	if allocated {
		return fmt.Errorf("phase %d is already allocated", phaseNumber)
	}

	for _, r := range records {
		r.Address = strings.ToLower(r.Address)
		if r.Id == "" {
			r.Id = uuid.NewString()
		}
	}

	res := s.Db.Create(&records)
	if res.Error != nil {
		return fmt.Errorf("failed to insert allocation records for phase %d: %w", phaseNumber, res.Error)
	}
	return nil
}

func (s *PostgresLeaderboardStore) ListAllocationsForPhase(phaseNumber uint64) ([]*storage.AllocationRecord, error) {
	var records []*storage.AllocationRecord
	res := s.Db.Model(&storage.AllocationRecord{}).
		Where("phase_number = ?", phaseNumber).
		Order("score_rank asc").
		Find(&records)
	if res.Error != nil {
		return nil, res.Error
	}
	return records, nil
}

func (s *PostgresLeaderboardStore) PhaseAllocated(phaseNumber uint64) (bool, error) {
	var count int64
	res := s.Db.Model(&storage.AllocationRecord{}).
		Where("phase_number = ?", phaseNumber).
		Count(&count)
	if res.Error != nil {
		return false, res.Error
	}
	return count > 0, nil
}

func (s *PostgresLeaderboardStore) MarkPhaseSettled(settlement *storage.PhaseSettlement) error {
	settled, err := s.PhaseSettled(settlement.PhaseNumber)
	if err != nil {
		return err
	}
	if settled {
		return fmt.Errorf("phase %d is already settled", settlement.PhaseNumber)
	}

	res := s.Db.Create(&settlement)
	if res.Error != nil {
		return fmt.Errorf("failed to mark phase %d settled: %w", settlement.PhaseNumber, res.Error)
	}
	return nil
}

func (s *PostgresLeaderboardStore) PhaseSettled(phaseNumber uint64) (bool, error) {
	var count int64
	res := s.Db.Model(&storage.PhaseSettlement{}).
		Where("phase_number = ?", phaseNumber).
		Count(&count)
	if res.Error != nil {
		return false, res.Error
	}
	return count > 0, nil
}
