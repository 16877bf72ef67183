package storage

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/steakhouse-fi/sizzle/pkg/phases"
)

type LeaderboardStore interface {
	// Participants are upserted wholesale from each feed snapshot.
	UpsertParticipants(participants []*Participant) (int, error)
	GetParticipant(address string) (*Participant, error)
	ListParticipants() ([]*Participant, error)
	ListActiveParticipants() ([]*Participant, error)
	ListTopByStake(limit int) ([]*Participant, error)

	// Phase membership. RecordJoin fails on duplicates: one explicit join
	// per (address, phase).
	RecordJoin(membership *PhaseMembership) (*PhaseMembership, error)
	GetMembership(address string, phaseNumber uint64) (*PhaseMembership, error)
	ListMembershipsForPhase(phaseNumber uint64) ([]*PhaseMembership, error)
	UpdateMembershipStates(phaseNumber uint64, addresses []string, state phases.MembershipState) error
	MarkMembershipActivity(phaseNumber uint64, address string, stakeTx bool, unstaked bool) error

	// Allocation records are written once per phase and immutable after.
	InsertAllocationRecords(records []*AllocationRecord) error
	ListAllocationsForPhase(phaseNumber uint64) ([]*AllocationRecord, error)
	PhaseAllocated(phaseNumber uint64) (bool, error)

	// Settlement markers. A phase settles exactly once, including phases
	// that settle with an empty population and therefore no records.
	MarkPhaseSettled(settlement *PhaseSettlement) error
	PhaseSettled(phaseNumber uint64) (bool, error)
}

// Tables.

// Participant is the canonical record, validated once at the snapshot
// boundary. Tier is deliberately absent: it is derived from these facts on
// every read. Grade/Rank/Percentile from the feed are advisory only.
type Participant struct {
	Address             string `gorm:"primaryKey"`
	TotalStaked         decimal.Decimal
	FirstStakeTime      *time.Time
	IsActive            bool
	StakeCount          uint64
	UnstakeCount        uint64
	ReferralBonusPoints decimal.Decimal
	PreWeightedShare    *decimal.Decimal
	AdvisoryGrade       string
	AdvisoryRank        uint64
	AdvisoryPercentile  float64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HoldingDays is derived on read, never stored. Absent or future
// first-stake timestamps yield zero.
func (p *Participant) HoldingDays(now time.Time) float64 {
	if p.FirstStakeTime == nil {
		return 0
	}
	days := now.Sub(*p.FirstStakeTime).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

// EverUnstaked implements the conservative reading of the Genesis OG
// clean-history requirement: any unstake event, partial or full,
// disqualifies.
func (p *Participant) EverUnstaked() bool {
	return p.UnstakeCount > 0
}

type PhaseMembership struct {
	Id          string `gorm:"primaryKey"`
	Address     string `gorm:"uniqueIndex:idx_membership_address_phase"`
	PhaseNumber uint64 `gorm:"uniqueIndex:idx_membership_address_phase"`
	State       phases.MembershipState
	JoinedAt    time.Time

	// Facts for the phase upgrade path, recorded as they happen.
	JoinedWithin24h     bool
	StakeTxDuringPhase  bool
	UnstakedDuringPhase bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PhaseSettlement marks that a phase's allocation run completed. It is
// separate from allocation records so an empty-population phase still
// settles instead of being retried on every cutoff check.
type PhaseSettlement struct {
	PhaseNumber     uint64 `gorm:"primaryKey"`
	EmptyPopulation bool
	SettledAt       time.Time
	CreatedAt       time.Time
}

type AllocationRecord struct {
	Id           string `gorm:"primaryKey"`
	PhaseNumber  uint64 `gorm:"uniqueIndex:idx_allocation_phase_address"`
	Address      string `gorm:"uniqueIndex:idx_allocation_phase_address"`
	SharePercent decimal.Decimal
	TokenAmount  decimal.Decimal
	TotalPoints  decimal.Decimal
	StakeRank    int
	ScoreRank    int
	CalculatedAt time.Time
	CreatedAt    time.Time
}
