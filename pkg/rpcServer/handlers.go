package rpcServer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/steakhouse-fi/sizzle/internal/version"
	"github.com/steakhouse-fi/sizzle/pkg/engine"
	"github.com/steakhouse-fi/sizzle/pkg/phases"
	"github.com/steakhouse-fi/sizzle/pkg/tiers"
)

const defaultLeaderboardLimit = 100
const maxLeaderboardLimit = 1000

type standingResponse struct {
	Address         string  `json:"address"`
	Tier            string  `json:"tier"`
	Grade           string  `json:"grade"`
	Level           string  `json:"level"`
	Multiplier      string  `json:"multiplier"`
	TotalStaked     string  `json:"total_staked"`
	HoldingDays     float64 `json:"holding_days"`
	IsActive        bool    `json:"is_active"`
	MembershipState string  `json:"membership_state"`
	BasePoints      string  `json:"base_points"`
	ReferralBonus   string  `json:"referral_bonus"`
	ReferralLevel1  string  `json:"referral_level1"`
	ReferralLevel2  string  `json:"referral_level2"`
	TotalPoints     string  `json:"total_points"`
	PointsPerSecond string  `json:"points_per_second"`
}

func standingToResponse(st *engine.Standing) *standingResponse {
	return &standingResponse{
		Address:         st.Address,
		Tier:            st.TierName,
		Grade:           st.Grade,
		Level:           st.Level.String(),
		Multiplier:      st.Multiplier.String(),
		TotalStaked:     st.TotalStaked.String(),
		HoldingDays:     st.HoldingDays,
		IsActive:        st.IsActive,
		MembershipState: string(st.MembershipState),
		BasePoints:      st.Breakdown.BasePoints.String(),
		ReferralBonus:   st.Breakdown.ReferralBonus.String(),
		ReferralLevel1:  st.Breakdown.ReferralLevel1.String(),
		ReferralLevel2:  st.Breakdown.ReferralLevel2.String(),
		TotalPoints:     st.Breakdown.TotalPoints.String(),
		PointsPerSecond: st.Breakdown.PointsPerSecond.String(),
	}
}

func (s *RpcServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}

func (s *RpcServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	standings, err := s.allocationEngine.GetLeaderboard(limit)
	if err != nil {
		s.Logger.Sugar().Errorw("Failed to build leaderboard", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to build leaderboard")
		return
	}

	entries := make([]*standingResponse, 0, len(standings))
	for _, st := range standings {
		entries = append(entries, standingToResponse(st))
	}
	s.writeJson(w, http.StatusOK, map[string]any{
		"total_rows":  len(entries),
		"leaderboard": entries,
	})
}

func (s *RpcServer) handleParticipant(w http.ResponseWriter, r *http.Request) {
	address := strings.ToLower(strings.TrimSpace(r.PathValue("address")))
	if address == "" {
		s.writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	standing, err := s.allocationEngine.GetParticipantStanding(address)
	if err != nil {
		s.Logger.Sugar().Errorw("Failed to load participant standing", "address", address, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load participant")
		return
	}
	s.writeJson(w, http.StatusOK, standingToResponse(standing))
}

type phaseResponse struct {
	Number     uint64 `json:"number"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	RewardPool string `json:"reward_pool"`
	Ended      bool   `json:"ended"`
	Allocated  bool   `json:"allocated"`
}

func (s *RpcServer) phaseToResponse(p *phases.Phase) *phaseResponse {
	allocated, err := s.store.PhaseAllocated(p.Number)
	if err != nil {
		allocated = false
	}
	return &phaseResponse{
		Number:     p.Number,
		StartTime:  p.StartTime.Format(time.RFC3339),
		EndTime:    p.EndTime.Format(time.RFC3339),
		RewardPool: p.RewardPool.String(),
		Ended:      p.EndedBy(time.Now().UTC()),
		Allocated:  allocated,
	}
}

func (s *RpcServer) handlePhases(w http.ResponseWriter, r *http.Request) {
	responses := make([]*phaseResponse, 0)
	for _, p := range s.registry.All() {
		responses = append(responses, s.phaseToResponse(p))
	}
	s.writeJson(w, http.StatusOK, map[string]any{"phases": responses})
}

func (s *RpcServer) parsePhaseNumber(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := r.PathValue("number")
	number, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || number == 0 {
		s.writeError(w, http.StatusBadRequest, "phase number must be a positive integer")
		return 0, false
	}
	return number, true
}

func (s *RpcServer) handlePhase(w http.ResponseWriter, r *http.Request) {
	number, ok := s.parsePhaseNumber(w, r)
	if !ok {
		return
	}
	phase, err := s.registry.Get(number)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJson(w, http.StatusOK, s.phaseToResponse(phase))
}

type allocationResponse struct {
	Address      string `json:"address"`
	SharePercent string `json:"share_percent"`
	TokenAmount  string `json:"token_amount"`
	TotalPoints  string `json:"total_points"`
	StakeRank    int    `json:"stake_rank"`
	ScoreRank    int    `json:"score_rank"`
	CalculatedAt string `json:"calculated_at"`
}

func (s *RpcServer) handlePhaseAllocations(w http.ResponseWriter, r *http.Request) {
	number, ok := s.parsePhaseNumber(w, r)
	if !ok {
		return
	}
	if _, err := s.registry.Get(number); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	records, err := s.store.ListAllocationsForPhase(number)
	if err != nil {
		s.Logger.Sugar().Errorw("Failed to list allocations", "phaseNumber", number, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list allocations")
		return
	}

	responses := make([]*allocationResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, &allocationResponse{
			Address:      record.Address,
			SharePercent: record.SharePercent.String(),
			TokenAmount:  record.TokenAmount.String(),
			TotalPoints:  record.TotalPoints.String(),
			StakeRank:    record.StakeRank,
			ScoreRank:    record.ScoreRank,
			CalculatedAt: record.CalculatedAt.UTC().Format(time.RFC3339),
		})
	}
	s.writeJson(w, http.StatusOK, map[string]any{
		"phase_number": number,
		"allocations":  responses,
	})
}

type joinRequest struct {
	Address string `json:"address"`
}

func (s *RpcServer) handleJoin(w http.ResponseWriter, r *http.Request) {
	number, ok := s.parsePhaseNumber(w, r)
	if !ok {
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	address := strings.ToLower(strings.TrimSpace(req.Address))
	if address == "" {
		s.writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	membership, err := s.allocationEngine.JoinPhase(address, number)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrUnknownPhase):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, engine.ErrAlreadyJoined):
			s.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, engine.ErrOutsideJoinWindow):
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.Logger.Sugar().Errorw("Failed to record join", "address", address, "phaseNumber", number, "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to record join")
		}
		return
	}

	s.writeJson(w, http.StatusCreated, map[string]any{
		"address":           membership.Address,
		"phase_number":      membership.PhaseNumber,
		"state":             string(membership.State),
		"joined_at":         membership.JoinedAt.UTC().Format(time.RFC3339),
		"joined_within_24h": membership.JoinedWithin24h,
	})
}

func (s *RpcServer) handleStats(w http.ResponseWriter, r *http.Request) {
	participants, err := s.store.ListParticipants()
	if err != nil {
		s.Logger.Sugar().Errorw("Failed to list participants for stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	standings, err := s.allocationEngine.GetLeaderboard(maxLeaderboardLimit)
	if err != nil {
		s.Logger.Sugar().Errorw("Failed to derive standings for stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	tierCounts := make(map[string]int, len(tiers.AllTiers))
	for _, t := range tiers.AllTiers {
		tierCounts[t.String()] = 0
	}
	for _, st := range standings {
		tierCounts[st.TierName]++
	}

	active := 0
	totalStaked := decimal.Zero
	activeStaked := decimal.Zero
	for _, p := range participants {
		totalStaked = totalStaked.Add(p.TotalStaked)
		if p.IsActive {
			active++
			activeStaked = activeStaked.Add(p.TotalStaked)
		}
	}

	// Average is over active participants only; jeeted stakes would drag
	// it toward zero without meaning anything.
	averageStake := decimal.Zero
	if active > 0 {
		averageStake = activeStaked.Div(decimal.NewFromInt(int64(active)))
	}

	response := map[string]any{
		"total_participants":  len(participants),
		"active_participants": active,
		"jeeted_participants": len(participants) - active,
		"total_staked":        totalStaked.String(),
		"average_stake":       averageStake.String(),
		"tier_distribution":   tierCounts,
	}
	if last := s.lastSnapshotRefresh.Load(); last > 0 {
		response["last_snapshot_refresh"] = time.Unix(last, 0).UTC().Format(time.RFC3339)
	}
	if currentPhase, ok := s.registry.PhaseAt(time.Now().UTC()); ok {
		response["current_phase"] = currentPhase.Number
	}
	s.writeJson(w, http.StatusOK, response)
}
