package allocationQueue

import (
	"time"

	"github.com/steakhouse-fi/sizzle/pkg/allocation"
	"github.com/steakhouse-fi/sizzle/pkg/engine"
	"go.uber.org/zap"
)

type AllocationCalculationType string

var (
	AllocationCalculationType_CalculateAllocations AllocationCalculationType = "calculateAllocations"
)

type AllocationCalculationData struct {
	CalculationType AllocationCalculationType

	// PhaseNumber 0 means "oldest ended phase not yet allocated".
	PhaseNumber uint64
	AsOf        time.Time
}

type AllocationCalculationMessage struct {
	Data         AllocationCalculationData
	ResponseChan chan *AllocationCalculatorResponse
}

type AllocationCalculatorResponseData struct {
	PhaseNumber uint64
	Result      *allocation.Result
}

type AllocationCalculatorResponse struct {
	Data  *AllocationCalculatorResponseData
	Error error
}

// AllocationQueue serializes allocation runs. Allocation is effectful
// (records are written exactly once per phase), so concurrent callers
// from the scheduler and the CLI funnel through one worker.
type AllocationQueue struct {
	logger           *zap.Logger
	allocationEngine *engine.AllocationEngine
	queue            chan *AllocationCalculationMessage
	done             chan struct{}
}
