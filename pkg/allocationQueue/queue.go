package allocationQueue

import (
	"context"

	"github.com/steakhouse-fi/sizzle/pkg/engine"
	"go.uber.org/zap"
)

// NewAllocationQueue creates a new AllocationQueue
func NewAllocationQueue(ae *engine.AllocationEngine, logger *zap.Logger) *AllocationQueue {
	queue := &AllocationQueue{
		logger:           logger,
		allocationEngine: ae,
		// allow the queue to buffer up to 100 messages
		queue: make(chan *AllocationCalculationMessage, 100),
		done:  make(chan struct{}),
	}
	return queue
}

// Enqueue adds a new message to the queue and returns immediately
func (aq *AllocationQueue) Enqueue(payload *AllocationCalculationMessage) {
	aq.logger.Sugar().Infow("Enqueueing allocation calculation message", "data", payload.Data)
	aq.queue <- payload
}

// EnqueueAndWait adds a new message to the queue and waits for a response or returns if the context is done
func (aq *AllocationQueue) EnqueueAndWait(ctx context.Context, data AllocationCalculationData) (*AllocationCalculatorResponseData, error) {
	responseChan := make(chan *AllocationCalculatorResponse)

	payload := &AllocationCalculationMessage{
		Data:         data,
		ResponseChan: responseChan,
	}
	aq.Enqueue(payload)

	aq.logger.Sugar().Infow("Waiting for allocation calculation response", "data", data)

	select {
	case response := <-responseChan:
		aq.logger.Sugar().Infow("Received allocation calculation response")
		return response.Data, response.Error
	case <-ctx.Done():
		aq.logger.Sugar().Infow("Received context.Done()")
		return nil, ctx.Err()
	}
}

func (aq *AllocationQueue) Close() {
	aq.logger.Sugar().Infow("Closing allocation calculation queue")
	close(aq.done)
}
