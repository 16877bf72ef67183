package allocationQueue

import (
	"fmt"
	"time"
)

func (aq *AllocationQueue) Process() {
	for {
		select {
		case <-aq.done:
			aq.logger.Sugar().Infow("Closing allocation calculation queue")
			return
		case msg := <-aq.queue:
			aq.logger.Sugar().Infow("Processing allocation calculation message", "data", msg.Data)
			response := aq.processMessage(msg)

			if msg.ResponseChan != nil {
				select {
				case msg.ResponseChan <- response:
					aq.logger.Sugar().Infow("Sent allocation calculation response", "data", msg.Data)
				default:
					aq.logger.Sugar().Infow("No receiver for response, dropping", "data", msg.Data)
				}
			} else {
				aq.logger.Sugar().Infow("No response channel, dropping response", "data", msg.Data)
			}
		}
	}
}

func (aq *AllocationQueue) processMessage(msg *AllocationCalculationMessage) *AllocationCalculatorResponse {
	response := &AllocationCalculatorResponse{}

	asOf := msg.Data.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	switch msg.Data.CalculationType {
	case AllocationCalculationType_CalculateAllocations:
		if msg.Data.PhaseNumber == 0 {
			phaseNumber, result, err := aq.allocationEngine.CalculateAllocationsForLatestEndedPhase(asOf)
			response.Error = err
			response.Data = &AllocationCalculatorResponseData{PhaseNumber: phaseNumber, Result: result}
		} else {
			result, err := aq.allocationEngine.CalculateAllocationsForPhase(msg.Data.PhaseNumber, asOf)
			response.Error = err
			response.Data = &AllocationCalculatorResponseData{PhaseNumber: msg.Data.PhaseNumber, Result: result}
		}
	default:
		response.Error = fmt.Errorf("unknown calculation type %s", msg.Data.CalculationType)
	}
	return response
}
