package types

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// RefundState represents the state of a refund
type RefundState string

const (
	RefundStatePending    RefundState = "PENDING"
	RefundStateProcessing RefundState = "PROCESSING"
	RefundStateCompleted  RefundState = "COMPLETED"
	RefundStateFailed     RefundState = "FAILED"
	RefundStateReversed   RefundState = "REVERSED"
)

func (s RefundState) String() string {
	return string(s)
}

// IsTerminal returns true once the refund reaches a sink state.
// REVERSED is an administrative terminal override.
func (s RefundState) IsTerminal() bool {
	switch s {
	case RefundStateCompleted, RefundStateFailed, RefundStateReversed:
		return true
	}
	return false
}

func (s RefundState) Validate() error {
	allowed := []RefundState{
		RefundStatePending,
		RefundStateProcessing,
		RefundStateCompleted,
		RefundStateFailed,
		RefundStateReversed,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid refund state: %s", s)
	}
	return nil
}

// refundStateMap normalizes gateway refund vocabularies. COMPLETED is the
// canonical terminal-success value; SUCCESS is accepted as an alias and
// normalized here at the edge.
var refundStateMap = map[string]RefundState{
	"COMPLETED":       RefundStateCompleted,
	"SUCCESS":         RefundStateCompleted,
	"REFUND_SUCCESS":  RefundStateCompleted,
	"FAILED":          RefundStateFailed,
	"FAILURE":         RefundStateFailed,
	"REFUND_ERROR":    RefundStateFailed,
	"PENDING":         RefundStatePending,
	"REFUND_PENDING":  RefundStatePending,
	"PROCESSING":      RefundStateProcessing,
	"ACCEPTED":        RefundStateProcessing,
	"REFUND_ACCEPTED": RefundStateProcessing,
	"REVERSED":        RefundStateReversed,
}

// ParseGatewayRefundState maps an upstream refund state string to the
// canonical enum; unknown strings stay PROCESSING (non-terminal)
func ParseGatewayRefundState(raw string) RefundState {
	if state, ok := refundStateMap[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return state
	}
	return RefundStateProcessing
}
