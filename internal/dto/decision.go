package dto

import "apex-hub/pkg/utils"

type DecisionStatus string

const (
	DecisionAccepted DecisionStatus = "received"
	DecisionIgnored  DecisionStatus = "ignored"
)

// Decision is the intake gate's answer to one submission.
type Decision struct {
	Status    DecisionStatus `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	Asset     string         `json:"asset,omitempty"`
	Score     *float64       `json:"score,omitempty"`
	Direction string         `json:"direction,omitempty"`
}

func NewIgnoredDecision(reason string) Decision {
	return Decision{Status: DecisionIgnored, Reason: reason}
}

func NewAcceptedDecision(p *SignalPayload) Decision {
	return Decision{
		Status:    DecisionAccepted,
		Asset:     p.Asset(),
		Score:     utils.ToPointer(p.ScoreTotal()),
		Direction: p.Direction(),
	}
}

func (d Decision) Accepted() bool {
	return d.Status == DecisionAccepted
}
