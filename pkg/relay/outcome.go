// Copyright 2024-2026 Aiku AI

package relay

import "fmt"

// OutcomeKind classifies how handling of one event ended.
type OutcomeKind int

const (
	Forwarded OutcomeKind = iota
	Skipped
	Failed
	Unhandled
)

func (k OutcomeKind) String() string {
	switch k {
	case Forwarded:
		return "forwarded"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	case Unhandled:
		return "unhandled"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Skip reasons.
const (
	ReasonNoUser         = "not posted by a user"
	ReasonAutomated      = "automated message, not re-shared"
	ReasonEmptyText      = "nothing to relay"
	ReasonNoDestination  = "no destination configured for this channel"
	ReasonFileNoUser     = "not shared by a user"
	ReasonBotFile        = "do not reshare file"
	ReasonInvalidPayload = "invalid event payload"
)

// Outcome is the single result of handling one event. Skipped is not an
// error; Failed and Unhandled are reported to telemetry.
type Outcome struct {
	Kind OutcomeKind
	// EventType is the inbound event's type tag.
	EventType string
	Reason    string
	// Phase names the step that failed, for Failed outcomes.
	Phase string
	Err   error
}

func forwarded(eventType string) Outcome {
	return Outcome{Kind: Forwarded, EventType: eventType}
}

func skipped(eventType, reason string) Outcome {
	return Outcome{Kind: Skipped, EventType: eventType, Reason: reason}
}

// String is the plain-text body returned to the inbound caller.
func (o Outcome) String() string {
	switch o.Kind {
	case Forwarded:
		return "forwarded"
	case Skipped:
		return o.Reason
	case Failed:
		if o.Err != nil {
			return fmt.Sprintf("failed: %s: %v", o.Reason, o.Err)
		}
		return "failed: " + o.Reason
	case Unhandled:
		return o.EventType + " not handled yet"
	default:
		return o.Kind.String()
	}
}
