package outreach

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/himtika/proposal-tracker/internal/entity"
)

var (
	ErrUnknownChannel    = errors.New("unknown outreach channel")
	ErrUnknownTransition = errors.New("unknown status transition")
)

// Transition is an operation on the status of one channel.
type Transition string

const (
	TransitionMarkSent Transition = "mark_sent"
	TransitionReset    Transition = "reset"
)

// ParseChannel maps user input onto a supported channel.
func ParseChannel(value string) (entity.Channel, error) {
	ch := entity.Channel(strings.ToLower(strings.TrimSpace(value)))
	if !ch.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, value)
	}
	return ch, nil
}

// ParseTransition maps user input onto a supported transition.
func ParseTransition(value string) (Transition, error) {
	t := Transition(strings.ToLower(strings.TrimSpace(value)))
	switch t {
	case TransitionMarkSent, TransitionReset:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransition, value)
	}
}

// MarkSent moves a channel to Sent, stamping the actor and time. Marking an
// already sent channel refreshes both stamps.
func MarkSent(actor entity.ActorRef, now time.Time) entity.ChannelStatus {
	at := now.UTC()
	by := actor
	return entity.ChannelStatus{Sent: true, DateSent: &at, SentBy: &by}
}

// Reset moves a channel back to NotSent, clearing its stamps.
func Reset() entity.ChannelStatus {
	return entity.ChannelStatus{}
}

// Apply performs a transition on one channel of the company in place and
// returns the resulting channel status.
func Apply(c *entity.Company, ch entity.Channel, t Transition, actor entity.ActorRef, now time.Time) (entity.ChannelStatus, error) {
	slot := c.Status.For(ch)
	if slot == nil {
		return entity.ChannelStatus{}, fmt.Errorf("%w: %q", ErrUnknownChannel, ch)
	}

	switch t {
	case TransitionMarkSent:
		*slot = MarkSent(actor, now)
	case TransitionReset:
		*slot = Reset()
	default:
		return entity.ChannelStatus{}, fmt.Errorf("%w: %q", ErrUnknownTransition, t)
	}
	return *slot, nil
}
