package rewards

import (
	"context"
	"time"

	"decred.org/dcrwallet/v2/errors"
	"github.com/planetdecred/dcrrewards/localtime"
	"github.com/planetdecred/dcrrewards/politeia"
)

// ProposalStatus is the lifecycle state of a proposal relative to the local
// clock. It is derived on every resolution and never stored.
type ProposalStatus int

const (
	StatusUnknown ProposalStatus = iota
	StatusOpen
	StatusClosed
)

func (s ProposalStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Classify reports whether a proposal ending at endTime (ns since the unix
// epoch) is closed at now. A proposal is closed only once now, taken in whole
// milliseconds, is strictly after its end time, so an end time inside the
// current millisecond is still open.
func Classify(endTime int64, now time.Time) ProposalStatus {
	if now.Truncate(time.Millisecond).After(time.Unix(0, endTime)) {
		return StatusClosed
	}
	return StatusOpen
}

// Resolution is the tagged outcome of resolving one vote's proposal. Err is
// set only when Status is StatusUnknown.
type Resolution struct {
	Vote   politeia.Vote
	Status ProposalStatus
	Err    error
}

// StatusResolver classifies proposals as open or closed from the end time
// reported by the proposal server.
type StatusResolver struct {
	client  politeia.RemoteProposalClient
	clock   localtime.Clock
	metrics *Metrics
}

// NewStatusResolver returns a resolver that compares end times against
// clock. A nil clock selects localtime.SystemClock.
func NewStatusResolver(client politeia.RemoteProposalClient, clock localtime.Clock, metrics *Metrics) *StatusResolver {
	if clock == nil {
		clock = localtime.SystemClock
	}

	return &StatusResolver{
		client:  client,
		clock:   clock,
		metrics: metrics,
	}
}

// ResolveStatus fetches the proposal and classifies it. A failed fetch yields
// StatusUnknown rather than an error; no retry is attempted.
func (r *StatusResolver) ResolveStatus(ctx context.Context, id politeia.ProposalID) ProposalStatus {
	status, _ := r.resolve(ctx, id)
	return status
}

// Resolve classifies the proposal of vote and keeps the cause of an unknown
// status on the result.
func (r *StatusResolver) Resolve(ctx context.Context, vote politeia.Vote) Resolution {
	status, err := r.resolve(ctx, vote.ProposalID)
	return Resolution{Vote: vote, Status: status, Err: err}
}

func (r *StatusResolver) resolve(ctx context.Context, id politeia.ProposalID) (ProposalStatus, error) {
	snapshots, err := r.client.GetProposal(ctx, id)
	if err == nil && len(snapshots) == 0 {
		err = errors.E(errors.NotExist, "no proposal snapshot returned")
	}
	if err != nil {
		r.metrics.statusResolved(StatusUnknown)
		if ctx.Err() != nil {
			log.Debugf("Status check for proposal %s canceled", id)
		} else {
			log.Warnf("Error checking status of proposal %s: %v", id, err)
		}
		return StatusUnknown, &StatusResolutionError{ProposalID: id, Err: err}
	}

	status := Classify(snapshots[0].EndTime, r.clock.Now())
	r.metrics.statusResolved(status)
	log.Tracef("Proposal %s is %s", id, status)

	return status, nil
}
