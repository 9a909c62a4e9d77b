package rewards

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/planetdecred/dcrrewards/politeia"
)

// ClaimOrchestrator submits reward claims. At most one claim per proposal is
// in flight at a time; claims for different proposals proceed independently.
type ClaimOrchestrator struct {
	client  politeia.RemoteProposalClient
	metrics *Metrics

	mu       sync.Mutex
	inFlight map[politeia.ProposalID]struct{}
}

func NewClaimOrchestrator(client politeia.RemoteProposalClient, metrics *Metrics) *ClaimOrchestrator {
	return &ClaimOrchestrator{
		client:   client,
		metrics:  metrics,
		inFlight: make(map[politeia.ProposalID]struct{}),
	}
}

// Claim sends one claim request for the proposal. The caller is expected to
// have checked that the vote is not already claimed. A call made while
// another claim for the same proposal is pending returns ErrClaimInProgress
// without contacting the server.
//
// On success the returned result has Success set and the caller may mark
// the vote claimed. Any other outcome returns a *ClaimError.
func (o *ClaimOrchestrator) Claim(ctx context.Context, id politeia.ProposalID) (*politeia.ClaimResult, error) {
	if !o.begin(id) {
		log.Debugf("Claim for proposal %s already in progress", id)
		return nil, ErrClaimInProgress
	}
	defer o.end(id)

	requestID := uuid.New().String()
	ctx = politeia.WithRequestID(ctx, requestID)

	log.Infof("Claiming reward for proposal %s (request %s)", id, requestID)

	result, err := o.client.CheckClaimRewards(ctx, id)
	if err != nil {
		o.metrics.claimFinished(claimOutcomeError)
		log.Errorf("Error claiming reward for proposal %s: %v", id, err)
		return nil, &ClaimError{ProposalID: id, Err: err}
	}

	if result == nil || !result.Success {
		reason := "claim rejected by server"
		if result != nil && result.FailureReason != "" {
			reason = result.FailureReason
		}
		o.metrics.claimFinished(claimOutcomeRejected)
		log.Warnf("Reward claim for proposal %s rejected: %s", id, reason)
		return result, &ClaimError{ProposalID: id, Reason: reason, Result: result}
	}

	o.metrics.claimFinished(claimOutcomeSuccess)
	log.Infof("Reward for proposal %s claimed: %d", id, result.RewardAmount)

	return result, nil
}

// InFlight reports whether a claim for the proposal is awaiting the server.
func (o *ClaimOrchestrator) InFlight(id politeia.ProposalID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, ok := o.inFlight[id]
	return ok
}

func (o *ClaimOrchestrator) begin(id politeia.ProposalID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.inFlight[id]; ok {
		return false
	}
	o.inFlight[id] = struct{}{}
	return true
}

func (o *ClaimOrchestrator) end(id politeia.ProposalID) {
	o.mu.Lock()
	delete(o.inFlight, id)
	o.mu.Unlock()
}
