package rewards

import (
	"context"
	"sync/atomic"

	"decred.org/dcrwallet/v2/errors"
	"github.com/planetdecred/dcrrewards/politeia"
	"golang.org/x/sync/errgroup"
)

// VoteAggregator fetches the user's votes and resolves the status of every
// voted proposal concurrently.
type VoteAggregator struct {
	client        politeia.RemoteProposalClient
	resolver      *StatusResolver
	metrics       *Metrics
	maxConcurrent int32
}

func NewVoteAggregator(client politeia.RemoteProposalClient, resolver *StatusResolver, metrics *Metrics) *VoteAggregator {
	return &VoteAggregator{
		client:   client,
		resolver: resolver,
		metrics:  metrics,
	}
}

// SetMaxConcurrentResolutions caps the number of status checks in flight.
// Zero or a negative value removes the cap.
func (a *VoteAggregator) SetMaxConcurrentResolutions(n int) {
	atomic.StoreInt32(&a.maxConcurrent, int32(n))
}

// ResolveVotes fetches all votes and resolves each vote's proposal status.
// The result holds one Resolution per fetched vote, in source order. Only a
// failed vote fetch or a canceled ctx fail the call; a failed status check
// is recorded as StatusUnknown on that vote's Resolution.
func (a *VoteAggregator) ResolveVotes(ctx context.Context) ([]Resolution, error) {
	const op errors.Op = "rewards.ResolveVotes"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	votes, err := a.client.QueryAllUserVotes(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.metrics.voteFetchFailed()
		log.Errorf("Error fetching user votes: %v", err)
		return nil, &FetchError{Err: errors.E(op, err)}
	}

	log.Debugf("Resolving status for %d voted proposals", len(votes))

	resolutions := make([]Resolution, len(votes))
	g, gctx := errgroup.WithContext(ctx)
	if limit := atomic.LoadInt32(&a.maxConcurrent); limit > 0 {
		g.SetLimit(int(limit))
	}

	for i := range votes {
		i := i
		g.Go(func() error {
			// A failed status check stays on its resolution.
			resolutions[i] = a.resolver.Resolve(gctx, votes[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return resolutions, nil
}

// FetchClosedVotes returns the votes whose proposals are closed, in the
// order the server listed them. Open and unknown proposals are left out.
func (a *VoteAggregator) FetchClosedVotes(ctx context.Context) ([]politeia.Vote, error) {
	resolutions, err := a.ResolveVotes(ctx)
	if err != nil {
		return nil, err
	}

	closed := ClosedVotes(resolutions)
	log.Infof("Found %d closed proposals out of %d votes", len(closed), len(resolutions))

	return closed, nil
}

// ClosedVotes filters resolutions down to the votes on closed proposals.
func ClosedVotes(resolutions []Resolution) []politeia.Vote {
	closed := make([]politeia.Vote, 0, len(resolutions))
	for i := range resolutions {
		if resolutions[i].Status == StatusClosed {
			closed = append(closed, resolutions[i].Vote)
		}
	}
	return closed
}

// Unresolved returns the ids of proposals whose status could not be
// determined, each listed once.
func Unresolved(resolutions []Resolution) []politeia.ProposalID {
	var ids []politeia.ProposalID
	seen := make(map[politeia.ProposalID]bool)
	for i := range resolutions {
		id := resolutions[i].Vote.ProposalID
		if resolutions[i].Status == StatusUnknown && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
