// Package politeiatest provides an in-memory politeia.RemoteProposalClient
// for tests.
package politeiatest

import (
	"context"
	"sync"

	"decred.org/dcrwallet/v2/errors"
	"github.com/planetdecred/dcrrewards/politeia"
)

// Client is a scriptable RemoteProposalClient. The zero value is not usable;
// create one with NewClient.
type Client struct {
	mu sync.Mutex

	votes     []politeia.Vote
	votesErr  error
	proposals map[politeia.ProposalID][]politeia.ProposalSnapshot
	propErrs  map[politeia.ProposalID]error
	claims    map[politeia.ProposalID]*politeia.ClaimResult
	claimErrs map[politeia.ProposalID]error

	// BeforeGetProposal, when set, runs before every GetProposal call
	// returns. It may block to hold a resolution in flight.
	BeforeGetProposal func(ctx context.Context, id politeia.ProposalID)

	// BeforeClaim, when set, runs before every CheckClaimRewards call
	// returns.
	BeforeClaim func(ctx context.Context, id politeia.ProposalID)

	// BeforeQueryVotes, when set, runs before QueryAllUserVotes returns.
	BeforeQueryVotes func(ctx context.Context)

	voteQueries   int
	proposalCalls map[politeia.ProposalID]int
	claimCalls    map[politeia.ProposalID]int
}

var _ politeia.RemoteProposalClient = (*Client)(nil)

func NewClient() *Client {
	return &Client{
		proposals:     make(map[politeia.ProposalID][]politeia.ProposalSnapshot),
		propErrs:      make(map[politeia.ProposalID]error),
		claims:        make(map[politeia.ProposalID]*politeia.ClaimResult),
		claimErrs:     make(map[politeia.ProposalID]error),
		proposalCalls: make(map[politeia.ProposalID]int),
		claimCalls:    make(map[politeia.ProposalID]int),
	}
}

// SetVotes sets the votes returned by QueryAllUserVotes.
func (c *Client) SetVotes(votes ...politeia.Vote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.votes = append([]politeia.Vote(nil), votes...)
}

func (c *Client) FailVotes(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.votesErr = err
}

// SetProposalEnd registers a single snapshot for id ending at endTime (ns).
func (c *Client) SetProposalEnd(id politeia.ProposalID, endTime int64) {
	c.SetProposal(id, politeia.ProposalSnapshot{ProposalID: id, EndTime: endTime})
}

func (c *Client) SetProposal(id politeia.ProposalID, snapshots ...politeia.ProposalSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proposals[id] = snapshots
	delete(c.propErrs, id)
}

func (c *Client) FailProposal(id politeia.ProposalID, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.propErrs[id] = err
}

func (c *Client) SetClaimResult(id politeia.ProposalID, result *politeia.ClaimResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.claims[id] = result
	delete(c.claimErrs, id)
}

func (c *Client) FailClaim(id politeia.ProposalID, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.claimErrs[id] = err
}

func (c *Client) VoteQueries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voteQueries
}

func (c *Client) ProposalCalls(id politeia.ProposalID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proposalCalls[id]
}

func (c *Client) ClaimCalls(id politeia.ProposalID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.claimCalls[id]
}

func (c *Client) QueryAllUserVotes(ctx context.Context) ([]politeia.Vote, error) {
	c.mu.Lock()
	c.voteQueries++
	hook := c.BeforeQueryVotes
	votes := append([]politeia.Vote(nil), c.votes...)
	err := c.votesErr
	c.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return nil, err
	}
	return votes, ctx.Err()
}

func (c *Client) GetProposal(ctx context.Context, id politeia.ProposalID) ([]politeia.ProposalSnapshot, error) {
	c.mu.Lock()
	c.proposalCalls[id]++
	hook := c.BeforeGetProposal
	snapshots, ok := c.proposals[id]
	err := c.propErrs[id]
	c.mu.Unlock()

	if hook != nil {
		hook(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.E(errors.NotExist, "resource not found")
	}
	return append([]politeia.ProposalSnapshot(nil), snapshots...), nil
}

func (c *Client) CheckClaimRewards(ctx context.Context, id politeia.ProposalID) (*politeia.ClaimResult, error) {
	c.mu.Lock()
	c.claimCalls[id]++
	hook := c.BeforeClaim
	result, ok := c.claims[id]
	err := c.claimErrs[id]
	c.mu.Unlock()

	if hook != nil {
		hook(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return &politeia.ClaimResult{Success: true}, nil
	}
	r := *result
	return &r, nil
}
