package dcrrewards

import (
	"context"
	"sync"

	"decred.org/dcrwallet/v2/errors"
	"github.com/planetdecred/dcrrewards/politeia"
	"github.com/planetdecred/dcrrewards/rewards"
)

// Controller owns the list of closed-proposal votes shown to the user and
// drives the load and claim cycles for it.
type Controller struct {
	aggregator   *rewards.VoteAggregator
	orchestrator *rewards.ClaimOrchestrator

	mu         sync.RWMutex
	state      LoadState
	entries    []VoteEntry
	unresolved []politeia.ProposalID
	loadErr    error

	// generation is bumped by every load and teardown. A load applies its
	// result only if the generation it started with is still current.
	generation uint64
	cancelLoad context.CancelFunc
	activated  bool
	closed     bool

	// pending and claimed outlive a single load so that a reload racing a
	// claim keeps the claim's outcome.
	pending map[politeia.ProposalID]struct{}
	claimed map[politeia.ProposalID]int64

	notificationListenersMu sync.RWMutex
	notificationListeners   map[string]WorkflowListener
}

func NewController(aggregator *rewards.VoteAggregator, orchestrator *rewards.ClaimOrchestrator) *Controller {
	return &Controller{
		aggregator:            aggregator,
		orchestrator:          orchestrator,
		pending:               make(map[politeia.ProposalID]struct{}),
		claimed:               make(map[politeia.ProposalID]int64),
		notificationListeners: make(map[string]WorkflowListener),
	}
}

// Refresh runs a load cycle. Any load already in progress is canceled and
// its result discarded. Refresh may be called from any state.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	ctx, cancel, generation := c.beginLoadLocked(ctx)
	c.mu.Unlock()

	return c.refresh(ctx, cancel, generation)
}

// beginLoadLocked supersedes any running load and returns the context and
// generation of a new one. The controller moves to Loading.
func (c *Controller) beginLoadLocked(ctx context.Context) (context.Context, context.CancelFunc, uint64) {
	if c.cancelLoad != nil {
		log.Debug("Canceling previous vote load")
		c.cancelLoad()
	}

	ctx, cancel := context.WithCancel(ctx)

	c.generation++
	c.cancelLoad = cancel
	c.state = StateLoading
	c.loadErr = nil

	return ctx, cancel, c.generation
}

func (c *Controller) refresh(ctx context.Context, cancel context.CancelFunc, generation uint64) error {
	defer cancel()

	c.mu.RLock()
	current := !c.closed && generation == c.generation
	c.mu.RUnlock()
	if !current {
		log.Debugf("Vote load %d superseded before it started", generation)
		return ErrLoadDiscarded
	}

	c.publishLoadStarted()

	resolutions, err := c.aggregator.ResolveVotes(ctx)

	c.mu.Lock()
	if c.closed || generation != c.generation {
		c.mu.Unlock()
		log.Debugf("Discarding result of superseded vote load %d", generation)
		return ErrLoadDiscarded
	}
	c.cancelLoad = nil

	if err != nil {
		c.state = StateLoadFailed
		c.loadErr = err
		c.entries = nil
		c.unresolved = nil
		c.mu.Unlock()

		log.Errorf("Vote load failed: %v", err)
		c.publishLoadFailed(err)
		return err
	}

	closedVotes := rewards.ClosedVotes(resolutions)
	entries := make([]VoteEntry, len(closedVotes))
	for i, vote := range closedVotes {
		entries[i] = c.entryLocked(vote)
	}

	c.state = StateLoaded
	c.entries = entries
	c.unresolved = rewards.Unresolved(resolutions)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	log.Infof("Loaded %d votes on closed proposals, %d unresolved", len(snapshot.Entries), len(snapshot.Unresolved))
	c.publishLoaded(snapshot)
	return nil
}

// entryLocked builds the entry for a freshly fetched vote, carrying over
// claims made or still running in this session.
func (c *Controller) entryLocked(vote politeia.Vote) VoteEntry {
	entry := VoteEntry{Vote: vote}

	if reward, ok := c.claimed[vote.ProposalID]; ok {
		entry.Vote.Claimed = true
		entry.ClaimState = ClaimClaimed
		entry.RewardAmount = reward
		return entry
	}

	if _, ok := c.pending[vote.ProposalID]; ok {
		entry.ClaimState = ClaimPending
		return entry
	}

	if vote.Claimed {
		entry.ClaimState = ClaimClaimed
	}
	return entry
}

// Activate starts a load in the background the first time it is called
// after construction or after Deactivate.
func (c *Controller) Activate() {
	c.mu.Lock()
	if c.activated || c.closed {
		c.mu.Unlock()
		return
	}
	c.activated = true
	ctx, cancel, generation := c.beginLoadLocked(context.Background())
	c.mu.Unlock()

	go func() {
		err := c.refresh(ctx, cancel, generation)
		if err != nil && !errors.Is(err, ErrLoadDiscarded) {
			log.Warnf("Background vote load: %v", err)
		}
	}()
}

// Deactivate cancels an in-flight load. A load interrupted this way leaves
// the controller Idle.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activated = false
	c.teardownLocked()
}

// Close deactivates the controller for good. Later calls fail with
// ErrControllerClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activated = false
	c.closed = true
	c.teardownLocked()
}

func (c *Controller) teardownLocked() {
	c.generation++
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	if c.state == StateLoading {
		c.state = StateIdle
	}
}

// Claim requests the reward for proposalID. The vote must be part of the
// loaded list and not already claimed. On success every entry for the
// proposal is marked claimed, other entries are untouched.
func (c *Controller) Claim(ctx context.Context, proposalID politeia.ProposalID) (*politeia.ClaimResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrControllerClosed
	}
	if c.state != StateLoaded {
		c.mu.Unlock()
		return nil, ErrNotLoaded
	}

	indexes := c.indexesLocked(proposalID)
	if len(indexes) == 0 {
		c.mu.Unlock()
		return nil, ErrVoteNotFound
	}
	if _, ok := c.pending[proposalID]; ok {
		c.mu.Unlock()
		return nil, rewards.ErrClaimInProgress
	}
	for _, i := range indexes {
		if c.entries[i].Vote.Claimed {
			c.mu.Unlock()
			return nil, ErrAlreadyClaimed
		}
	}

	c.pending[proposalID] = struct{}{}
	c.setClaimStateLocked(proposalID, ClaimPending, "")
	c.mu.Unlock()

	c.publishClaimStateChanged(proposalID, ClaimPending, nil)

	result, err := c.orchestrator.Claim(ctx, proposalID)

	c.mu.Lock()
	delete(c.pending, proposalID)

	var state ClaimState
	switch {
	case err == nil:
		state = ClaimClaimed
		c.claimed[proposalID] = result.RewardAmount
		for _, i := range c.indexesLocked(proposalID) {
			c.entries[i].Vote.Claimed = true
			c.entries[i].RewardAmount = result.RewardAmount
		}
		c.setClaimStateLocked(proposalID, ClaimClaimed, "")

	case errors.Is(err, rewards.ErrClaimInProgress):
		// Another caller of the orchestrator owns this claim.
		state = ClaimNone
		c.setClaimStateLocked(proposalID, ClaimNone, "")

	default:
		state = ClaimFailed
		c.setClaimStateLocked(proposalID, ClaimFailed, err.Error())
	}
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return result, err
	}

	if err != nil {
		log.Warnf("Claim for proposal %s failed: %v", proposalID, err)
	} else {
		log.Infof("Claimed reward of %d atoms for proposal %s", result.RewardAmount, proposalID)
	}

	c.publishClaimStateChanged(proposalID, state, err)
	return result, err
}

func (c *Controller) indexesLocked(proposalID politeia.ProposalID) []int {
	var indexes []int
	for i := range c.entries {
		if c.entries[i].Vote.ProposalID == proposalID {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

func (c *Controller) setClaimStateLocked(proposalID politeia.ProposalID, state ClaimState, claimErr string) {
	for _, i := range c.indexesLocked(proposalID) {
		c.entries[i].ClaimState = state
		c.entries[i].ClaimError = claimErr
	}
}

// State returns the current load state.
func (c *Controller) State() LoadState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// LoadError returns the error of the last failed load, or nil.
func (c *Controller) LoadError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// Snapshot returns a copy of the controller's state.
func (c *Controller) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() *Snapshot {
	snapshot := &Snapshot{
		State:   c.state,
		Entries: make([]VoteEntry, len(c.entries)),
	}
	copy(snapshot.Entries, c.entries)

	if len(c.unresolved) > 0 {
		snapshot.Unresolved = make([]politeia.ProposalID, len(c.unresolved))
		copy(snapshot.Unresolved, c.unresolved)
	}
	if c.loadErr != nil {
		snapshot.Error = c.loadErr.Error()
	}
	return snapshot
}
