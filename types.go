package dcrrewards

import "github.com/planetdecred/dcrrewards/politeia"

// LoadState is the state of the vote loading cycle.
type LoadState int32

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateLoadFailed
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateLoadFailed:
		return "load_failed"
	default:
		return "idle"
	}
}

// ClaimState is the claim progress of a single vote entry.
type ClaimState int32

const (
	ClaimNone ClaimState = iota
	ClaimPending
	ClaimClaimed
	ClaimFailed
)

func (s ClaimState) String() string {
	switch s {
	case ClaimPending:
		return "pending"
	case ClaimClaimed:
		return "claimed"
	case ClaimFailed:
		return "failed"
	default:
		return "none"
	}
}

// VoteEntry is a vote on a closed proposal together with its claim progress.
type VoteEntry struct {
	Vote         politeia.Vote `json:"vote"`
	ClaimState   ClaimState    `json:"claimstate"`
	RewardAmount int64         `json:"rewardamount,omitempty"`
	ClaimError   string        `json:"claimerror,omitempty"`
}

// Snapshot is a copy of the controller's state for presentation.
type Snapshot struct {
	State   LoadState   `json:"state"`
	Entries []VoteEntry `json:"entries"`

	// Unresolved lists the proposals whose status could not be
	// determined during the last load. They are not part of Entries.
	Unresolved []politeia.ProposalID `json:"unresolved,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// WorkflowListener receives controller state changes. Callbacks run on the
// goroutine that caused the change and must not block.
type WorkflowListener interface {
	OnLoadStarted()
	OnLoaded(snapshot *Snapshot)
	OnLoadFailed(err error)
	OnClaimStateChanged(proposalID politeia.ProposalID, state ClaimState, err error)
}
