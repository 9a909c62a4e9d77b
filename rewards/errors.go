package rewards

import (
	"fmt"

	"decred.org/dcrwallet/v2/errors"
	"github.com/planetdecred/dcrrewards/politeia"
)

// ErrClaimInProgress is returned when a claim for the same proposal is
// already waiting on the server.
var ErrClaimInProgress = errors.New("claim_in_progress")

// FetchError reports that the user's vote list could not be fetched. It ends
// the current load cycle.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error fetching user votes: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusResolutionError reports that a proposal's status could not be
// determined. The proposal resolves to StatusUnknown.
type StatusResolutionError struct {
	ProposalID politeia.ProposalID
	Err        error
}

func (e *StatusResolutionError) Error() string {
	return fmt.Sprintf("error resolving status of proposal %s: %v", e.ProposalID, e.Err)
}

func (e *StatusResolutionError) Unwrap() error {
	return e.Err
}

// ClaimError reports a failed claim. Err is set when the request itself
// failed; otherwise the server answered with an unsuccessful Result.
type ClaimError struct {
	ProposalID politeia.ProposalID
	Reason     string
	Result     *politeia.ClaimResult
	Err        error
}

func (e *ClaimError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error claiming reward for proposal %s: %v", e.ProposalID, e.Err)
	}
	return fmt.Sprintf("reward claim for proposal %s rejected: %s", e.ProposalID, e.Reason)
}

func (e *ClaimError) Unwrap() error {
	return e.Err
}
