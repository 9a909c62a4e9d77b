package politeia

import "context"

// RemoteProposalClient is the RPC surface of the proposal server used by the
// reward workflow. Implementations must be safe for concurrent use.
type RemoteProposalClient interface {
	// QueryAllUserVotes returns every vote cast by the current user across
	// all proposals.
	QueryAllUserVotes(ctx context.Context) ([]Vote, error)

	// GetProposal returns the snapshots for the proposal. Index 0 is the
	// canonical snapshot; implementations may return a single element.
	GetProposal(ctx context.Context, id ProposalID) ([]ProposalSnapshot, error)

	// CheckClaimRewards submits a reward claim for the proposal and returns
	// the server's verdict.
	CheckClaimRewards(ctx context.Context, id ProposalID) (*ClaimResult, error)
}

type requestIDKey struct{}

// WithRequestID returns a copy of ctx that carries the request id sent along
// with outgoing requests.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
