package politeia

import "time"

// ProposalID identifies a proposal on the proposal server. It is the join
// key between a user's votes and the proposals they were cast on.
type ProposalID string

func (id ProposalID) String() string {
	return string(id)
}

// Vote is a user's recorded choice on one proposal.
type Vote struct {
	ProposalID   ProposalID `json:"proposalid"`
	VoteTime     int64      `json:"votetime"`
	ChosenOption string     `json:"chosenoption"`
	Claimed      bool       `json:"claimed"`
}

// VotedAt converts the nanosecond vote timestamp to a time.Time.
func (v Vote) VotedAt() time.Time {
	return time.Unix(0, v.VoteTime)
}

// ProposalSnapshot is the server's view of a proposal at the time it was
// fetched. Timestamps are in nanoseconds.
type ProposalSnapshot struct {
	ProposalID ProposalID `json:"proposalid"`
	Name       string     `json:"name"`
	StartTime  int64      `json:"starttime"`
	EndTime    int64      `json:"endtime"`
}

// EndsAt converts the nanosecond end time to a time.Time.
func (s ProposalSnapshot) EndsAt() time.Time {
	return time.Unix(0, s.EndTime)
}

type ClaimResult struct {
	Success       bool   `json:"success"`
	RewardAmount  int64  `json:"rewardamount,omitempty"`
	FailureReason string `json:"failurereason,omitempty"`
}

type Err struct {
	Code    uint16   `json:"errorcode"`
	Context []string `json:"errorcontext"`
}

type ServerVersion struct {
	Version int `json:"version"`
}

type Votes struct {
	Votes []Vote `json:"votes"`
}

type Proposals struct {
	Proposals []ProposalSnapshot `json:"proposals"`
}
