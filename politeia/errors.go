package politeia

const (
	// Error status codes
	ErrorStatusInvalid                uint16 = 0
	ErrorStatusProposalNotFound       uint16 = 6
	ErrorStatusInvalidInput           uint16 = 24
	ErrorStatusUserNotFound           uint16 = 27
	ErrorStatusNotLoggedIn            uint16 = 29
	ErrorStatusWrongVoteStatus        uint16 = 42
	ErrorStatusInvalidCensorshipToken uint16 = 58
	ErrorStatusVoteNotFound           uint16 = 80
	ErrorStatusRewardAlreadyClaimed   uint16 = 81
	ErrorStatusRewardPoolExhausted    uint16 = 82
)

var (
	// ErrorStatus converts error status codes to human readable text.
	ErrorStatus = map[uint16]string{
		ErrorStatusInvalid:                "invalid error status",
		ErrorStatusProposalNotFound:       "proposal not found",
		ErrorStatusInvalidInput:           "invalid input",
		ErrorStatusUserNotFound:           "user not found",
		ErrorStatusNotLoggedIn:            "user not logged in",
		ErrorStatusWrongVoteStatus:        "wrong proposal vote status",
		ErrorStatusInvalidCensorshipToken: "invalid proposal censorship token",
		ErrorStatusVoteNotFound:           "no vote found for proposal",
		ErrorStatusRewardAlreadyClaimed:   "reward already claimed",
		ErrorStatusRewardPoolExhausted:    "reward pool exhausted",
	}
)
