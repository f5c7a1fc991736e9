package election

import "errors"

var (
	// ErrInvalidStateTransition rejects a lifecycle operation that is not
	// legal from the election's current state. No side effects occur.
	ErrInvalidStateTransition = errors.New("invalid election state transition")

	// ErrInvalidDuration rejects a start with a duration outside 15-1440 minutes.
	ErrInvalidDuration = errors.New("duration must be between 15 and 1440 minutes")

	ErrElectionNotFound = errors.New("election not found")

	// ErrNoChainElection means the election has no chain election id and can
	// therefore not be started or ended on chain.
	ErrNoChainElection = errors.New("election has not been created on chain")

	ErrCandidateCount    = errors.New("exactly two distinct candidates must be selected")
	ErrCandidatesMissing = errors.New("one or more candidates not found")
	ErrNoApprovedVoters  = errors.New("cannot create an election without approved voters")

	ErrCandidateNotFound         = errors.New("candidate not found")
	ErrCandidateExists           = errors.New("candidate with this national id already exists")
	ErrCandidateInActiveElection = errors.New("candidate participates in an active election")
	ErrElectionActive            = errors.New("operation not allowed while an election is active")

	ErrVoterNotFound = errors.New("voter not found")

	// ErrInconsistentChainState is surfaced when the chain reports an election
	// status incompatible with the ledger's recorded state.
	ErrInconsistentChainState = errors.New("chain election status inconsistent with ledger")
)
