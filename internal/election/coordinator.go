// Package election implements the election lifecycle coordinator: the
// CREATED -> ACTIVE -> ENDED state machine, the chain/ledger dual-write
// protocol and the auto-end scheduler.
package election

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/riorajhon/block-vote/internal/chain"
	db_models "github.com/riorajhon/block-vote/internal/database/models"
	repositories "github.com/riorajhon/block-vote/internal/database/repositories"
)

const (
	MinDurationMinutes = 15
	MaxDurationMinutes = 1440
)

// Result is an election together with its candidate tallies, used by the
// query operations.
type Result struct {
	Election   *db_models.ElectionDB
	Candidates []*repositories.CandidateTally
	TotalVotes int
}

// Turnout is the fraction of the approved-voter snapshot that voted.
func (r *Result) Turnout() float64 {
	if r.Election.TotalVoters == 0 {
		return 0
	}

	return float64(r.TotalVotes) / float64(r.Election.TotalVoters)
}

type Coordinator struct {
	repos     *repositories.Repositories
	gateway   chain.Gateway
	scheduler Scheduler
	logger    zerolog.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewCoordinator(repos *repositories.Repositories, gateway chain.Gateway, scheduler Scheduler, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		repos:     repos,
		gateway:   gateway,
		scheduler: scheduler,
		logger:    logger.With().Str("component", "election_coordinator").Logger(),
		now:       time.Now,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// electionLock returns the mutex serializing lifecycle transitions for one
// election id. The state check and the mutation form one critical section.
func (c *Coordinator) electionLock(electionId int64) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[electionId]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[electionId] = lock
	}

	return lock
}

// Create persists a CREATED election with exactly two candidates and a
// voter-count snapshot, then creates it on chain. The ledger write happens
// first; a chain failure triggers a compensating delete, keeping creation
// all-or-nothing across both systems.
func (c *Coordinator) Create(ctx context.Context, name string, candidateIds []int64) (*db_models.ElectionDB, error) {
	if len(candidateIds) != 2 || candidateIds[0] == candidateIds[1] {
		return nil, ErrCandidateCount
	}

	candidates, err := c.repos.CandidateRepository.GetByIds(candidateIds)
	if err != nil {
		return nil, err
	}

	if len(candidates) != 2 {
		return nil, ErrCandidatesMissing
	}

	approvedVoters, err := c.repos.VoterRepository.CountApproved()
	if err != nil {
		return nil, err
	}

	if approvedVoters == 0 {
		return nil, ErrNoApprovedVoters
	}

	if name == "" {
		name = fmt.Sprintf("Election %s - %s vs %s",
			c.now().Format("2006-01-02"), candidates[0].Name, candidates[1].Name)
	}

	electionDB := &db_models.ElectionDB{
		Name:        name,
		Status:      db_models.ElectionStatusCreated,
		CreatedAt:   c.now(),
		TotalVoters: approvedVoters,
	}

	if err := c.repos.ElectionRepository.Insert(electionDB); err != nil {
		return nil, err
	}

	if err := c.repos.ElectionRepository.AssociateCandidates(electionDB.Id, candidateIds); err != nil {
		c.compensateCreate(electionDB.Id)
		return nil, err
	}

	chainElectionId, err := c.gateway.CreateElection(ctx, candidateIds)
	if err != nil {
		c.logger.Error().Err(err).
			Int64("election_id", electionDB.Id).
			Msg("chain election creation failed, rolling back ledger rows")
		c.compensateCreate(electionDB.Id)
		return nil, err
	}

	if err := c.repos.ElectionRepository.SetChainElectionId(electionDB.Id, chainElectionId); err != nil {
		return nil, err
	}

	electionDB.ChainElectionId = &chainElectionId

	c.logger.Info().
		Int64("election_id", electionDB.Id).
		Int64("chain_election_id", chainElectionId).
		Int("total_voters", approvedVoters).
		Msg("election created, ready to start")

	return electionDB, nil
}

func (c *Coordinator) compensateCreate(electionId int64) {
	if err := c.repos.ElectionRepository.DeleteWithAssociations(electionId); err != nil {
		c.logger.Error().Err(err).
			Int64("election_id", electionId).
			Msg("failed to clean up election after chain failure")
	}
}

// Start transitions a CREATED election to ACTIVE. The chain call is
// mandatory and comes first; the ledger is only mutated after it succeeds.
// On success a deferred auto-end is armed for the scheduled end time.
func (c *Coordinator) Start(ctx context.Context, electionId int64, durationMinutes int) (*db_models.ElectionDB, error) {
	if durationMinutes < MinDurationMinutes || durationMinutes > MaxDurationMinutes {
		return nil, ErrInvalidDuration
	}

	lock := c.electionLock(electionId)
	lock.Lock()
	defer lock.Unlock()

	electionDB, err := c.repos.ElectionRepository.GetById(electionId)
	if err != nil {
		return nil, err
	}

	if electionDB == nil {
		return nil, ErrElectionNotFound
	}

	if electionDB.Status != db_models.ElectionStatusCreated {
		return nil, fmt.Errorf("%w: cannot start election in state %s", ErrInvalidStateTransition, electionDB.Status)
	}

	if electionDB.ChainElectionId == nil {
		return nil, ErrNoChainElection
	}

	if err := c.gateway.StartElection(ctx, *electionDB.ChainElectionId); err != nil {
		return nil, err
	}

	startedAt := c.now()
	scheduledEnd := startedAt.Add(time.Duration(durationMinutes) * time.Minute)

	ok, err := c.repos.ElectionRepository.MarkActive(electionId, startedAt, scheduledEnd, durationMinutes)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%w: election no longer in CREATED state", ErrInvalidStateTransition)
	}

	c.scheduler.ScheduleAt(electionId, scheduledEnd, func() {
		c.AutoEnd(electionId)
	})

	c.logger.Info().
		Int64("election_id", electionId).
		Int("duration_minutes", durationMinutes).
		Time("scheduled_end", scheduledEnd).
		Msg("election started")

	electionDB.Status = db_models.ElectionStatusActive
	electionDB.StartedAt = &startedAt
	electionDB.ScheduledEndTime = &scheduledEnd
	electionDB.DurationMinutes = &durationMinutes

	return electionDB, nil
}

// End manually transitions an ACTIVE election to ENDED and cancels its
// pending auto-end.
func (c *Coordinator) End(ctx context.Context, electionId int64) (*db_models.ElectionDB, error) {
	lock := c.electionLock(electionId)
	lock.Lock()
	defer lock.Unlock()

	return c.endLocked(ctx, electionId)
}

// AutoEnd is the deferred auto-end callback. It re-checks the election is
// still ACTIVE (a manual end may have won the race) and logs failures
// instead of propagating them, since there is no caller to report to.
func (c *Coordinator) AutoEnd(electionId int64) {
	lock := c.electionLock(electionId)
	lock.Lock()
	defer lock.Unlock()

	electionDB, err := c.repos.ElectionRepository.GetById(electionId)
	if err != nil {
		c.logger.Error().Err(err).Int64("election_id", electionId).Msg("auto-end lookup failed")
		return
	}

	if electionDB == nil || electionDB.Status != db_models.ElectionStatusActive {
		c.logger.Debug().Int64("election_id", electionId).Msg("auto-end skipped, election not active")
		return
	}

	if _, err := c.endLocked(context.Background(), electionId); err != nil {
		c.logger.Error().Err(err).Int64("election_id", electionId).Msg("auto-end failed, election stays active")
		return
	}

	c.logger.Info().Int64("election_id", electionId).Msg("election auto-ended on schedule")
}

func (c *Coordinator) endLocked(ctx context.Context, electionId int64) (*db_models.ElectionDB, error) {
	electionDB, err := c.repos.ElectionRepository.GetById(electionId)
	if err != nil {
		return nil, err
	}

	if electionDB == nil {
		return nil, ErrElectionNotFound
	}

	if electionDB.Status != db_models.ElectionStatusActive {
		return nil, fmt.Errorf("%w: cannot end election in state %s", ErrInvalidStateTransition, electionDB.Status)
	}

	if electionDB.ChainElectionId == nil {
		return nil, ErrNoChainElection
	}

	if err := c.gateway.EndElection(ctx, *electionDB.ChainElectionId); err != nil {
		// The chain may have ended the election already (for example a
		// previous attempt whose receipt was lost). Surface that as an
		// inconsistency instead of trusting either side silently.
		if status, statusErr := c.gateway.GetElectionStatus(ctx, *electionDB.ChainElectionId); statusErr == nil &&
			status.Status == chain.ChainStatusEnded {
			return nil, fmt.Errorf("%w: chain already reports ENDED", ErrInconsistentChainState)
		}

		return nil, err
	}

	c.scheduler.Cancel(electionId)

	endedAt := c.now()

	ok, err := c.repos.ElectionRepository.MarkEnded(electionId, endedAt)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%w: election no longer in ACTIVE state", ErrInvalidStateTransition)
	}

	c.logger.Info().Int64("election_id", electionId).Time("ended_at", endedAt).Msg("election ended")

	electionDB.Status = db_models.ElectionStatusEnded
	electionDB.EndedAt = &endedAt

	return electionDB, nil
}

// RestoreTimers re-arms auto-end callbacks after a restart. Elections whose
// scheduled end has already passed while the process was down are ended
// immediately through the auto-end path.
func (c *Coordinator) RestoreTimers() error {
	active, err := c.repos.ElectionRepository.GetByStatus(db_models.ElectionStatusActive)
	if err != nil {
		return err
	}

	restored := 0

	for _, electionDB := range active {
		if electionDB.ScheduledEndTime == nil {
			continue
		}

		if electionDB.ScheduledEndTime.After(c.now()) {
			c.scheduler.ScheduleAt(electionDB.Id, *electionDB.ScheduledEndTime, func(id int64) func() {
				return func() { c.AutoEnd(id) }
			}(electionDB.Id))
			restored++
			continue
		}

		c.logger.Warn().
			Int64("election_id", electionDB.Id).
			Time("scheduled_end", *electionDB.ScheduledEndTime).
			Msg("election expired while offline, ending now")
		c.AutoEnd(electionDB.Id)
	}

	c.logger.Info().Int("restored", restored).Msg("election timers restored")
	return nil
}

// RegisterVoter submits the voter registration to the chain first, then
// records the pending ledger entry. A ledger failure after chain success is
// surfaced; the unique voter constraints make a later retry safe.
func (c *Coordinator) RegisterVoter(ctx context.Context, nationalId string, walletAddress string) (*db_models.VoterDB, error) {
	if err := c.gateway.RegisterVoter(ctx, nationalId, walletAddress); err != nil {
		return nil, err
	}

	voterDB := &db_models.VoterDB{
		NationalId:    nationalId,
		WalletAddress: walletAddress,
		Approved:      false,
		CreatedAt:     c.now(),
	}

	if err := c.repos.VoterRepository.Insert(voterDB); err != nil {
		c.logger.Error().Err(err).
			Str("national_id", nationalId).
			Msg("voter registered on chain but ledger write failed")
		return nil, err
	}

	c.logger.Info().Str("national_id", nationalId).Msg("voter registration recorded")
	return voterDB, nil
}

// ApproveVoter approves the voter on chain and then in the ledger, and
// refreshes the voter snapshot on every CREATED or ACTIVE election.
func (c *Coordinator) ApproveVoter(ctx context.Context, voterId int64) error {
	voterDB, err := c.repos.VoterRepository.GetById(voterId)
	if err != nil {
		return err
	}

	if voterDB == nil {
		return ErrVoterNotFound
	}

	wasApproved := voterDB.Approved

	if err := c.gateway.ApproveVoter(ctx, voterDB.NationalId); err != nil {
		return err
	}

	if err := c.repos.VoterRepository.Approve(voterId); err != nil {
		return err
	}

	if !wasApproved {
		if err := c.refreshVoterSnapshots(); err != nil {
			return err
		}
	}

	c.logger.Info().Str("national_id", voterDB.NationalId).Msg("voter approved")
	return nil
}

// RejectVoter removes the registration. This leg is ledger-only; the
// initiating chain registration stands, matching the original protocol.
func (c *Coordinator) RejectVoter(ctx context.Context, voterId int64) error {
	voterDB, err := c.repos.VoterRepository.GetById(voterId)
	if err != nil {
		return err
	}

	if voterDB == nil {
		return ErrVoterNotFound
	}

	wasApproved := voterDB.Approved

	if err := c.repos.VoterRepository.Delete(voterId); err != nil {
		return err
	}

	if wasApproved {
		if err := c.refreshVoterSnapshots(); err != nil {
			return err
		}
	}

	c.logger.Info().Str("national_id", voterDB.NationalId).Msg("voter rejected")
	return nil
}

func (c *Coordinator) refreshVoterSnapshots() error {
	approvedVoters, err := c.repos.VoterRepository.CountApproved()
	if err != nil {
		return err
	}

	return c.repos.ElectionRepository.UpdateVoterSnapshots(approvedVoters)
}

// AddCandidate creates the candidate in the ledger and then on chain, with a
// compensating delete on chain failure (same order as election creation).
func (c *Coordinator) AddCandidate(ctx context.Context, name string, age int, nationalId string, qualification string) (*db_models.CandidateDB, error) {
	existing, err := c.repos.CandidateRepository.GetByNationalId(nationalId)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return nil, ErrCandidateExists
	}

	activeElection, err := c.repos.ElectionRepository.GetActive()
	if err != nil {
		return nil, err
	}

	if activeElection != nil {
		return nil, ErrElectionActive
	}

	candidateDB := &db_models.CandidateDB{
		Name:          name,
		Age:           age,
		NationalId:    nationalId,
		Qualification: qualification,
	}

	if err := c.repos.CandidateRepository.Insert(candidateDB); err != nil {
		return nil, err
	}

	if err := c.gateway.AddCandidate(ctx, name, age, nationalId, qualification); err != nil {
		c.logger.Error().Err(err).
			Int64("candidate_id", candidateDB.Id).
			Msg("chain candidate creation failed, rolling back ledger row")

		if cleanupErr := c.repos.CandidateRepository.Delete(candidateDB.Id); cleanupErr != nil {
			c.logger.Error().Err(cleanupErr).
				Int64("candidate_id", candidateDB.Id).
				Msg("failed to clean up candidate after chain failure")
		}

		return nil, err
	}

	c.logger.Info().Int64("candidate_id", candidateDB.Id).Str("name", name).Msg("candidate added")
	return candidateDB, nil
}

// RemoveCandidate deletes a candidate unless it participates in an ACTIVE
// election.
func (c *Coordinator) RemoveCandidate(ctx context.Context, candidateId int64) error {
	candidateDB, err := c.repos.CandidateRepository.GetById(candidateId)
	if err != nil {
		return err
	}

	if candidateDB == nil {
		return ErrCandidateNotFound
	}

	inActive, err := c.repos.CandidateRepository.InActiveElection(candidateId)
	if err != nil {
		return err
	}

	if inActive {
		return ErrCandidateInActiveElection
	}

	return c.repos.CandidateRepository.Delete(candidateId)
}

// ClearCandidates removes every candidate and association, blocked while an
// election is ACTIVE.
func (c *Coordinator) ClearCandidates(ctx context.Context) error {
	activeElection, err := c.repos.ElectionRepository.GetActive()
	if err != nil {
		return err
	}

	if activeElection != nil {
		return ErrElectionActive
	}

	return c.repos.CandidateRepository.DeleteAll()
}

func (c *Coordinator) Candidates() ([]*db_models.CandidateDB, error) {
	return c.repos.CandidateRepository.GetAll()
}

func (c *Coordinator) PendingVoters() ([]*db_models.VoterDB, error) {
	return c.repos.VoterRepository.GetPending()
}

func (c *Coordinator) ApprovedVoters() ([]*db_models.VoterDB, error) {
	return c.repos.VoterRepository.GetApproved()
}

// CurrentElection returns the ACTIVE election with tallies, or nil.
func (c *Coordinator) CurrentElection() (*Result, error) {
	electionDB, err := c.repos.ElectionRepository.GetActive()
	if err != nil {
		return nil, err
	}

	if electionDB == nil {
		return nil, nil
	}

	return c.buildResult(electionDB)
}

// Elections returns every election, newest first, with tallies.
func (c *Coordinator) Elections() ([]*Result, error) {
	electionsDB, err := c.repos.ElectionRepository.GetByStatus(
		db_models.ElectionStatusCreated,
		db_models.ElectionStatusActive,
		db_models.ElectionStatusEnded,
	)
	if err != nil {
		return nil, err
	}

	return c.buildResults(electionsDB)
}

// CompletedElections returns ENDED elections with their final tallies.
func (c *Coordinator) CompletedElections() ([]*Result, error) {
	electionsDB, err := c.repos.ElectionRepository.GetByStatus(db_models.ElectionStatusEnded)
	if err != nil {
		return nil, err
	}

	return c.buildResults(electionsDB)
}

// ElectionResults returns one election's tallies.
func (c *Coordinator) ElectionResults(electionId int64) (*Result, error) {
	electionDB, err := c.repos.ElectionRepository.GetById(electionId)
	if err != nil {
		return nil, err
	}

	if electionDB == nil {
		return nil, ErrElectionNotFound
	}

	return c.buildResult(electionDB)
}

// ElectionVotes returns the individual vote records for an election.
func (c *Coordinator) ElectionVotes(electionId int64) ([]*db_models.VoteDB, error) {
	electionDB, err := c.repos.ElectionRepository.GetById(electionId)
	if err != nil {
		return nil, err
	}

	if electionDB == nil {
		return nil, ErrElectionNotFound
	}

	return c.repos.VoteRepository.GetByElection(electionId)
}

func (c *Coordinator) buildResults(electionsDB []*db_models.ElectionDB) ([]*Result, error) {
	results := make([]*Result, 0, len(electionsDB))

	for _, electionDB := range electionsDB {
		result, err := c.buildResult(electionDB)
		if err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	return results, nil
}

func (c *Coordinator) buildResult(electionDB *db_models.ElectionDB) (*Result, error) {
	tallies, err := c.repos.ElectionRepository.GetCandidateTallies(electionDB.Id)
	if err != nil {
		return nil, err
	}

	totalVotes := 0
	for _, tally := range tallies {
		totalVotes += tally.VoteCount
	}

	return &Result{
		Election:   electionDB,
		Candidates: tallies,
		TotalVotes: totalVotes,
	}, nil
}
