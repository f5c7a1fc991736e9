// Package api exposes the coordinator and the vote admission service over
// REST. Handlers stay thin: validation and state live below.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/riorajhon/block-vote/internal/chain"
	repositories "github.com/riorajhon/block-vote/internal/database/repositories"
	"github.com/riorajhon/block-vote/internal/election"
	"github.com/riorajhon/block-vote/internal/votes"
)

type Server struct {
	coordinator *election.Coordinator
	admission   *votes.AdmissionService
	logger      zerolog.Logger
}

func NewServer(coordinator *election.Coordinator, admission *votes.AdmissionService, logger zerolog.Logger) *Server {
	return &Server{
		coordinator: coordinator,
		admission:   admission,
		logger:      logger.With().Str("component", "api").Logger(),
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/voters/register", s.registerVoter)
		apiGroup.POST("/elections/vote", s.castVote)
		apiGroup.GET("/elections/current", s.currentElection)
		apiGroup.GET("/elections/completed", s.completedElections)
		apiGroup.GET("/elections/:id/results", s.electionResults)
		apiGroup.GET("/elections/:id/votes", s.electionVotes)
		apiGroup.GET("/candidates", s.listCandidates)

		admin := apiGroup.Group("/admin")
		{
			admin.GET("/voters/pending", s.pendingVoters)
			admin.GET("/voters/approved", s.approvedVoters)
			admin.POST("/voters/:id/approve", s.approveVoter)
			admin.POST("/voters/:id/reject", s.rejectVoter)

			admin.POST("/candidates", s.addCandidate)
			admin.DELETE("/candidates/:id", s.removeCandidate)
			admin.DELETE("/candidates", s.clearCandidates)

			admin.GET("/elections", s.listElections)
			admin.POST("/elections", s.createElection)
			admin.POST("/elections/:id/start", s.startElection)
			admin.POST("/elections/:id/end", s.endElection)
		}
	}

	return router
}

// writeError maps domain errors onto status codes with the human-readable
// reason as the body, never a stack trace.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var txErr *chain.TransactionError
	var netErr *chain.NetworkError

	switch {
	case errors.Is(err, election.ErrElectionNotFound),
		errors.Is(err, election.ErrVoterNotFound),
		errors.Is(err, election.ErrCandidateNotFound):
		status = http.StatusNotFound
	case errors.Is(err, votes.ErrAlreadyVoted),
		errors.Is(err, repositories.ErrVoterExists),
		errors.Is(err, election.ErrCandidateExists):
		status = http.StatusConflict
	case errors.Is(err, election.ErrInvalidStateTransition),
		errors.Is(err, election.ErrInvalidDuration),
		errors.Is(err, election.ErrNoChainElection),
		errors.Is(err, election.ErrCandidateCount),
		errors.Is(err, election.ErrCandidatesMissing),
		errors.Is(err, election.ErrNoApprovedVoters),
		errors.Is(err, election.ErrElectionActive),
		errors.Is(err, election.ErrCandidateInActiveElection),
		errors.Is(err, votes.ErrNoActiveElection),
		errors.Is(err, votes.ErrVoterNotApproved),
		errors.Is(err, votes.ErrCandidateNotInElection):
		status = http.StatusBadRequest
	case errors.Is(err, election.ErrInconsistentChainState),
		errors.As(err, &txErr),
		errors.As(err, &netErr):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
