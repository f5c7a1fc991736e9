package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	db_models "github.com/riorajhon/block-vote/internal/database/models"
	"github.com/riorajhon/block-vote/internal/election"
)

type registerVoterRequest struct {
	NationalId    string `json:"nationalId" binding:"required"`
	WalletAddress string `json:"walletAddress" binding:"required"`
}

type addCandidateRequest struct {
	Name          string `json:"name" binding:"required"`
	Age           int    `json:"age" binding:"required"`
	NationalId    string `json:"nationalId" binding:"required"`
	Qualification string `json:"qualification" binding:"required"`
}

type createElectionRequest struct {
	Name         string  `json:"name"`
	CandidateIds []int64 `json:"candidateIds" binding:"required"`
}

type startElectionRequest struct {
	DurationMinutes int `json:"durationMinutes" binding:"required"`
}

type castVoteRequest struct {
	VoterNationalId string `json:"voterNationalId" binding:"required"`
	CandidateId     int64  `json:"candidateId" binding:"required"`
	WalletAddress   string `json:"walletAddress" binding:"required"`
}

type candidateResponse struct {
	Id            int64  `json:"id"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	NationalId    string `json:"nationalId"`
	Qualification string `json:"qualification"`
	VoteCount     *int   `json:"voteCount,omitempty"`
}

type electionResponse struct {
	Id               int64               `json:"id"`
	Name             string              `json:"name"`
	Status           string              `json:"status"`
	CreatedAt        time.Time           `json:"createdAt"`
	StartedAt        *time.Time          `json:"startedAt,omitempty"`
	EndedAt          *time.Time          `json:"endedAt,omitempty"`
	ScheduledEndTime *time.Time          `json:"scheduledEndTime,omitempty"`
	DurationMinutes  *int                `json:"durationMinutes,omitempty"`
	TotalVoters      int                 `json:"totalVoters"`
	ChainElectionId  *int64              `json:"chainElectionId,omitempty"`
	Candidates       []candidateResponse `json:"candidates,omitempty"`
	TotalVotes       *int                `json:"totalVotes,omitempty"`
	Turnout          *float64            `json:"turnout,omitempty"`
}

func electionToResponse(electionDB *db_models.ElectionDB) electionResponse {
	return electionResponse{
		Id:               electionDB.Id,
		Name:             electionDB.Name,
		Status:           electionDB.Status,
		CreatedAt:        electionDB.CreatedAt,
		StartedAt:        electionDB.StartedAt,
		EndedAt:          electionDB.EndedAt,
		ScheduledEndTime: electionDB.ScheduledEndTime,
		DurationMinutes:  electionDB.DurationMinutes,
		TotalVoters:      electionDB.TotalVoters,
		ChainElectionId:  electionDB.ChainElectionId,
	}
}

func resultToResponse(result *election.Result) electionResponse {
	response := electionToResponse(result.Election)

	response.Candidates = make([]candidateResponse, 0, len(result.Candidates))
	for _, tally := range result.Candidates {
		voteCount := tally.VoteCount
		response.Candidates = append(response.Candidates, candidateResponse{
			Id:            tally.Candidate.Id,
			Name:          tally.Candidate.Name,
			Age:           tally.Candidate.Age,
			NationalId:    tally.Candidate.NationalId,
			Qualification: tally.Candidate.Qualification,
			VoteCount:     &voteCount,
		})
	}

	totalVotes := result.TotalVotes
	turnout := result.Turnout()
	response.TotalVotes = &totalVotes
	response.Turnout = &turnout

	return response
}

func (s *Server) registerVoter(c *gin.Context) {
	var req registerVoterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voterDB, err := s.coordinator.RegisterVoter(c.Request.Context(), req.NationalId, req.WalletAddress)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      voterDB.Id,
		"message": "voter registration submitted for approval",
	})
}

func (s *Server) pendingVoters(c *gin.Context) {
	votersDB, err := s.coordinator.PendingVoters()
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, votersDB)
}

func (s *Server) approvedVoters(c *gin.Context) {
	votersDB, err := s.coordinator.ApprovedVoters()
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, votersDB)
}

func (s *Server) approveVoter(c *gin.Context) {
	voterId, ok := pathId(c)
	if !ok {
		return
	}

	if err := s.coordinator.ApproveVoter(c.Request.Context(), voterId); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "voter approved on chain and ledger"})
}

func (s *Server) rejectVoter(c *gin.Context) {
	voterId, ok := pathId(c)
	if !ok {
		return
	}

	if err := s.coordinator.RejectVoter(c.Request.Context(), voterId); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "voter rejected"})
}

func (s *Server) listCandidates(c *gin.Context) {
	candidatesDB, err := s.coordinator.Candidates()
	if err != nil {
		s.writeError(c, err)
		return
	}

	response := make([]candidateResponse, 0, len(candidatesDB))
	for _, candidateDB := range candidatesDB {
		response = append(response, candidateResponse{
			Id:            candidateDB.Id,
			Name:          candidateDB.Name,
			Age:           candidateDB.Age,
			NationalId:    candidateDB.NationalId,
			Qualification: candidateDB.Qualification,
		})
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) addCandidate(c *gin.Context) {
	var req addCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidateDB, err := s.coordinator.AddCandidate(c.Request.Context(), req.Name, req.Age, req.NationalId, req.Qualification)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, candidateResponse{
		Id:            candidateDB.Id,
		Name:          candidateDB.Name,
		Age:           candidateDB.Age,
		NationalId:    candidateDB.NationalId,
		Qualification: candidateDB.Qualification,
	})
}

func (s *Server) removeCandidate(c *gin.Context) {
	candidateId, ok := pathId(c)
	if !ok {
		return
	}

	if err := s.coordinator.RemoveCandidate(c.Request.Context(), candidateId); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "candidate removed"})
}

func (s *Server) clearCandidates(c *gin.Context) {
	if err := s.coordinator.ClearCandidates(c.Request.Context()); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all candidates cleared"})
}

func (s *Server) listElections(c *gin.Context) {
	results, err := s.coordinator.Elections()
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resultsToResponses(results))
}

func (s *Server) createElection(c *gin.Context) {
	var req createElectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	electionDB, err := s.coordinator.Create(c.Request.Context(), req.Name, req.CandidateIds)
	if err != nil {
		s.writeError(c, err)
		return
	}

	response := electionToResponse(electionDB)
	c.JSON(http.StatusCreated, gin.H{
		"election": response,
		"message":  "election created on ledger and chain, ready to start",
	})
}

func (s *Server) startElection(c *gin.Context) {
	electionId, ok := pathId(c)
	if !ok {
		return
	}

	var req startElectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	electionDB, err := s.coordinator.Start(c.Request.Context(), electionId, req.DurationMinutes)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, electionToResponse(electionDB))
}

func (s *Server) endElection(c *gin.Context) {
	electionId, ok := pathId(c)
	if !ok {
		return
	}

	electionDB, err := s.coordinator.End(c.Request.Context(), electionId)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, electionToResponse(electionDB))
}

func (s *Server) currentElection(c *gin.Context) {
	result, err := s.coordinator.CurrentElection()
	if err != nil {
		s.writeError(c, err)
		return
	}

	if result == nil {
		c.JSON(http.StatusOK, gin.H{"election": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"election": resultToResponse(result)})
}

func (s *Server) completedElections(c *gin.Context) {
	results, err := s.coordinator.CompletedElections()
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resultsToResponses(results))
}

func (s *Server) electionResults(c *gin.Context) {
	electionId, ok := pathId(c)
	if !ok {
		return
	}

	result, err := s.coordinator.ElectionResults(electionId)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resultToResponse(result))
}

func (s *Server) electionVotes(c *gin.Context) {
	electionId, ok := pathId(c)
	if !ok {
		return
	}

	votesDB, err := s.coordinator.ElectionVotes(electionId)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, votesDB)
}

// castVote records the ledger leg of a vote. The caller confirms the chain
// vote transaction before invoking this endpoint, mirroring the original
// protocol where the wallet signs and submits the chain leg.
func (s *Server) castVote(c *gin.Context) {
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.admission.AdmitVote(c.Request.Context(), req.VoterNationalId, req.CandidateId, req.WalletAddress)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "vote cast successfully",
		"electionId":   result.ElectionId,
		"candidateId":  result.CandidateId,
		"newVoteCount": result.VoteCount,
	})
}

func resultsToResponses(results []*election.Result) []electionResponse {
	responses := make([]electionResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, resultToResponse(result))
	}

	return responses
}

func pathId(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}

	return id, true
}
