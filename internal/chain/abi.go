package chain

// votingSystemABI is the surface of the deployed VotingSystem contract used
// by the gateway. The contract itself is an external collaborator; only its
// method signatures matter here.
const votingSystemABI = `[
  {"type":"function","name":"createElection","stateMutability":"nonpayable","inputs":[{"name":"candidateIds","type":"uint256[]"}],"outputs":[]},
  {"type":"function","name":"startElection","stateMutability":"nonpayable","inputs":[{"name":"electionId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"endElection","stateMutability":"nonpayable","inputs":[{"name":"electionId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"approveVoter","stateMutability":"nonpayable","inputs":[{"name":"nationalId","type":"string"}],"outputs":[]},
  {"type":"function","name":"registerVoter","stateMutability":"nonpayable","inputs":[{"name":"nationalId","type":"string"},{"name":"wallet","type":"address"}],"outputs":[]},
  {"type":"function","name":"addCandidate","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"},{"name":"age","type":"uint256"},{"name":"nationalId","type":"string"},{"name":"qualification","type":"string"}],"outputs":[]},
  {"type":"function","name":"startRegistrationPhase","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"isRegistrationPhaseActive","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"currentElectionId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getElectionStatus","stateMutability":"view","inputs":[{"name":"electionId","type":"uint256"}],"outputs":[{"name":"status","type":"uint8"},{"name":"createdTime","type":"uint256"},{"name":"startedTime","type":"uint256"},{"name":"endedTime","type":"uint256"}]}
]`
