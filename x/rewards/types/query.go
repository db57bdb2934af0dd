package types

// QueryEntryResponse is a participant's entry valued at the current rate
type QueryEntryResponse struct {
	Entry  *ParticipantShare `json:"entry"`
	Value  string            `json:"value"`
	Earned string            `json:"earned"`
}

// QueryPoolResponse is the pool snapshot
type QueryPoolResponse struct {
	Pool   *Pool  `json:"pool"`
	Params Params `json:"params"`
}

// QueryClaimableResponse is what a claim would pay right now
type QueryClaimableResponse struct {
	Owner  string `json:"owner"`
	Value  string `json:"value"`
	Earned string `json:"earned"`
}
