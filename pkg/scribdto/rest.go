package scribdto

// JoinResult is the body returned by POST /game/{id}/join. The token is the
// bearer credential for all later calls; it is carried opaquely here and
// decoded only by the auth layer.
type JoinResult struct {
	Player Player `json:"player"`
	Token  string `json:"token"`
}

// Ack is the generic success body of the action endpoints (guess, start,
// select_word).
type Ack struct {
	Message string `json:"message"`
}

type JoinRequest struct {
	Name string `json:"name"`
}

type GuessRequest struct {
	Guess string `json:"guess"`
}

type SelectWordRequest struct {
	Word string `json:"word"`
}
