package internal

// Methods (GameSession struct). Callers must hold s.Mu.

func (s *GameSession) OpponentId(playerId string) string {
	if playerId == s.Player1Id {
		return s.Player2Id
	}
	return s.Player1Id
}

func (s *GameSession) HasPlayer(playerId string) bool {
	return playerId == s.Player1Id || playerId == s.Player2Id
}

func (s *GameSession) ConnectedCount() int {
	count := 0
	for _, player := range s.Players {
		if player != nil && player.IsConnected {
			count++
		}
	}
	return count
}

func (s *GameSession) BothPlayersPresent() bool {
	return s.Player1Id != "" && s.Player2Id != "" && s.ConnectedCount() == PlayersPerRoom
}

// ActiveRound returns the round for the current round number, or nil if it
// has not been created yet.
func (s *GameSession) ActiveRound() *Round {
	return s.Rounds[s.CurrentRound]
}

func (r *Round) BothSubmitted() bool {
	return len(r.Submissions) >= PlayersPerRoom
}

// AllRoundsCompleted reports whether every created round has been closed.
// Persistence refuses to write a match before this holds.
func (s *GameSession) AllRoundsCompleted() bool {
	if len(s.Rounds) == 0 {
		return false
	}
	for _, round := range s.Rounds {
		if round.Status != RoundCompleted {
			return false
		}
	}
	return true
}

// UsedQuestionIds lists the question ids already played in this session.
func (s *GameSession) UsedQuestionIds() []int64 {
	ids := make([]int64, 0, len(s.Rounds))
	for _, round := range s.Rounds {
		if round.Question != nil {
			ids = append(ids, round.Question.Id)
		}
	}
	return ids
}
