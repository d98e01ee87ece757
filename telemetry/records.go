package telemetry

// TurnRecord is one row of turns.csv: a player's state after a turn.
type TurnRecord struct {
	Turn        int     `csv:"turn"`
	Player      int     `csv:"player"`
	Score       int     `csv:"score"`
	ScoreRate   float64 `csv:"score_rate"`
	Ships       int     `csv:"ships"`
	Dropoffs    int     `csv:"dropoffs"`
	HaliteLeft  int     `csv:"halite_left"`
	Moves       int     `csv:"moves"`
	Conversions int     `csv:"conversions"`
	Spawned     bool    `csv:"spawned"`
	EndGame     bool    `csv:"end_game"`
	Idle        int     `csv:"idle"`
	Mining      int     `csv:"mining"`
	Returning   int     `csv:"returning"`
	ElapsedUS   int64   `csv:"elapsed_us"`
}

// MatchRecord is one row of matches.csv: a player's final result.
type MatchRecord struct {
	Seed   int64  `csv:"seed"`
	Player int    `csv:"player"`
	Name   string `csv:"name"`
	Score  int    `csv:"score"`
	Ships  int    `csv:"ships"`
	Rank   int    `csv:"rank"`
	Turns  int    `csv:"turns"`
}
