package entities

import "time"

// User represents a platform user participating in scoring.
type User struct {
	ID        int64
	Username  string
	Score     int    // cumulative score, mutated only through the ledger
	Title     string // derived from Score, never hand-set
	IsActive  bool
	CreatedAt time.Time
}

func NewUser(username string) *User {
	return &User{
		Username: username,
		IsActive: true,
	}
}

// RankedUser is one row of the leaderboard ordering.
type RankedUser struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Title    string `json:"title"`
}
