package entity

import (
	"math/big"
	"time"
)

type PriceRound struct {
	RoundId         uint64    `json:"roundId"`
	Answer          *big.Int  `json:"answer"`
	StartedAt       time.Time `json:"startedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	AnsweredInRound uint64    `json:"answeredInRound"`
}
