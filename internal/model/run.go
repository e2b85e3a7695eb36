package model

import "time"

// MiningRun records the parameters and dataset shape of one association rule run.
type MiningRun struct {
	CreatedAt    time.Time
	Source       string
	Country      string
	KeyColumn    string
	Metric       string
	ID           int64
	MinSupport   float64
	MinThreshold float64
	Transactions int
	Items        int
	ItemsetCount int
	RuleCount    int
}
