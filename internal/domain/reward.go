package domain

import (
	"encoding/json"
	"fmt"
)

// RewardLedgerEntry is one raw stashInfo document: the reward a stash
// received in one era.
type RewardLedgerEntry struct {
	Stash     string  `bson:"stash"`
	Era       int32   `bson:"era"`
	Amount    float64 `bson:"amount"`
	Timestamp Millis  `bson:"timestamp"`
}

// StashEraReward is a ledger entry valued in fiat. Total is always
// Price*Amount and is never stored.
type StashEraReward struct {
	Era       int32   `json:"era"`
	Amount    float64 `json:"amount"`
	Timestamp int64   `json:"timestamp"` // unix ms
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
}

// StashRewards is a stash's fiat-valued reward ledger.
type StashRewards struct {
	Stash       string           `json:"stash"`
	EraRewards  []StashEraReward `json:"eraRewards"`
	TotalInFiat float64          `json:"totalInFiat"`
}

// CoinPrice is the asset price of one UTC day.
type CoinPrice struct {
	TimestampDay int64   `bson:"timestamp" json:"timestamp"` // unix seconds at UTC midnight
	Price        float64 `bson:"price" json:"price"`
}

// NominatorRecord represents one document of the nominator collection.
type NominatorRecord struct {
	Address string   `bson:"address"`
	Balance Balance  `bson:"balance"`
	Targets []string `bson:"targets"`
}

// NominatorInfo is a nominator with its targets and, when requested, its
// valued rewards. Snapshots write the account under either "accountId" or
// "address".
type NominatorInfo struct {
	AccountID string        `json:"accountId"`
	Balance   Balance       `json:"balance"`
	Targets   []string      `json:"targets"`
	Rewards   *StashRewards `json:"rewards,omitempty"`
}

// UnmarshalJSON accepts "address" as an alias of "accountId".
func (n *NominatorInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		AccountID string        `json:"accountId"`
		Address   string        `json:"address"`
		Balance   Balance       `json:"balance"`
		Targets   []string      `json:"targets"`
		Rewards   *StashRewards `json:"rewards"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode nominator info: %w", err)
	}
	n.AccountID = raw.AccountID
	if n.AccountID == "" {
		n.AccountID = raw.Address
	}
	n.Balance = raw.Balance
	n.Targets = raw.Targets
	n.Rewards = raw.Rewards
	return nil
}
