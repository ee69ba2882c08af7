package domain

// NominatorRef is the canonical nominator entry of every output record.
// Balance is present only when nominator detail was joined.
type NominatorRef struct {
	Address string   `json:"address"`
	Balance *Balance `json:"balance,omitempty"`
}

// NominationInfo is the era-scoped part of ValidatorNominationInfo.
type NominationInfo struct {
	Nominators     []NominatorRef `json:"nominators"`
	NominatorCount int            `json:"nominatorCount"` // always len(Nominators)
	Era            uint32         `json:"era"`
	Exposure       Exposure       `json:"exposure"`
	Commission     float64        `json:"commission"`
	Apy            float64        `json:"apy"`
	UnclaimedEras  []int32        `json:"unclaimedEras"`
	Total          U128           `json:"total"`
	SelfStake      U128           `json:"selfStake"`
}

// ValidatorNominationInfo is the composite per-era validator record.
// Constructed per request and never persisted.
type ValidatorNominationInfo struct {
	ID           string           `json:"id"`
	StatusChange StatusChange     `json:"statusChange"`
	Identity     Identity         `json:"identity"`
	Blocked      bool             `json:"blocked"`
	StakerPoints []StakerPoint    `json:"stakerPoints"`
	AverageApy   float64          `json:"averageApy"`
	Slashes      []ValidatorSlash `json:"slashes"`
	Info         NominationInfo   `json:"info"`
}

// EraNomination is one era entry of a validator's history. Nominators is
// populated only for the most recent era.
type EraNomination struct {
	Nominators     []NominatorRef `json:"nominators,omitempty"`
	NominatorCount int            `json:"nominatorCount"`
	Era            uint32         `json:"era"`
	Exposure       Exposure       `json:"exposure"`
	Commission     float64        `json:"commission"`
	Apy            float64        `json:"apy"`
	Total          U128           `json:"total"`
	SelfStake      U128           `json:"selfStake"`
}

// ValidatorHistory is a validator joined with every era it was nominated in.
type ValidatorHistory struct {
	ID           string          `json:"id"`
	StatusChange StatusChange    `json:"statusChange"`
	Identity     Identity        `json:"identity"`
	AverageApy   float64         `json:"averageApy"`
	StakerPoints []StakerPoint   `json:"stakerPoints"`
	Info         []EraNomination `json:"info"`
}
