package domain

// EventType identifies the collection a user event mapping points into.
type EventType int

// Event types as stored in userEventMapping.type.
const (
	EventPayout        EventType = 0
	EventCommission    EventType = 1
	EventKick          EventType = 2
	EventChill         EventType = 3
	EventInactive      EventType = 4
	EventStalePayout   EventType = 5
	EventOverSubscribe EventType = 6
)

// AllEventTypes lists every event type in ascending order.
var AllEventTypes = []EventType{
	EventPayout,
	EventCommission,
	EventKick,
	EventChill,
	EventInactive,
	EventStalePayout,
	EventOverSubscribe,
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	return t >= EventPayout && t <= EventOverSubscribe
}

// UserEventMapping links a stash and era to one event document.
// Mapping is the hex id of the referenced document.
type UserEventMapping struct {
	Address string    `bson:"address"`
	Era     uint32    `bson:"era"`
	Type    EventType `bson:"type"`
	Mapping string    `bson:"mapping"`
}

// CommissionChange records a validator commission update in one era.
type CommissionChange struct {
	Address        string  `bson:"address" json:"address"`
	Era            uint32  `bson:"era" json:"era"`
	CommissionFrom float64 `bson:"commissionFrom" json:"commissionFrom"`
	CommissionTo   float64 `bson:"commissionTo" json:"commissionTo"`
}

// StalePayoutEvent records eras a validator left unclaimed too long.
type StalePayoutEvent struct {
	Address             string  `bson:"address" json:"address"`
	Era                 uint32  `bson:"era" json:"era"`
	UnclaimedPayoutEras []int32 `bson:"unclaimedPayoutEras" json:"unclaimedPayoutEras"`
}

// KickEvent records a nominator being kicked by a validator.
type KickEvent struct {
	Era       uint32 `bson:"era" json:"era"`
	Validator string `bson:"validator" json:"validator"`
	Nominator string `bson:"nominator" json:"nominator"`
}

// ChillEvent records a validator being chilled.
type ChillEvent struct {
	Era     uint32 `bson:"era" json:"era"`
	Address string `bson:"address" json:"address"`
}

// OverSubscribeEvent records a nominator falling outside a validator's
// rewarded set.
type OverSubscribeEvent struct {
	Nominator string `bson:"nominator" json:"nominator"`
	Amount    U128   `bson:"amount" json:"amount"`
	Address   string `bson:"address" json:"address"`
	Era       uint32 `bson:"era" json:"era"`
}

// InactiveEvent records an era in which a nominator had no active stake.
type InactiveEvent struct {
	Address string `bson:"address" json:"address"`
	Era     uint32 `bson:"era" json:"era"`
}

// PayoutEvent is a stashInfo entry surfaced as a staking event.
type PayoutEvent struct {
	Era       int32   `bson:"era" json:"era"`
	Amount    float64 `bson:"amount" json:"amount"`
	Timestamp Millis  `bson:"timestamp" json:"timestamp"`
	Address   string  `bson:"stash" json:"address"`
}

// StakingEvents is every event resolved for a stash over an era range.
// Each list is empty, never nil.
type StakingEvents struct {
	Commissions    []CommissionChange   `json:"commissions"`
	Slashes        []ValidatorSlash     `json:"slashes"`
	Inactive       []uint32             `json:"inactive"`
	StalePayouts   []StalePayoutEvent   `json:"stalePayouts"`
	Payouts        []PayoutEvent        `json:"payouts"`
	Kicks          []KickEvent          `json:"kicks"`
	Chills         []ChillEvent         `json:"chills"`
	OverSubscribes []OverSubscribeEvent `json:"overSubscribes"`
}

// NewStakingEvents returns StakingEvents with every list initialised.
func NewStakingEvents() StakingEvents {
	return StakingEvents{
		Commissions:    []CommissionChange{},
		Slashes:        []ValidatorSlash{},
		Inactive:       []uint32{},
		StalePayouts:   []StalePayoutEvent{},
		Payouts:        []PayoutEvent{},
		Kicks:          []KickEvent{},
		Chills:         []ChillEvent{},
		OverSubscribes: []OverSubscribeEvent{},
	}
}
