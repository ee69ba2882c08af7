package domain

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Identity is the on-chain identity of a validator.
type Identity struct {
	Display    string `bson:"display" json:"display"`
	Parent     string `bson:"parent" json:"parent"`
	Sub        string `bson:"sub" json:"sub"`
	IsVerified bool   `bson:"isVerified" json:"isVerified"`
}

// StatusChange tracks the latest commission change of a validator.
type StatusChange struct {
	Commission float64 `bson:"commission" json:"commission"`
}

// StakerPoint is the era points earned by a validator in one era.
type StakerPoint struct {
	Era    uint32 `bson:"era" json:"era"`
	Points uint32 `bson:"points" json:"points"`
}

// ValidatorRecord represents one document of the validator collection.
// It is not era-scoped and is mutated as chain state changes.
// Optional fields stay nil when the document omits them.
type ValidatorRecord struct {
	ID           string        `bson:"id"`
	Identity     *Identity     `bson:"identity,omitempty"`
	StatusChange *StatusChange `bson:"statusChange,omitempty"`
	StakerPoints []StakerPoint `bson:"stakerPoints,omitempty"`
	AverageApy   *float64      `bson:"averageApy,omitempty"`
	Blocked      *bool         `bson:"blocked,omitempty"`
}

// IndividualExposure is one nominator's stake behind a validator.
type IndividualExposure struct {
	Who   string `bson:"who" json:"who"`
	Value U128   `bson:"value" json:"value"`
}

// Exposure is the stake backing a validator in one era.
type Exposure struct {
	Total  U128                 `bson:"total" json:"total"`
	Own    U128                 `bson:"own" json:"own"`
	Others []IndividualExposure `bson:"others" json:"others"`
}

// Balance is an account's locked and free balance.
type Balance struct {
	LockedBalance U128 `bson:"lockedBalance" json:"lockedBalance"`
	FreeBalance   U128 `bson:"freeBalance" json:"freeBalance"`
}

// RawNominator is a nominator entry as stored: either a bare address string
// (legacy shape) or a document carrying the address and balance.
type RawNominator struct {
	Address string
	Balance *Balance
	Legacy  bool // true when the entry was a bare string
}

type rawNominatorDoc struct {
	Address string   `bson:"address" json:"address"`
	Balance *Balance `bson:"balance,omitempty" json:"balance,omitempty"`
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (n *RawNominator) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.String:
		rv := bson.RawValue{Type: t, Value: data}
		*n = RawNominator{Address: rv.StringValue(), Legacy: true}
		return nil
	case bsontype.EmbeddedDocument:
		var doc rawNominatorDoc
		if err := bson.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode nominator: %w", err)
		}
		*n = RawNominator{Address: doc.Address, Balance: doc.Balance}
		return nil
	default:
		return fmt.Errorf("decode nominator: unsupported bson type %s", t)
	}
}

// UnmarshalJSON accepts the same two shapes as the BSON decoder.
func (n *RawNominator) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = RawNominator{Address: s, Legacy: true}
		return nil
	}
	var doc rawNominatorDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode nominator: %w", err)
	}
	*n = RawNominator{Address: doc.Address, Balance: doc.Balance}
	return nil
}

// NominationRecord represents one document of the nomination collection.
// Immutable once written; keyed by (Era, Validator).
type NominationRecord struct {
	Era        uint32         `bson:"era"`
	Validator  string         `bson:"validator"`
	Exposure   Exposure       `bson:"exposure"`
	Commission float64        `bson:"commission"` // percentage scale, 0-100
	Apy        float64        `bson:"apy"`        // fraction, 0-1
	Nominators []RawNominator `bson:"nominators"`
	Total      *U128          `bson:"total,omitempty"`
	SelfStake  *U128          `bson:"selfStake,omitempty"`
}

// UnclaimedEraInfo lists eras whose payouts a validator has not claimed.
// Absence means no unclaimed eras.
type UnclaimedEraInfo struct {
	Validator string  `bson:"validator"`
	Eras      []int32 `bson:"eras"`
}

// SlashNominator is a nominator's share of a slash.
type SlashNominator struct {
	Address string `bson:"address" json:"address"`
	Value   U128   `bson:"value" json:"value"`
}

// ValidatorSlash is one slash applied to a validator.
type ValidatorSlash struct {
	Address string           `bson:"address" json:"address"`
	Era     uint32           `bson:"era" json:"era"`
	Total   U128             `bson:"total" json:"total"`
	Others  []SlashNominator `bson:"others" json:"others"`
}

// ChainInfo is the single chainInfo document of a chain database.
type ChainInfo struct {
	ActiveEra uint32 `bson:"activeEra" json:"activeEra"`
}
