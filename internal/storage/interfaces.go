package storage

import (
	"context"

	"validator-explorer/internal/domain"
)

// Range is an inclusive [Min, Max] bound on a float field.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// NominationFilter selects nomination records of one era.
// Nil ranges are unbounded. Commission is in the stored percentage scale.
type NominationFilter struct {
	Era        uint32
	Apy        *Range
	Commission *Range
}

// Match reports whether r satisfies the filter.
func (f NominationFilter) Match(r *domain.NominationRecord) bool {
	if r.Era != f.Era {
		return false
	}
	if f.Apy != nil && !f.Apy.Contains(r.Apy) {
		return false
	}
	if f.Commission != nil && !f.Commission.Contains(r.Commission) {
		return false
	}
	return true
}

// NominationStore provides access to the per-era nomination collection.
type NominationStore interface {
	// FindByEra retrieves records matching the filter in store-native order.
	// skip and limit apply after filtering; limit 0 means no limit.
	FindByEra(ctx context.Context, f NominationFilter, skip, limit int) ([]*domain.NominationRecord, error)

	// FindVerifiedByEra is FindByEra restricted to records whose validator
	// identity is verified. skip and limit count verified records only.
	FindVerifiedByEra(ctx context.Context, f NominationFilter, skip, limit int) ([]*domain.NominationRecord, error)

	// FindByValidators retrieves the records of the given validators in one era.
	// When expand is set, nominator entries carry the nominator's balance.
	FindByValidators(ctx context.Context, era uint32, validators []string, expand bool) ([]*domain.NominationRecord, error)

	// FindByValidator retrieves every record of a validator, ordered by era ASC.
	FindByValidator(ctx context.Context, validator string) ([]*domain.NominationRecord, error)

	// LatestByValidator retrieves the most recent record of a validator with
	// nominator entries expanded. Returns ErrNotFound if none exists.
	LatestByValidator(ctx context.Context, validator string) (*domain.NominationRecord, error)
}

// ValidatorStore provides access to the validator metadata collection.
type ValidatorStore interface {
	// GetByID retrieves a validator. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.ValidatorRecord, error)

	// FindByIDs retrieves the validators with the given ids. Missing ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.ValidatorRecord, error)
}

// UnclaimedEraStore provides access to unclaimed payout tracking.
type UnclaimedEraStore interface {
	// GetByValidator retrieves the unclaimed eras of a validator.
	// Returns ErrNotFound if none are tracked.
	GetByValidator(ctx context.Context, validator string) (*domain.UnclaimedEraInfo, error)

	// FindByValidators retrieves the unclaimed eras of several validators.
	FindByValidators(ctx context.Context, validators []string) ([]*domain.UnclaimedEraInfo, error)
}

// SlashStore provides access to validator slashes.
type SlashStore interface {
	// FindByValidators retrieves every slash of the given validators.
	FindByValidators(ctx context.Context, validators []string) ([]*domain.ValidatorSlash, error)
}

// NominatorStore provides access to nominator records.
type NominatorStore interface {
	// GetByAddress retrieves a nominator. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.NominatorRecord, error)

	// FindByAddresses retrieves the nominators with the given addresses.
	FindByAddresses(ctx context.Context, addresses []string) ([]*domain.NominatorRecord, error)
}

// RewardStore provides access to the stash reward ledger.
type RewardStore interface {
	// FindByStash retrieves the ledger of a stash in store-native order.
	FindByStash(ctx context.Context, stash string) ([]*domain.RewardLedgerEntry, error)
}

// PriceStore provides access to daily asset prices.
type PriceStore interface {
	// GetByDay retrieves the price of the UTC day starting at day (unix seconds).
	// Returns ErrNotFound if no price is recorded.
	GetByDay(ctx context.Context, day int64) (*domain.CoinPrice, error)

	// Upsert records the price of a day, replacing any existing value.
	Upsert(ctx context.Context, p *domain.CoinPrice) error
}

// ChainInfoStore provides access to the chain-info singleton.
type ChainInfoStore interface {
	// Get retrieves the chain info. Returns ErrNotFound if absent.
	Get(ctx context.Context) (*domain.ChainInfo, error)
}

// EventStore provides access to era-scoped staking events.
type EventStore interface {
	// Commissions retrieves commission changes of validators within [fromEra, toEra].
	Commissions(ctx context.Context, validators []string, fromEra, toEra uint32) ([]*domain.CommissionChange, error)

	// StalePayouts retrieves stale payout events of validators within [fromEra, toEra].
	StalePayouts(ctx context.Context, validators []string, fromEra, toEra uint32) ([]*domain.StalePayoutEvent, error)

	// InactiveEras retrieves the eras within [fromEra, toEra] in which a stash was inactive.
	InactiveEras(ctx context.Context, stash string, fromEra, toEra uint32) ([]uint32, error)

	// Mappings retrieves the user event mappings of a stash within [fromEra, toEra]
	// restricted to the given types.
	Mappings(ctx context.Context, stash string, fromEra, toEra uint32, types []domain.EventType) ([]*domain.UserEventMapping, error)

	// PayoutsByIDs resolves payout mappings.
	PayoutsByIDs(ctx context.Context, ids []string) ([]*domain.PayoutEvent, error)
	// CommissionsByIDs resolves commission mappings.
	CommissionsByIDs(ctx context.Context, ids []string) ([]*domain.CommissionChange, error)
	// KicksByIDs resolves kick mappings.
	KicksByIDs(ctx context.Context, ids []string) ([]*domain.KickEvent, error)
	// ChillsByIDs resolves chill mappings.
	ChillsByIDs(ctx context.Context, ids []string) ([]*domain.ChillEvent, error)
	// InactiveByIDs resolves inactive mappings.
	InactiveByIDs(ctx context.Context, ids []string) ([]*domain.InactiveEvent, error)
	// StalePayoutsByIDs resolves stale payout mappings.
	StalePayoutsByIDs(ctx context.Context, ids []string) ([]*domain.StalePayoutEvent, error)
	// OverSubscribesByIDs resolves over-subscribe mappings.
	OverSubscribesByIDs(ctx context.Context, ids []string) ([]*domain.OverSubscribeEvent, error)
}

// NominationActionStore provides access to UI nomination records.
type NominationActionStore interface {
	// Insert adds a nomination action. Returns ErrDuplicateKey if the tag exists.
	Insert(ctx context.Context, a *domain.NominationAction) error

	// SetResult records the extrinsic outcome of a tagged action.
	// Returns ErrNotFound if the tag does not exist.
	SetResult(ctx context.Context, tag, extrinsicHash, refKey string) error

	// GetByStash retrieves a stash's nomination action. Returns ErrNotFound if not exists.
	GetByStash(ctx context.Context, stash string) (*domain.NominationAction, error)
}

// RefKeyStore provides access to referral keys.
type RefKeyStore interface {
	// Upsert stores the key of a stash, replacing any previous key.
	Upsert(ctx context.Context, r *domain.RefKeyRecord) error

	// GetByStash retrieves the key of a stash. Returns ErrNotFound if not exists.
	GetByStash(ctx context.Context, stash string) (*domain.RefKeyRecord, error)

	// GetByKey retrieves the record holding a key. Returns ErrNotFound if not exists.
	GetByKey(ctx context.Context, refKey string) (*domain.RefKeyRecord, error)
}

// NewsletterStore provides access to newsletter subscribers.
type NewsletterStore interface {
	// Insert adds a subscriber. Returns ErrDuplicateKey if the email exists.
	Insert(ctx context.Context, s *domain.NewsletterSubscriber) error
}
