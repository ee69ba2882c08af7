package memory

import "validator-explorer/internal/storage"

// Chain holds the in-memory stores of one chain. The concrete types are
// exposed so callers can seed them.
type Chain struct {
	Nominations   *NominationStore
	Validators    *ValidatorStore
	UnclaimedEras *UnclaimedEraStore
	Slashes       *SlashStore
	Nominators    *NominatorStore
	Rewards       *RewardStore
	Prices        *PriceStore
	ChainInfo     *ChainInfoStore
	Events        *EventStore
}

// NewChain creates an empty set of chain stores.
func NewChain() *Chain {
	nominators := NewNominatorStore()
	validators := NewValidatorStore()
	return &Chain{
		Nominations:   NewNominationStore(nominators, validators),
		Validators:    validators,
		UnclaimedEras: NewUnclaimedEraStore(),
		Slashes:       NewSlashStore(),
		Nominators:    nominators,
		Rewards:       NewRewardStore(),
		Prices:        NewPriceStore(),
		ChainInfo:     NewChainInfoStore(),
		Events:        NewEventStore(),
	}
}

// Stores returns the chain stores behind their interfaces.
func (c *Chain) Stores() *storage.Stores {
	return &storage.Stores{
		Nominations:   c.Nominations,
		Validators:    c.Validators,
		UnclaimedEras: c.UnclaimedEras,
		Slashes:       c.Slashes,
		Nominators:    c.Nominators,
		Rewards:       c.Rewards,
		Prices:        c.Prices,
		ChainInfo:     c.ChainInfo,
		Events:        c.Events,
	}
}

// NewActionStores creates empty in-memory user action stores.
func NewActionStores() *storage.ActionStores {
	return &storage.ActionStores{
		Nominations: NewNominationActionStore(),
		RefKeys:     NewRefKeyStore(),
		Newsletter:  NewNewsletterStore(),
	}
}
