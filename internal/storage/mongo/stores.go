package mongo

import "validator-explorer/internal/storage"

// NewStores wires every chain store onto one database. prices overrides the
// document-store price collection when another backend serves it.
func NewStores(db *DB, prices storage.PriceStore) *storage.Stores {
	if prices == nil {
		prices = NewPriceStore(db)
	}
	return &storage.Stores{
		Nominations:   NewNominationStore(db),
		Validators:    NewValidatorStore(db),
		UnclaimedEras: NewUnclaimedEraStore(db),
		Slashes:       NewSlashStore(db),
		Nominators:    NewNominatorStore(db),
		Rewards:       NewRewardStore(db),
		Prices:        prices,
		ChainInfo:     NewChainInfoStore(db),
		Events:        NewEventStore(db),
	}
}

// NewActionStores wires the user action stores onto one database.
func NewActionStores(db *DB) *storage.ActionStores {
	return &storage.ActionStores{
		Nominations: NewNominationActionStore(db),
		RefKeys:     NewRefKeyStore(db),
		Newsletter:  NewNewsletterStore(db),
	}
}
