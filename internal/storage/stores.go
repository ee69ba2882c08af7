package storage

// Stores bundles the stores of one chain database.
type Stores struct {
	Nominations   NominationStore
	Validators    ValidatorStore
	UnclaimedEras UnclaimedEraStore
	Slashes       SlashStore
	Nominators    NominatorStore
	Rewards       RewardStore
	Prices        PriceStore
	ChainInfo     ChainInfoStore
	Events        EventStore
}

// ActionStores bundles the stores of user-submitted actions. They live in
// one database shared by every chain.
type ActionStores struct {
	Nominations NominationActionStore
	RefKeys     RefKeyStore
	Newsletter  NewsletterStore
}
