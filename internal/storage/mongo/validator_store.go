package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/storage"
)

// ValidatorStore implements storage.ValidatorStore on the validator collection.
type ValidatorStore struct {
	db *DB
}

// NewValidatorStore creates a new ValidatorStore.
func NewValidatorStore(db *DB) *ValidatorStore {
	return &ValidatorStore{db: db}
}

// GetByID retrieves a validator. Returns ErrNotFound if not exists.
func (s *ValidatorStore) GetByID(ctx context.Context, id string) (*domain.ValidatorRecord, error) {
	var v domain.ValidatorRecord
	if err := s.db.findOne(ctx, CollValidator, "validator.get_by_id", bson.D{{Key: "id", Value: id}}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// FindByIDs retrieves the validators with the given ids.
func (s *ValidatorStore) FindByIDs(ctx context.Context, ids []string) ([]*domain.ValidatorRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var vals []*domain.ValidatorRecord
	filter := bson.D{{Key: "id", Value: bson.D{{Key: "$in", Value: ids}}}}
	if err := s.db.findAll(ctx, CollValidator, "validator.find_by_ids", filter, &vals); err != nil {
		return nil, err
	}
	return vals, nil
}

// UnclaimedEraStore implements storage.UnclaimedEraStore on unclaimedEraInfo.
type UnclaimedEraStore struct {
	db *DB
}

// NewUnclaimedEraStore creates a new UnclaimedEraStore.
func NewUnclaimedEraStore(db *DB) *UnclaimedEraStore {
	return &UnclaimedEraStore{db: db}
}

// GetByValidator retrieves the unclaimed eras of a validator.
func (s *UnclaimedEraStore) GetByValidator(ctx context.Context, validator string) (*domain.UnclaimedEraInfo, error) {
	var u domain.UnclaimedEraInfo
	if err := s.db.findOne(ctx, CollUnclaimedEra, "unclaimed_era.get_by_validator", bson.D{{Key: "validator", Value: validator}}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByValidators retrieves the unclaimed eras of several validators.
func (s *UnclaimedEraStore) FindByValidators(ctx context.Context, validators []string) ([]*domain.UnclaimedEraInfo, error) {
	if len(validators) == 0 {
		return nil, nil
	}
	var infos []*domain.UnclaimedEraInfo
	filter := bson.D{{Key: "validator", Value: bson.D{{Key: "$in", Value: validators}}}}
	if err := s.db.findAll(ctx, CollUnclaimedEra, "unclaimed_era.find_by_validators", filter, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// SlashStore implements storage.SlashStore on validatorSlash.
type SlashStore struct {
	db *DB
}

// NewSlashStore creates a new SlashStore.
func NewSlashStore(db *DB) *SlashStore {
	return &SlashStore{db: db}
}

// FindByValidators retrieves every slash of the given validators.
func (s *SlashStore) FindByValidators(ctx context.Context, validators []string) ([]*domain.ValidatorSlash, error) {
	if len(validators) == 0 {
		return nil, nil
	}
	var slashes []*domain.ValidatorSlash
	filter := bson.D{{Key: "address", Value: bson.D{{Key: "$in", Value: validators}}}}
	if err := s.db.findAll(ctx, CollValidatorSlash, "slash.find_by_validators", filter, &slashes); err != nil {
		return nil, err
	}
	return slashes, nil
}

// NominatorStore implements storage.NominatorStore on the nominator collection.
type NominatorStore struct {
	db *DB
}

// NewNominatorStore creates a new NominatorStore.
func NewNominatorStore(db *DB) *NominatorStore {
	return &NominatorStore{db: db}
}

// GetByAddress retrieves a nominator. Returns ErrNotFound if not exists.
func (s *NominatorStore) GetByAddress(ctx context.Context, address string) (*domain.NominatorRecord, error) {
	var n domain.NominatorRecord
	if err := s.db.findOne(ctx, CollNominator, "nominator.get_by_address", bson.D{{Key: "address", Value: address}}, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// FindByAddresses retrieves the nominators with the given addresses.
func (s *NominatorStore) FindByAddresses(ctx context.Context, addresses []string) ([]*domain.NominatorRecord, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	var noms []*domain.NominatorRecord
	filter := bson.D{{Key: "address", Value: bson.D{{Key: "$in", Value: addresses}}}}
	if err := s.db.findAll(ctx, CollNominator, "nominator.find_by_addresses", filter, &noms); err != nil {
		return nil, err
	}
	return noms, nil
}

// ChainInfoStore implements storage.ChainInfoStore on the chainInfo singleton.
type ChainInfoStore struct {
	db *DB
}

// NewChainInfoStore creates a new ChainInfoStore.
func NewChainInfoStore(db *DB) *ChainInfoStore {
	return &ChainInfoStore{db: db}
}

// Get retrieves the chain info. Returns ErrNotFound if absent.
func (s *ChainInfoStore) Get(ctx context.Context) (*domain.ChainInfo, error) {
	var info domain.ChainInfo
	if err := s.db.findOne(ctx, CollChainInfo, "chain_info.get", bson.D{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Compile-time interface checks.
var (
	_ storage.ValidatorStore    = (*ValidatorStore)(nil)
	_ storage.UnclaimedEraStore = (*UnclaimedEraStore)(nil)
	_ storage.SlashStore        = (*SlashStore)(nil)
	_ storage.NominatorStore    = (*NominatorStore)(nil)
	_ storage.ChainInfoStore    = (*ChainInfoStore)(nil)
)
