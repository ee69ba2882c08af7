// Package snapshot reads the precomputed validator and nominator snapshots
// another process publishes per chain.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/logging"
	"validator-explorer/internal/observability"
	"validator-explorer/internal/storage"
)

// Snapshot keys, prefixed by the chain alias.
const (
	KeyValidators      = "validDetailAll"
	KeyOneKV           = "onekv"
	KeyOneKVTimestamp  = "onekv_timestamp"
	KeyNominators      = "nominators"
	KeyOneKVNominators = "onekvNominators"
)

// Reader decodes snapshots from a Source.
type Reader struct {
	src Source
	log *logrus.Entry
}

// NewReader creates a new Reader.
func NewReader(src Source, log *logrus.Entry) *Reader {
	return &Reader{src: src, log: logging.OrDefault(log)}
}

// load fetches and decodes one snapshot. Misses are counted and returned
// as storage.ErrNotFound.
func (r *Reader) load(ctx context.Context, chain, key string, v any) error {
	data, err := r.src.Get(ctx, chain, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			observability.RecordSnapshotMiss(chain, key)
		}
		return fmt.Errorf("snapshot %s%s: %w", chain, key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode snapshot %s%s: %w", chain, key, err)
	}
	return nil
}

// Validators returns every validator of the "all validators" snapshot.
// A missing snapshot yields an empty list.
func (r *Reader) Validators(ctx context.Context, chain string) ([]json.RawMessage, error) {
	var snap ValidatorsSnapshot
	if err := r.load(ctx, chain, KeyValidators, &snap); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []json.RawMessage{}, nil
		}
		return nil, err
	}
	if snap.Valid == nil {
		snap.Valid = []json.RawMessage{}
	}
	return snap.Valid, nil
}

// OneKVSimple returns the 1kv snapshot as published.
func (r *Reader) OneKVSimple(ctx context.Context, chain string) (*OneKV, error) {
	var snap OneKV
	if err := r.load(ctx, chain, KeyOneKV, &snap); err != nil {
		return nil, err
	}
	if snap.Valid == nil {
		snap.Valid = []OneKVValidator{}
	}
	return &snap, nil
}

// OneKV returns the 1kv snapshot with each candidate marked valid when all
// of its validity checks pass, and the publication time attached.
func (r *Reader) OneKV(ctx context.Context, chain string) (*OneKV, error) {
	snap, err := r.OneKVSimple(ctx, chain)
	if err != nil {
		return nil, err
	}

	valid := true
	for i := range snap.Valid {
		if snap.Valid[i].passes() {
			snap.Valid[i].Valid = &valid
		}
	}

	modified := uint64(0)
	data, err := r.src.Get(ctx, chain, KeyOneKVTimestamp)
	switch {
	case err == nil:
		if ts, perr := strconv.ParseUint(string(data), 10, 64); perr == nil {
			snap.ModifiedTime = &ts
		} else {
			r.log.WithFields(logrus.Fields{
				"chain": chain,
				"value": string(data),
			}).Warn("unparsable 1kv timestamp")
		}
	case errors.Is(err, storage.ErrNotFound):
		snap.ModifiedTime = &modified
	default:
		return nil, fmt.Errorf("snapshot %s%s: %w", chain, KeyOneKVTimestamp, err)
	}
	return snap, nil
}

// Nominators returns every nominator of the nominator snapshot. A missing
// snapshot yields an empty list.
func (r *Reader) Nominators(ctx context.Context, chain string) ([]domain.NominatorInfo, error) {
	var nominators []domain.NominatorInfo
	if err := r.load(ctx, chain, KeyNominators, &nominators); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []domain.NominatorInfo{}, nil
		}
		return nil, err
	}
	if nominators == nil {
		nominators = []domain.NominatorInfo{}
	}
	return nominators, nil
}

// Nominator returns the snapshot entry of stash, or storage.ErrNotFound.
func (r *Reader) Nominator(ctx context.Context, chain, stash string) (*domain.NominatorInfo, error) {
	nominators, err := r.Nominators(ctx, chain)
	if err != nil {
		return nil, err
	}
	for i := range nominators {
		if nominators[i].AccountID == stash {
			return &nominators[i], nil
		}
	}
	return nil, fmt.Errorf("nominator %s in snapshot: %w", stash, storage.ErrNotFound)
}

// OneKVNominators returns the 1kv nominator snapshot.
func (r *Reader) OneKVNominators(ctx context.Context, chain string) (*OneKVNominators, error) {
	var snap OneKVNominators
	if err := r.load(ctx, chain, KeyOneKVNominators, &snap); err != nil {
		return nil, err
	}
	if snap.Nominators == nil {
		snap.Nominators = []OneKVNominator{}
	}
	return &snap, nil
}

// ProgramMembers returns the stashes of the 1kv snapshot.
func (r *Reader) ProgramMembers(ctx context.Context, chain string) (map[string]struct{}, error) {
	snap, err := r.OneKVSimple(ctx, chain)
	if err != nil {
		return nil, err
	}
	members := make(map[string]struct{}, len(snap.Valid))
	for _, v := range snap.Valid {
		members[v.Stash] = struct{}{}
	}
	return members, nil
}
