package normalization

import (
	"github.com/sirupsen/logrus"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/logging"
	"validator-explorer/internal/observability"
)

// Joined is one nomination row with everything joined onto it.
// Validator and Unclaimed are nil when their join missed.
type Joined struct {
	Nomination *domain.NominationRecord
	Validator  *domain.ValidatorRecord
	Unclaimed  *domain.UnclaimedEraInfo
	Slashes    []*domain.ValidatorSlash
}

// Normalizer turns joined store rows into output records. Every default
// fill for the composite entities lives here.
type Normalizer struct {
	chain string
	log   *logrus.Entry
}

// NewNormalizer creates a normalizer for one chain. A nil log uses the
// standard logger.
func NewNormalizer(chain string, log *logrus.Entry) *Normalizer {
	return &Normalizer{
		chain: chain,
		log:   logging.OrDefault(log).WithField("chain", chain),
	}
}

// ValidatorInfo builds the composite record of one joined row.
// A validator metadata miss is logged and filled with defaults.
func (n *Normalizer) ValidatorInfo(j Joined) domain.ValidatorNominationInfo {
	rec := j.Nomination
	if j.Validator == nil {
		n.log.WithFields(logrus.Fields{
			"validator": rec.Validator,
			"era":       rec.Era,
		}).Warn("nomination has no validator metadata")
		observability.RecordJoinMiss(n.chain)
	}

	nominators := Nominators(rec.Nominators)
	unclaimed := []int32{}
	if j.Unclaimed != nil && j.Unclaimed.Eras != nil {
		unclaimed = append(unclaimed, j.Unclaimed.Eras...)
	}

	meta := validatorFields(rec.Validator, j.Validator)
	return domain.ValidatorNominationInfo{
		ID:           meta.id,
		StatusChange: meta.statusChange,
		Identity:     meta.identity,
		Blocked:      meta.blocked,
		StakerPoints: meta.stakerPoints,
		AverageApy:   meta.averageApy,
		Slashes:      Slashes(j.Slashes),
		Info: domain.NominationInfo{
			Nominators:     nominators,
			NominatorCount: len(nominators),
			Era:            rec.Era,
			Exposure:       exposure(rec.Exposure),
			Commission:     rec.Commission,
			Apy:            rec.Apy,
			UnclaimedEras:  unclaimed,
			Total:          u128OrZero(rec.Total),
			SelfStake:      u128OrZero(rec.SelfStake),
		},
	}
}

// History builds a validator's era history. records must be ordered by era.
// latest, when non-nil, backfills the nominators of the entry with the same
// era; every other entry leaves nominators unset.
func (n *Normalizer) History(v *domain.ValidatorRecord, records []*domain.NominationRecord, latest *domain.NominationRecord) domain.ValidatorHistory {
	meta := validatorFields(v.ID, v)

	info := make([]domain.EraNomination, 0, len(records))
	for _, rec := range records {
		info = append(info, domain.EraNomination{
			NominatorCount: len(rec.Nominators),
			Era:            rec.Era,
			Exposure:       exposure(rec.Exposure),
			Commission:     rec.Commission,
			Apy:            rec.Apy,
			Total:          u128OrZero(rec.Total),
			SelfStake:      u128OrZero(rec.SelfStake),
		})
	}

	if latest != nil {
		match := -1
		for i := range info {
			if info[i].Era == latest.Era {
				match = i
			}
		}
		if match >= 0 {
			info[match].Nominators = Nominators(latest.Nominators)
		}
	}

	return domain.ValidatorHistory{
		ID:           meta.id,
		StatusChange: meta.statusChange,
		Identity:     meta.identity,
		AverageApy:   meta.averageApy,
		StakerPoints: meta.stakerPoints,
		Info:         info,
	}
}

// Nominators coerces stored nominator entries into the canonical shape.
// A bare address and a document yield the same shape; only Balance differs.
func Nominators(raw []domain.RawNominator) []domain.NominatorRef {
	out := make([]domain.NominatorRef, 0, len(raw))
	for _, r := range raw {
		ref := domain.NominatorRef{Address: r.Address}
		if r.Balance != nil {
			b := *r.Balance
			ref.Balance = &b
		}
		out = append(out, ref)
	}
	return out
}

// Slashes copies joined slashes, returning an empty slice when there are none.
func Slashes(in []*domain.ValidatorSlash) []domain.ValidatorSlash {
	out := make([]domain.ValidatorSlash, 0, len(in))
	for _, s := range in {
		cp := *s
		if cp.Others == nil {
			cp.Others = []domain.SlashNominator{}
		}
		out = append(out, cp)
	}
	return out
}

type validatorMeta struct {
	id           string
	statusChange domain.StatusChange
	identity     domain.Identity
	blocked      bool
	stakerPoints []domain.StakerPoint
	averageApy   float64
}

func validatorFields(id string, v *domain.ValidatorRecord) validatorMeta {
	m := validatorMeta{id: id, stakerPoints: []domain.StakerPoint{}}
	if v == nil {
		return m
	}
	if v.StatusChange != nil {
		m.statusChange = *v.StatusChange
	}
	if v.Identity != nil {
		m.identity = *v.Identity
	}
	if v.Blocked != nil {
		m.blocked = *v.Blocked
	}
	if v.AverageApy != nil {
		m.averageApy = *v.AverageApy
	}
	if v.StakerPoints != nil {
		m.stakerPoints = append(m.stakerPoints, v.StakerPoints...)
	}
	return m
}

func exposure(e domain.Exposure) domain.Exposure {
	if e.Others == nil {
		e.Others = []domain.IndividualExposure{}
	}
	return e
}

func u128OrZero(u *domain.U128) domain.U128 {
	if u == nil {
		return domain.U128{}
	}
	return *u
}
