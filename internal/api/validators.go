package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/ss58"
	"validator-explorer/internal/storage"
	"validator-explorer/internal/validators"
)

// allValidatorsQuery holds the query of the era validator list. Apy and
// commission bounds are fractions in [0, 1]; a missing bound of a given
// range defaults to the end of that interval.
type allValidatorsQuery struct {
	Era                 *uint32  `form:"era"`
	Page                int      `form:"page" binding:"gte=0"`
	Size                *int     `form:"size" binding:"required,gt=0,lte=2000"`
	ApyMin              *float64 `form:"apy_min" binding:"omitempty,gte=0,lte=1"`
	ApyMax              *float64 `form:"apy_max" binding:"omitempty,gte=0,lte=1"`
	CommissionMin       *float64 `form:"commission_min" binding:"omitempty,gte=0,lte=1"`
	CommissionMax       *float64 `form:"commission_max" binding:"omitempty,gte=0,lte=1"`
	HasVerifiedIdentity bool     `form:"has_verified_identity"`
	OneKV               bool     `form:"1kv"`
}

func (q *allValidatorsQuery) options(era uint32) (validators.ListOptions, error) {
	opts := validators.ListOptions{
		Era:                era,
		Page:               q.Page,
		Size:               *q.Size,
		RequireVerified:    q.HasVerifiedIdentity,
		OnlyProgramMembers: q.OneKV,
	}

	var err error
	if opts.Apy, err = unitRange("apy", q.ApyMin, q.ApyMax); err != nil {
		return opts, err
	}
	if opts.Commission, err = unitRange("commission", q.CommissionMin, q.CommissionMax); err != nil {
		return opts, err
	}
	return opts, nil
}

func unitRange(name string, lo, hi *float64) (*storage.Range, error) {
	if lo == nil && hi == nil {
		return nil, nil
	}
	r := &storage.Range{Min: 0, Max: 1}
	if lo != nil {
		r.Min = *lo
	}
	if hi != nil {
		r.Max = *hi
	}
	if r.Min > r.Max {
		return nil, errors.Wrapf(errInvalidParam, "%s_min %v > %s_max %v", name, r.Min, name, r.Max)
	}
	return r, nil
}

func bindQuery(c *gin.Context, q any) error {
	if err := c.ShouldBindQuery(q); err != nil {
		return errors.Wrap(errInvalidParam, err.Error())
	}
	return nil
}

// allValidators lists one page of an era's validators. Without an explicit
// era the current era is used, and an empty first page falls back to the
// previous era once.
func (s *Server) allValidators(c *gin.Context) (any, error) {
	var q allValidatorsQuery
	if err := bindQuery(c, &q); err != nil {
		return nil, err
	}
	chain := chainOf(c)
	ctx := c.Request.Context()

	era := uint32(0)
	if q.Era != nil {
		era = *q.Era
	} else {
		current, err := chain.Validators.CurrentEra(ctx)
		if err != nil {
			return nil, err
		}
		era = current
	}

	opts, err := q.options(era)
	if err != nil {
		return nil, err
	}
	list, err := chain.Validators.ListByEra(ctx, opts)
	if err != nil {
		return nil, err
	}

	if len(list) == 0 && q.Era == nil && q.Page == 0 && era > 0 {
		opts.Era = era - 1
		if list, err = chain.Validators.ListByEra(ctx, opts); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// validatorTrend returns the validator's history as a one-element list.
func (s *Server) validatorTrend(c *gin.Context) (any, error) {
	stash, err := stashParam(c)
	if err != nil {
		return nil, err
	}
	h, err := chainOf(c).Validators.History(c.Request.Context(), stash)
	if err != nil {
		return nil, err
	}
	return []*domain.ValidatorHistory{h}, nil
}

func (s *Server) unclaimedEras(c *gin.Context) (any, error) {
	stash, err := stashParam(c)
	if err != nil {
		return nil, err
	}
	return chainOf(c).Validators.UnclaimedEras(c.Request.Context(), stash)
}

func (s *Server) validatorSlashes(c *gin.Context) (any, error) {
	stash, err := stashParam(c)
	if err != nil {
		return nil, err
	}
	return chainOf(c).Validators.Slashes(c.Request.Context(), stash)
}

// slashes returns the slashes of ?validators=a,b,c.
func (s *Server) slashes(c *gin.Context) (any, error) {
	stashes, err := stashList(c.Query("validators"))
	if err != nil {
		return nil, err
	}
	return chainOf(c).Validators.SlashesOf(c.Request.Context(), stashes)
}

// nominatedValidators returns the current era records of the validators
// the nominator targets in the latest snapshot.
func (s *Server) nominatedValidators(c *gin.Context) (any, error) {
	stash, err := stashParam(c)
	if err != nil {
		return nil, err
	}
	chain := chainOf(c)
	ctx := c.Request.Context()

	nominator, err := s.snapshots.Nominator(ctx, chain.Alias, stash)
	if err != nil {
		return nil, err
	}
	era, err := chain.Validators.CurrentEra(ctx)
	if err != nil {
		return nil, err
	}
	return chain.Validators.InfoByStashes(ctx, nominator.Targets, era)
}

func (s *Server) era(c *gin.Context) (any, error) {
	chain := chainOf(c)
	era, err := chain.Validators.CurrentEra(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return &eraMessage{Chain: chain.Alias, ActiveEra: era}, nil
}

// stashList splits a comma separated list of SS58 addresses.
func stashList(raw string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !ss58.Valid(part) {
			return nil, errors.Wrapf(errInvalidStash, "%q", part)
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil, errors.Wrap(errInvalidParam, "validators must not be empty")
	}
	return out, nil
}
