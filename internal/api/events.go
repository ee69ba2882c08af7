package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/events"
)

type eraRangeQuery struct {
	FromEra *uint32 `form:"from_era" binding:"required"`
	ToEra   *uint32 `form:"to_era" binding:"required"`
}

func (q *eraRangeQuery) bind(c *gin.Context) (events.Range, error) {
	if err := bindQuery(c, q); err != nil {
		return events.Range{}, err
	}
	return events.Range{From: *q.FromEra, To: *q.ToEra}, nil
}

// commissionChanges returns the commission changes of ?validators=a,b in
// [from_era, to_era].
func (s *Server) commissionChanges(c *gin.Context) (any, error) {
	var q eraRangeQuery
	r, err := q.bind(c)
	if err != nil {
		return nil, err
	}
	stashes, err := stashList(c.Query("validators"))
	if err != nil {
		return nil, err
	}
	return chainOf(c).Events.CommissionChanges(c.Request.Context(), stashes, r)
}

func (s *Server) stalePayouts(c *gin.Context) (any, error) {
	var q eraRangeQuery
	r, err := q.bind(c)
	if err != nil {
		return nil, err
	}
	stashes, err := stashList(c.Query("validators"))
	if err != nil {
		return nil, err
	}
	return chainOf(c).Events.StalePayouts(c.Request.Context(), stashes, r)
}

func (s *Server) inactiveEras(c *gin.Context) (any, error) {
	stash, err := stashParam(c)
	if err != nil {
		return nil, err
	}
	var q eraRangeQuery
	r, err := q.bind(c)
	if err != nil {
		return nil, err
	}
	return chainOf(c).Events.InactiveEras(c.Request.Context(), stash, r)
}

// userEvents returns the staking events of the stash. ?types=0,2 restricts
// the event kinds; every kind is returned when it is absent.
func (s *Server) userEvents(c *gin.Context) (any, error) {
	stash, err := stashParam(c)
	if err != nil {
		return nil, err
	}
	var q eraRangeQuery
	r, err := q.bind(c)
	if err != nil {
		return nil, err
	}
	types, err := eventTypes(c.Query("types"))
	if err != nil {
		return nil, err
	}
	return chainOf(c).Events.UserEvents(c.Request.Context(), stash, r, types)
}

func eventTypes(raw string) ([]domain.EventType, error) {
	var out []domain.EventType
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return nil, errors.Wrapf(errInvalidParam, "event type %q", part)
		}
		out = append(out, domain.EventType(n))
	}
	return out, nil
}
