package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"validator-explorer/internal/collector"
	"validator-explorer/internal/rewards"
)

// stashRewards values the stash's reward ledger. ?format=csv renders it
// as CSV instead of JSON.
func (s *Server) stashRewards(c *gin.Context) (any, error) {
	stash, err := stashParam(c)
	if err != nil {
		return nil, err
	}

	format := c.DefaultQuery("format", collector.FormatJSON)
	if format != collector.FormatJSON && format != collector.FormatCSV {
		return nil, errors.Wrapf(errInvalidParam, "format %q", format)
	}

	r, err := chainOf(c).Rewards.StashRewards(c.Request.Context(), stash)
	if err != nil {
		return nil, err
	}
	if format == collector.FormatCSV {
		c.Header("Content-Disposition", `attachment; filename="`+stash+`.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(rewards.RenderCSV(r)))
		return nil, nil
	}
	return r, nil
}

func (s *Server) nominatorInfo(c *gin.Context) (any, error) {
	stash, err := stashParam(c)
	if err != nil {
		return nil, err
	}
	return chainOf(c).Rewards.NominatorInfo(c.Request.Context(), stash)
}

type collectQuery struct {
	Start        string   `form:"start" binding:"omitempty,datetime=2006-01-02"`
	End          string   `form:"end" binding:"omitempty,datetime=2006-01-02"`
	Currency     string   `form:"currency" binding:"omitempty,alpha,len=3"`
	PriceData    *bool    `form:"price_data"`
	StartBalance *float64 `form:"start_balance" binding:"omitempty,gte=0"`
}

// collectRewards runs the rewards collector for the stash.
func (s *Server) collectRewards(c *gin.Context) (any, error) {
	stash, err := stashParam(c)
	if err != nil {
		return nil, err
	}
	var q collectQuery
	if err := bindQuery(c, &q); err != nil {
		return nil, err
	}
	if s.collector == nil {
		return nil, errors.Wrap(errUnavailable, "collector not configured")
	}

	req := collector.Request{
		Stash:     stash,
		Network:   chainOf(c).Name,
		Start:     q.Start,
		End:       q.End,
		Currency:  q.Currency,
		PriceData: q.PriceData,
	}
	if q.StartBalance != nil {
		req.StartBalance = *q.StartBalance
	}
	return s.collector.Run(c.Request.Context(), req)
}

// rewardsReport serves the last report the collector kept for the stash.
func (s *Server) rewardsReport(format string) handlerFunc {
	contentType := "application/json"
	if format == collector.FormatCSV {
		contentType = "text/csv; charset=utf-8"
	}

	return func(c *gin.Context) (any, error) {
		stash, err := stashParam(c)
		if err != nil {
			return nil, err
		}
		if s.collector == nil {
			return nil, errors.Wrap(errNotFound, "collector not configured")
		}
		data, err := s.collector.Report(stash, format)
		if err != nil {
			return nil, err
		}
		c.Data(http.StatusOK, contentType, data)
		return nil, nil
	}
}
