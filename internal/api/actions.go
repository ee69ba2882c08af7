package api

import (
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"validator-explorer/internal/useractions"
)

func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return errors.Wrap(errInvalidParam, err.Error())
	}
	return nil
}

type tagResp struct {
	Tag string `json:"tag"`
}

func (s *Server) recordNomination(c *gin.Context) (any, error) {
	var n useractions.Nomination
	if err := bindJSON(c, &n); err != nil {
		return nil, err
	}
	tag, err := s.actions.RecordNomination(c.Request.Context(), chainOf(c).Alias, n)
	if err != nil {
		return nil, err
	}
	return &tagResp{Tag: tag}, nil
}

type okResp struct {
	OK bool `json:"ok"`
}

func (s *Server) recordNominationResult(c *gin.Context) (any, error) {
	var r useractions.NominationResult
	if err := bindJSON(c, &r); err != nil {
		return nil, err
	}
	if err := s.actions.RecordNominationResult(c.Request.Context(), r); err != nil {
		return nil, err
	}
	return &okResp{OK: true}, nil
}

func (s *Server) nominationRecord(c *gin.Context) (any, error) {
	stash, err := stashParam(c)
	if err != nil {
		return nil, err
	}
	return s.actions.NominationRecord(c.Request.Context(), stash)
}

type refKeyResp struct {
	RefKey string `json:"refKey"`
}

func (s *Server) issueRefKey(c *gin.Context) (any, error) {
	stash, err := stashParam(c)
	if err != nil {
		return nil, err
	}
	key, err := s.actions.IssueRefKey(c.Request.Context(), stash)
	if err != nil {
		return nil, err
	}
	return &refKeyResp{RefKey: key}, nil
}

func (s *Server) refKey(c *gin.Context) (any, error) {
	stash, err := stashParam(c)
	if err != nil {
		return nil, err
	}
	key, err := s.actions.RefKey(c.Request.Context(), stash)
	if err != nil {
		return nil, err
	}
	return &refKeyResp{RefKey: key}, nil
}

type decodedRefKeyResp struct {
	Stash     string `json:"stash"`
	Timestamp int64  `json:"timestamp"`
}

func (s *Server) decodeRefKey(c *gin.Context) (any, error) {
	key, err := s.actions.DecodeRefKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		return nil, err
	}
	return &decodedRefKeyResp{Stash: key.Stash, Timestamp: key.Timestamp}, nil
}

type subscribeReq struct {
	Email string `json:"email"`
}

func (s *Server) subscribe(c *gin.Context) (any, error) {
	var req subscribeReq
	if err := bindJSON(c, &req); err != nil {
		return nil, err
	}
	if err := s.actions.Subscribe(c.Request.Context(), req.Email); err != nil {
		return nil, err
	}
	return &okResp{OK: true}, nil
}
