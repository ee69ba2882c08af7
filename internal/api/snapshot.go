package api

import (
	"github.com/gin-gonic/gin"
)

// Snapshot routes pass the precomputed snapshots of a chain through.

func (s *Server) snapshotValidators(c *gin.Context) (any, error) {
	return s.snapshots.Validators(c.Request.Context(), chainOf(c).Alias)
}

// validDetail serves the raw 1kv snapshot for ?option=1kv and the all
// validators snapshot otherwise.
func (s *Server) validDetail(c *gin.Context) (any, error) {
	if c.Query("option") == "1kv" {
		return s.snapshots.OneKVSimple(c.Request.Context(), chainOf(c).Alias)
	}
	return s.snapshots.Validators(c.Request.Context(), chainOf(c).Alias)
}

func (s *Server) oneKV(c *gin.Context) (any, error) {
	return s.snapshots.OneKV(c.Request.Context(), chainOf(c).Alias)
}

func (s *Server) snapshotNominators(c *gin.Context) (any, error) {
	return s.snapshots.Nominators(c.Request.Context(), chainOf(c).Alias)
}

func (s *Server) oneKVNominators(c *gin.Context) (any, error) {
	return s.snapshots.OneKVNominators(c.Request.Context(), chainOf(c).Alias)
}
