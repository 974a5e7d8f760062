package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetRollingYearRevenue returns the complete 12-month revenue series
// ending in the current month.
func (s *Server) GetRollingYearRevenue(c *gin.Context) {
	if s.statsSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	series, err := s.statsSvc.CalculateForRollingYear(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"months": series})
}

func (s *Server) GetRevenueStatistics(c *gin.Context) {
	if s.statsSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	stats, err := s.statsSvc.CalculateStatistics(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RecalculateRevenue rebuilds the rolling-window aggregates from the
// invoice table and reports how many periods changed.
func (s *Server) RecalculateRevenue(c *gin.Context) {
	if s.statsSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	changed, err := s.statsSvc.RecalculateForYear(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"changed_periods": changed})
}
