package dto

import (
	"github.com/projectledger/projectledger/internal/domain/schedule"
)

type ScheduleAnalysisResponse struct {
	*schedule.Analysis
}

// PortfolioAnalysisResponse holds one analysis per project that could be analyzed and the error
// message of each that could not.
type PortfolioAnalysisResponse struct {
	Analyses map[string]*ScheduleAnalysisResponse `json:"analyses"`
	Errors   map[string]string                    `json:"errors,omitempty"`
}
