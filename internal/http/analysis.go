package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/khelo/internal/analysis"
	"github.com/mrlokans/khelo/internal/entities"
)

type AnalysisController struct{}

func NewAnalysisController() *AnalysisController {
	return &AnalysisController{}
}

// AnalysisRequest is the body of POST /api/analysis.
type AnalysisRequest struct {
	AthleteID string                   `json:"athleteId"`
	TestID    string                   `json:"testId"`
	TestName  string                   `json:"testName"`
	Metadata  entities.CaptureMetadata `json:"metadata"`
}

// Generate handles POST /api/analysis
// The result is a pure function of the request; no delay is simulated.
func (ac *AnalysisController) Generate(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	athleteID := req.AthleteID
	if athleteID == "" && req.Metadata.AthleteID == "" {
		athleteID = analysis.DefaultAthleteID
	}

	c.JSON(http.StatusOK, analysis.Generate(athleteID, req.TestID, req.TestName, req.Metadata))
}
