package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/stitts-dev/fight-edge/pkg/oddsmath"
	"github.com/stitts-dev/fight-edge/pkg/utils"
)

type OddsHandler struct{}

func NewOddsHandler() *OddsHandler {
	return &OddsHandler{}
}

type FormattedOdds struct {
	Input     string          `json:"input"`
	Format    oddsmath.Format `json:"format"`
	Formatted string          `json:"formatted"`
}

// FormatOdds renders ?value= in the requested ?format= (american by default).
func (h *OddsHandler) FormatOdds(c *gin.Context) {
	format, err := oddsmath.ParseFormat(c.Query("format"))
	if err != nil {
		utils.SendValidationError(c, "Invalid format", err.Error())
		return
	}

	value := c.Query("value")
	utils.SendSuccess(c, FormattedOdds{
		Input:     value,
		Format:    format,
		Formatted: oddsmath.FormatOdds(value, format),
	})
}
