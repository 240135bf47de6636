package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/coachengine/internal/formula"
	"github.com/mark3labs/mcp-go/mcp"
)

type effortFactors struct {
	Effort       int     `json:"effort"`
	MET          float64 `json:"met"`
	CarbShare    float64 `json:"carb_share"`
	ProteinPerKg float64 `json:"protein_g_per_kg"`
	WaterPerHour float64 `json:"water_ml_per_hour"`
}

func formulaCatalog() map[string]any {
	factors := make([]effortFactors, 0, 11)
	for e := 0; e <= 10; e++ {
		f := float64(e)
		factors = append(factors, effortFactors{
			Effort:       e,
			MET:          formula.MET(f),
			CarbShare:    formula.CarbShare(f),
			ProteinPerKg: formula.ProteinPerKg(f),
			WaterPerHour: formula.WaterPerHour(f),
		})
	}
	return map[string]any{
		"one_rep_max":         formula.DefaultOneRepMax.Table(),
		"max_estimable_reps":  formula.MaxEstimableReps,
		"effort_factors":      factors,
		"default_weight_kg":   formula.DefaultWeightKg,
		"kcal_per_kj":         formula.KcalPerKJ,
		"kcal_per_gram_carbs": formula.KcalPerGramCarb,
	}
}

func (h *handlers) formulaCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(formulaCatalog())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
