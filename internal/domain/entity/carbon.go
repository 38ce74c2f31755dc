package entity

import (
	"math"
	"strings"
)

type materialProfile struct {
	// kg CO2e avoided per kg of material reused instead of manufactured new
	Factor float64
	// kg per cubic metre, used when only dimensions are known
	Density float64
}

var materialProfiles = map[string]materialProfile{
	"timber":       {Factor: 0.45, Density: 500},
	"brick":        {Factor: 0.24, Density: 1900},
	"concrete":     {Factor: 0.13, Density: 2400},
	"steel":        {Factor: 1.55, Density: 7850},
	"aluminium":    {Factor: 9.16, Density: 2700},
	"glass":        {Factor: 0.91, Density: 2500},
	"plasterboard": {Factor: 0.39, Density: 800},
	"insulation":   {Factor: 1.86, Density: 30},
	"tiles":        {Factor: 0.78, Density: 2000},
	"stone":        {Factor: 0.08, Density: 2600},
	"plastic":      {Factor: 3.31, Density: 950},
	"other":        {Factor: 0.50, Density: 1000},
}

func profileFor(material string) materialProfile {
	if p, ok := materialProfiles[strings.ToLower(strings.TrimSpace(material))]; ok {
		return p
	}
	return materialProfiles["other"]
}

// KnownMaterial reports whether material has its own factor rather than the "other" fallback.
func KnownMaterial(material string) bool {
	_, ok := materialProfiles[strings.ToLower(strings.TrimSpace(material))]
	return ok
}

// EstimateCarbonSavings returns kg CO2e saved by reusing the listing's material.
// An explicit weight wins; otherwise weight comes from the dimensions of one unit
// times the quantity. Nothing known means zero.
func EstimateCarbonSavings(l *Listing) float64 {
	p := profileFor(l.Material)

	weight := l.WeightKg
	if weight <= 0 && l.LengthCm > 0 && l.WidthCm > 0 && l.HeightCm > 0 {
		volume := (l.LengthCm / 100) * (l.WidthCm / 100) * (l.HeightCm / 100)
		qty := l.Quantity
		if qty < 1 {
			qty = 1
		}
		weight = volume * p.Density * float64(qty)
	}
	if weight <= 0 {
		return 0
	}

	return math.Round(weight*p.Factor*100) / 100
}
