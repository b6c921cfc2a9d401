// Package weather generates deterministic daily weather per settlement and
// maps it to simulation modifiers.
package weather

import (
	"math"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Noise sampling scales. Days vary slowly; sites are far apart in noise space.
const (
	dayFrequency  = 0.08
	siteSpacing   = 17.0
	noiseOctaves  = 3
	noisePersist  = 0.5
	stormVariance = 0.85
)

// Generator produces weather from layered OpenSimplex noise.
type Generator struct {
	growth opensimplex.Noise
	temp   opensimplex.Noise
}

// NewGenerator creates a generator seeded for one run.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		growth: opensimplex.NewNormalized(seed),
		temp:   opensimplex.NewNormalized(seed + 1),
	}
}

// Conditions is one day of weather at one site.
type Conditions struct {
	Growth      float64 `json:"growth"` // -1 blight to +1 bumper
	Temp        float64 `json:"temp"`   // Celsius
	IsStorm     bool    `json:"is_storm"`
	Description string  `json:"description"`
}

// Sample returns the weather for site on the given day.
func (g *Generator) Sample(site int, day time.Time) Conditions {
	x := float64(site) * siteSpacing
	y := float64(day.Unix()/86400) * dayFrequency

	growth := octaveNoise(g.growth, x, y, noiseOctaves, 1, noisePersist)*2 - 1
	temp := seasonalTemp(day.Month()) + (octaveNoise(g.temp, x, y, noiseOctaves, 1, noisePersist)*2-1)*8

	c := Conditions{
		Growth:  growth,
		Temp:    temp,
		IsStorm: math.Abs(growth) > stormVariance,
	}
	c.Description = describe(c, day.Month())
	return c
}

// Yield maps conditions to a production multiplier in [0, 2].
func (c Conditions) Yield(amplitude float64) float64 {
	return math.Max(0, math.Min(2, 1+amplitude*c.Growth))
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func seasonalTemp(m time.Month) float64 {
	switch m {
	case time.December, time.January, time.February:
		return 2
	case time.March, time.April, time.May:
		return 11
	case time.June, time.July, time.August:
		return 21
	default:
		return 12
	}
}

func describe(c Conditions, m time.Month) string {
	switch {
	case c.IsStorm && c.Temp < 0:
		return "blizzard"
	case c.IsStorm:
		return "storms"
	case c.Growth > 0.4:
		return "gentle rain"
	case c.Growth < -0.4:
		return "drought"
	}
	switch m {
	case time.March, time.April, time.May:
		return "mild spring weather"
	case time.June, time.July, time.August:
		return "warm summer sun"
	case time.September, time.October, time.November:
		return "cool autumn breeze"
	default:
		return "cold winter chill"
	}
}
