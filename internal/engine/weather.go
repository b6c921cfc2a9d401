// Daily weather: optional noise-driven yield modifier per settlement.
package engine

import (
	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/social"
	"github.com/talgya/medieval-sim/internal/weather"
)

// WeatherSystem sets each settlement's WeatherYield at midnight.
// With zero amplitude it never touches the world.
type WeatherSystem struct {
	Amplitude float64
	gen       *weather.Generator
}

// NewWeatherSystem creates a weather system seeded for the run.
func NewWeatherSystem(seed int64, amplitude float64) *WeatherSystem {
	return &WeatherSystem{Amplitude: amplitude, gen: weather.NewGenerator(seed)}
}

func (*WeatherSystem) Name() string { return "weather" }
func (*WeatherSystem) Order() int   { return 8 }

// Tick samples one day of weather for every settlement.
func (ws *WeatherSystem) Tick(ctx *Context) error {
	if ws.Amplitude <= 0 || ctx.Hour() != 0 {
		return nil
	}
	now := ctx.Now()
	for i, e := range ecs.All[*social.Settlement](ctx.World) {
		c := ws.gen.Sample(i, now)
		e.Component.WeatherYield = c.Yield(ws.Amplitude)
		ctx.Log.Debug("weather", "settlement", e.Component.Name, "conditions", c.Description, "yield", e.Component.WeatherYield)
	}
	return nil
}
