// Package observability exposes Prometheus metrics derived from the
// simulation's drained event batches.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/medieval-sim/internal/ecs"
	"github.com/talgya/medieval-sim/internal/events"
)

// Namer resolves an entity id to a human readable label.
type Namer func(id ecs.EntityID) string

// SimCollector turns event batches into counters and gauges.
type SimCollector struct {
	events      *prometheus.CounterVec
	tradeUnits  *prometheus.CounterVec
	mealsMissed *prometheus.CounterVec
	foodPrice   *prometheus.GaugeVec
	ticks       prometheus.Counter
	simClock    prometheus.Gauge

	namer    Namer
	gatherer prometheus.Gatherer
}

// NewSimCollector registers the simulation metrics with reg. A nil reg uses
// the default Prometheus registerer.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer, ok := reg.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}

	eventsVec, err := registerCounterVec(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_events_total",
			Help: "Events drained from the simulation bus.",
		},
		[]string{"category", "kind"},
	), "sim_events_total")
	if err != nil {
		return nil, err
	}

	tradeUnits, err := registerCounterVec(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_trade_units_total",
			Help: "Food units moved by caravans.",
		},
		[]string{"stage"},
	), "sim_trade_units_total")
	if err != nil {
		return nil, err
	}

	mealsMissed, err := registerCounterVec(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_meals_missed_total",
			Help: "Meals that could not be served, per settlement.",
		},
		[]string{"settlement"},
	), "sim_meals_missed_total")
	if err != nil {
		return nil, err
	}

	foodPrice, err := registerGaugeVec(reg, prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sim_food_price",
			Help: "Latest food price per settlement market.",
		},
		[]string{"settlement"},
	), "sim_food_price")
	if err != nil {
		return nil, err
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Completed simulation ticks.",
	}), "sim_ticks_total")
	if err != nil {
		return nil, err
	}

	simClock, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_clock_unix_seconds",
		Help: "Simulation time of the last completed tick.",
	}), "sim_clock_unix_seconds")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		events:      eventsVec,
		tradeUnits:  tradeUnits,
		mealsMissed: mealsMissed,
		foodPrice:   foodPrice,
		ticks:       ticks,
		simClock:    simClock,
		gatherer:    gatherer,
	}, nil
}

// SetNamer sets the resolver used for settlement labels. Without one the
// entity id is used.
func (c *SimCollector) SetNamer(n Namer) {
	if c == nil {
		return
	}
	c.namer = n
}

// Observe consumes one drained batch. The bus calls it once per tick.
func (c *SimCollector) Observe(batch []events.Event) {
	if c == nil {
		return
	}
	c.ticks.Inc()
	for _, e := range batch {
		c.events.WithLabelValues(e.Category, e.Kind).Inc()
		switch e.Kind {
		case "trade.dispatched":
			c.tradeUnits.WithLabelValues("dispatched").Add(e.Amount)
		case "trade.delivered":
			c.tradeUnits.WithLabelValues("delivered").Add(e.Amount)
		case "meals.missed":
			c.mealsMissed.WithLabelValues(c.label(e.Entity)).Add(e.Amount)
		case "price":
			c.foodPrice.WithLabelValues(c.label(e.Entity)).Set(e.Amount)
		}
	}
}

// SetClock records the simulation time of the last tick.
func (c *SimCollector) SetClock(t time.Time) {
	if c == nil {
		return
	}
	c.simClock.Set(float64(t.Unix()))
}

// Handler serves the registry in the Prometheus text format.
func (c *SimCollector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func (c *SimCollector) label(id ecs.EntityID) string {
	if c.namer != nil {
		if name := c.namer(id); name != "" {
			return name
		}
	}
	return strconv.FormatUint(uint64(id), 10)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
