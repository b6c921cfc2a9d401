// Package realm describes a starting world and bootstraps it into the
// engine: factions, settlements, households, routes, and recurring events.
package realm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/medieval-sim/internal/social"
)

// Scenario is the declarative description of a starting world.
type Scenario struct {
	Name        string           `yaml:"name"`
	Factions    []FactionSpec    `yaml:"factions"`
	Relations   []RelationSpec   `yaml:"relations"`
	Settlements []SettlementSpec `yaml:"settlements"`
	Routes      []RouteSpec      `yaml:"routes"`
}

// FactionSpec describes one faction.
type FactionSpec struct {
	Name     string     `yaml:"name"`
	Treasury float64    `yaml:"treasury"`
	Policy   PolicySpec `yaml:"policy"`
}

// PolicySpec mirrors social.FactionPolicy.
type PolicySpec struct {
	DailyFoodPerPerson  float64 `yaml:"daily_food_per_person"`
	BufferDays          int     `yaml:"buffer_days"`
	MealHours           []int   `yaml:"meal_hours"`
	WillTradeExternally bool    `yaml:"will_trade_externally"`
	MinRelationToTrade  int     `yaml:"min_relation_to_trade"`
	TitheRate           float64 `yaml:"tithe_rate"`
	MarketFeeRate       float64 `yaml:"market_fee_rate"`
	TransitTollPerUnit  float64 `yaml:"transit_toll_per_unit"`
}

// Policy converts the spec to a faction policy.
func (p PolicySpec) Policy() social.FactionPolicy {
	return social.FactionPolicy{
		DailyFoodPerPerson:  p.DailyFoodPerPerson,
		BufferDays:          p.BufferDays,
		MealHours:           append([]int(nil), p.MealHours...),
		WillTradeExternally: p.WillTradeExternally,
		MinRelationToTrade:  p.MinRelationToTrade,
		Taxes: social.TaxPolicy{
			TitheRate:          p.TitheRate,
			MarketFeeRate:      p.MarketFeeRate,
			TransitTollPerUnit: p.TransitTollPerUnit,
		},
	}
}

// RelationSpec sets one faction's opinion of another.
type RelationSpec struct {
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Score  int    `yaml:"score"`
	Mutual bool   `yaml:"mutual"`
}

// SettlementSpec describes one settlement and its households.
type SettlementSpec struct {
	Name       string  `yaml:"name"`
	Faction    string  `yaml:"faction"`
	Type       string  `yaml:"type"`
	Capital    bool    `yaml:"capital"`
	FoodStock  float64 `yaml:"food_stock"`
	Population int     `yaml:"population"`
	WealthAvg  float64 `yaml:"wealth_avg"`
	WealthVar  float64 `yaml:"wealth_var"`

	MarketName  string   `yaml:"market_name"`
	Price       float64  `yaml:"price"`        // zero means 1.0
	FeeOverride *float64 `yaml:"fee_override"` // nil means faction rate

	WagePool    float64            `yaml:"wage_pool"`
	Wages       map[string]float64 `yaml:"wages"`       // profession name -> daily base wage
	Specialties map[string]float64 `yaml:"specialties"` // profession name -> sampling weight
}

// RouteSpec connects two settlements by name.
type RouteSpec struct {
	From  string  `yaml:"from"`
	To    string  `yaml:"to"`
	Hours float64 `yaml:"hours"`
}

var settlementTypes = map[string]social.SettlementKind{
	"":             social.SettlementVillage,
	"hamlet":       social.SettlementHamlet,
	"village":      social.SettlementVillage,
	"town":         social.SettlementTown,
	"city":         social.SettlementCity,
	"castle":       social.SettlementCastle,
	"port":         social.SettlementPort,
	"caravanserai": social.SettlementCaravanserai,
	"mine":         social.SettlementMine,
	"abbey":        social.SettlementAbbey,
}

// ParseScenario decodes a YAML scenario and validates it.
func ParseScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	if err := yaml.NewDecoder(r).Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return ParseScenario(f)
}

// Validate checks names, references, and ranges.
func (sc *Scenario) Validate() error {
	var errs []error
	factions := make(map[string]bool, len(sc.Factions))
	for _, f := range sc.Factions {
		if f.Name == "" {
			errs = append(errs, errors.New("faction with empty name"))
			continue
		}
		if factions[f.Name] {
			errs = append(errs, fmt.Errorf("duplicate faction %q", f.Name))
		}
		factions[f.Name] = true
		p := f.Policy
		if len(p.MealHours) == 0 {
			errs = append(errs, fmt.Errorf("faction %q: no meal hours", f.Name))
		}
		for _, h := range p.MealHours {
			if h < 0 || h > 23 {
				errs = append(errs, fmt.Errorf("faction %q: meal hour %d out of range", f.Name, h))
			}
		}
		if p.BufferDays < 0 || p.DailyFoodPerPerson < 0 {
			errs = append(errs, fmt.Errorf("faction %q: negative food policy", f.Name))
		}
	}
	for _, r := range sc.Relations {
		if !factions[r.From] || !factions[r.To] {
			errs = append(errs, fmt.Errorf("relation %q -> %q: unknown faction", r.From, r.To))
		}
	}

	settlements := make(map[string]bool, len(sc.Settlements))
	for _, s := range sc.Settlements {
		if s.Name == "" {
			errs = append(errs, errors.New("settlement with empty name"))
			continue
		}
		if settlements[s.Name] {
			errs = append(errs, fmt.Errorf("duplicate settlement %q", s.Name))
		}
		settlements[s.Name] = true
		if !factions[s.Faction] {
			errs = append(errs, fmt.Errorf("settlement %q: unknown faction %q", s.Name, s.Faction))
		}
		if _, ok := settlementTypes[s.Type]; !ok {
			errs = append(errs, fmt.Errorf("settlement %q: unknown type %q", s.Name, s.Type))
		}
		if s.Population < 0 || s.FoodStock < 0 || s.WagePool < 0 {
			errs = append(errs, fmt.Errorf("settlement %q: negative stock", s.Name))
		}
		for name := range s.Wages {
			if _, err := social.ParseProfession(name); err != nil {
				errs = append(errs, fmt.Errorf("settlement %q wages: %w", s.Name, err))
			}
		}
		for name := range s.Specialties {
			if _, err := social.ParseProfession(name); err != nil {
				errs = append(errs, fmt.Errorf("settlement %q specialties: %w", s.Name, err))
			}
		}
	}
	for _, r := range sc.Routes {
		if !settlements[r.From] || !settlements[r.To] {
			errs = append(errs, fmt.Errorf("route %q - %q: unknown settlement", r.From, r.To))
		}
		if r.Hours <= 0 {
			errs = append(errs, fmt.Errorf("route %q - %q: hours must be positive", r.From, r.To))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid scenario: %w", errors.Join(errs...))
	}
	return nil
}
