package realm

// DefaultScenario returns the built-in realm: three factions, four
// settlements, and five roads.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name: "Eldermere",
		Factions: []FactionSpec{
			{
				Name:     "Crown of Eldermere",
				Treasury: 120,
				Policy: PolicySpec{
					DailyFoodPerPerson:  1.0,
					BufferDays:          5,
					MealHours:           []int{9, 18},
					WillTradeExternally: true,
					MinRelationToTrade:  -10,
					TitheRate:           0.08,
					MarketFeeRate:       0.05,
					TransitTollPerUnit:  0.02,
				},
			},
			{
				Name:     "Free Cities League",
				Treasury: 200,
				Policy: PolicySpec{
					DailyFoodPerPerson:  1.2,
					BufferDays:          4,
					MealHours:           []int{8, 13, 19},
					WillTradeExternally: true,
					MinRelationToTrade:  0,
					TitheRate:           0.05,
					MarketFeeRate:       0.06,
					TransitTollPerUnit:  0.03,
				},
			},
			{
				Name:     "Grey Monastic Order",
				Treasury: 60,
				Policy: PolicySpec{
					DailyFoodPerPerson:  0.9,
					BufferDays:          6,
					MealHours:           []int{10, 18},
					WillTradeExternally: true,
					MinRelationToTrade:  -5,
					TitheRate:           0.10,
					MarketFeeRate:       0.03,
					TransitTollPerUnit:  0.01,
				},
			},
		},
		Relations: []RelationSpec{
			{From: "Crown of Eldermere", To: "Free Cities League", Score: 20, Mutual: true},
			{From: "Crown of Eldermere", To: "Grey Monastic Order", Score: 5, Mutual: true},
		},
		Settlements: []SettlementSpec{
			{
				Name:        "Rivenshade",
				Faction:     "Crown of Eldermere",
				Type:        "town",
				Capital:     true,
				FoodStock:   80,
				Population:  320,
				WealthAvg:   6,
				WealthVar:   3,
				MarketName:  "Rivenshade Market",
				WagePool:    150,
				Specialties: map[string]float64{"farmer": 1.5, "miller": 2},
			},
			{
				Name:        "Stoneford",
				Faction:     "Crown of Eldermere",
				Type:        "village",
				FoodStock:   40,
				Population:  180,
				WealthAvg:   4,
				WealthVar:   2,
				MarketName:  "Stoneford Market",
				WagePool:    80,
				Specialties: map[string]float64{"mason": 2.5, "blacksmith": 1.5},
			},
			{
				Name:        "Port Kelda",
				Faction:     "Free Cities League",
				Type:        "port",
				Capital:     true,
				FoodStock:   220,
				Population:  220,
				WealthAvg:   10,
				WealthVar:   4,
				MarketName:  "Port Kelda Exchange",
				WagePool:    200,
				Wages:       map[string]float64{"merchant": 1.2, "caravaneer": 1.0},
				Specialties: map[string]float64{"merchant": 2, "caravaneer": 2},
			},
			{
				Name:        "Grey Abbey",
				Faction:     "Grey Monastic Order",
				Type:        "abbey",
				Capital:     true,
				FoodStock:   15,
				Population:  120,
				WealthAvg:   3,
				WealthVar:   1.5,
				MarketName:  "Abbey Court",
				WagePool:    40,
				Specialties: map[string]float64{"monk": 3, "brewer": 2},
			},
		},
		Routes: []RouteSpec{
			{From: "Rivenshade", To: "Stoneford", Hours: 8},
			{From: "Rivenshade", To: "Port Kelda", Hours: 30},
			{From: "Stoneford", To: "Port Kelda", Hours: 26},
			{From: "Stoneford", To: "Grey Abbey", Hours: 10},
			{From: "Port Kelda", To: "Grey Abbey", Hours: 24},
		},
	}
}
