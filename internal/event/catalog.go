package event

import "github.com/ndrandal/market-game/internal/symbol"

// Catalog returns the standard event table: macro, industry, shock,
// corporate and personal events.
func Catalog() []Event {
	return []Event{
		// Macro
		{
			Name: "Rate cut", Category: CategoryMarket, Probability: 0.05,
			Description: "The central bank cuts the benchmark rate by 25 basis points",
			EffectText:  "Broad rally led by financials",
			Effect: Composite(
				GlobalShift(0.03),
				IndustryShift(symbol.IndustryBanking, 0.05),
				IndustryShift(symbol.IndustryBrokerage, 0.04),
			),
			Tags: []string{"policy", "rates"},
		},
		{
			Name: "Reserve ratio cut", Category: CategoryMarket, Probability: 0.05,
			Description: "The reserve requirement ratio is lowered by 50 basis points",
			EffectText:  "Liquidity improves, banks gain",
			Effect: Composite(
				GlobalShift(0.02),
				IndustryShift(symbol.IndustryBanking, 0.04),
			),
			Tags: []string{"policy", "banking"},
		},
		{
			Name: "Foreign inflow", Category: CategoryMarket, Probability: 0.1,
			Description: "Northbound capital posts a large net inflow",
			EffectText:  "Blue chips lead a confident market",
			Effect: Composite(
				GlobalShift(0.02),
				IndustryShift(symbol.IndustryConsumer, 0.03),
			),
			Tags: []string{"capital", "foreign"},
		},
		{
			Name: "Foreign outflow", Category: CategoryMarket, Probability: 0.1,
			Description: "Northbound capital posts a large net outflow",
			EffectText:  "Foreign-held names come under pressure",
			Effect: Composite(
				GlobalShift(-0.02),
				IndustryShift(symbol.IndustryConsumer, -0.03),
			),
			Tags: []string{"capital", "foreign"},
		},
		{
			Name: "Strong economic data", Category: CategoryMarket, Probability: 0.08,
			Description: "GDP and PMI prints beat expectations",
			EffectText:  "Cyclicals rally together",
			Effect: Composite(
				GlobalShift(0.02),
				IndustryRange(symbol.IndustryCyclical, 0.02, 0.04),
				IndustryRange(symbol.IndustryInfra, 0.02, 0.04),
				IndustryRange(symbol.IndustryConsumer, 0.02, 0.04),
			),
			Tags: []string{"economy", "data"},
		},
		{
			Name: "Inflation surprise", Category: CategoryMarket, Probability: 0.06,
			Description: "CPI growth hits a new high",
			EffectText:  "Risk aversion rises",
			Effect: Composite(
				GlobalShift(-0.01),
				IndustryShift(symbol.IndustryGold, 0.03),
				IndustryShift(symbol.IndustryConsumer, -0.02),
			),
			Tags: []string{"economy", "inflation"},
		},
		{
			Name: "Fed rate hike", Category: CategoryMarket, Probability: 0.04,
			Description: "The Federal Reserve raises rates by 25 basis points",
			EffectText:  "Foreign capital leaves and the market weakens",
			Effect: Composite(
				GlobalShift(-0.02),
				IndustryShift(symbol.IndustryBanking, 0.02),
				IndustryShift(symbol.IndustryExport, -0.03),
			),
			Tags: []string{"international", "rates"},
		},
		{
			Name: "Trade friction", Category: CategoryMarket, Probability: 0.05,
			Description: "Trade relations between major economies deteriorate",
			EffectText:  "Exporters under pressure",
			Effect: Composite(
				GlobalShift(-0.02),
				IndustryShift(symbol.IndustryExport, -0.04),
				IndustryShift(symbol.IndustryConsumer, 0.02),
			),
			Tags: []string{"international", "trade"},
		},
		{
			Name: "Supply chain disruption", Category: CategoryMarket, Probability: 0.03,
			Description: "Global supply chains suffer a serious disruption",
			EffectText:  "Manufacturing and logistics hit",
			Effect: Composite(
				IndustryShift(symbol.IndustryManufacturing, -0.03),
				IndustryShift(symbol.IndustryLogistics, -0.02),
				IndustryShift(symbol.IndustryAppliances, 0.03),
			),
			Tags: []string{"international", "supply chain"},
		},
		{
			Name: "Holiday spending", Category: CategoryMarket, Probability: 0.08,
			Description: "A major holiday lifts consumer spending",
			EffectText:  "Consumer and duty-free names strengthen",
			Effect: Composite(
				IndustryShift(symbol.IndustryConsumer, 0.03),
				IndustryShift(symbol.IndustryDutyFree, 0.04),
				IndustryShift(symbol.IndustryTourism, 0.03),
			),
			Tags: []string{"consumption", "holiday"},
		},
		{
			Name: "Extreme weather", Category: CategoryMarket, Probability: 0.05,
			Description: "Extreme weather disrupts production",
			EffectText:  "Insurers and agriculture swing",
			Effect: Composite(
				IndustryRange(symbol.IndustryAgriculture, -0.05, 0.05),
				IndustryShift(symbol.IndustryInsurance, 0.02),
			),
			Tags: []string{"weather", "agriculture"},
		},
		{
			Name: "Seasonal epidemic", Category: CategoryMarket, Probability: 0.06,
			Description: "A seasonal epidemic breaks out",
			EffectText:  "Pharma and the online economy in focus",
			Effect: Composite(
				GlobalShift(-0.01),
				IndustryShift(symbol.IndustryPharma, -0.02),
				IndustryShift(symbol.IndustryOnline, 0.01),
			),
			Tags: []string{"epidemic", "pharma"},
		},

		// Industry policy
		{
			Name: "NEV subsidy", Category: CategoryIndustry, Probability: 0.1,
			Description: "New energy vehicle subsidies are extended",
			EffectText:  "The NEV chain rallies",
			Effect:      IndustryShift(symbol.IndustryNEV, 0.06),
			Tags:        []string{"policy", "new energy"},
		},
		{
			Name: "Medical insurance talks", Category: CategoryIndustry, Probability: 0.08,
			Description: "Results of the drug price negotiations are published",
			EffectText:  "Healthcare names diverge",
			Effect: Composite(
				StockScatter(symbol.IndustryPharma, -0.05, 0.05),
				StockScatter(symbol.IndustryMedicalDevice, -0.05, 0.05),
			),
			Tags: []string{"pharma", "policy"},
		},
		{
			Name: "Chip breakthrough", Category: CategoryIndustry, Probability: 0.05,
			Description: "Domestic chipmakers announce a major breakthrough",
			EffectText:  "Semiconductors surge",
			Effect:      IndustryShift(symbol.IndustrySemiconductor, 0.08),
			Tags:        []string{"tech", "semiconductor"},
		},
		{
			Name: "Property tightening", Category: CategoryIndustry, Probability: 0.1,
			Description: "Several cities tighten property controls",
			EffectText:  "Developers and building materials under pressure",
			Effect: Composite(
				IndustryShift(symbol.IndustryRealEstate, -0.03),
				IndustryShift(symbol.IndustryBuilding, -0.02),
				IndustryShift(symbol.IndustryBanking, -0.01),
			),
			Tags: []string{"real estate", "policy"},
		},
		{
			Name: "AI breakthrough", Category: CategoryIndustry, Probability: 0.06,
			Description: "A major advance in artificial intelligence",
			EffectText:  "Tech rallies across the board",
			Effect: Composite(
				IndustryShift(symbol.IndustryAI, 0.05),
				IndustryShift(symbol.IndustrySemiconductor, 0.03),
				IndustryShift(symbol.IndustrySoftware, 0.02),
			),
			Tags: []string{"tech", "AI"},
		},
		{
			Name: "Battery innovation", Category: CategoryIndustry, Probability: 0.05,
			Description: "A new battery technology is unveiled",
			EffectText:  "The new energy chain gains",
			Effect: Composite(
				IndustryShift(symbol.IndustryNewEnergy, 0.04),
				IndustryShift(symbol.IndustryBattery, 0.05),
				IndustryShift(symbol.IndustryChemicals, 0.03),
			),
			Tags: []string{"tech", "new energy"},
		},
		{
			Name: "Biotech breakthrough", Category: CategoryIndustry, Probability: 0.04,
			Description: "A new drug clears a major trial",
			EffectText:  "Pharma turns active",
			Effect:      IndustryShift(symbol.IndustryPharma, 0.01),
			Tags:        []string{"tech", "pharma"},
		},
		{
			Name: "Industrial upgrade", Category: CategoryIndustry, Probability: 0.07,
			Description: "Traditional industry accelerates its digital transformation",
			EffectText:  "Tech services strengthen",
			Effect: Composite(
				IndustryShift(symbol.IndustrySoftware, 0.04),
				IndustryShift(symbol.IndustryAutomation, 0.03),
				IndustryShift(symbol.IndustryManufacturing, -0.02),
			),
			Tags: []string{"industry", "tech"},
		},
		{
			Name: "Environmental inspection", Category: CategoryIndustry, Probability: 0.06,
			Description: "A nationwide environmental inspection begins",
			EffectText:  "Polluters fall, environmental names rise",
			Effect: Composite(
				IndustryShift(symbol.IndustryCoal, -0.03),
				IndustryShift(symbol.IndustryEnvironmental, 0.04),
				IndustryShift(symbol.IndustryNewEnergy, 0.02),
			),
			Tags: []string{"environment", "policy"},
		},
		{
			Name: "Overcapacity", Category: CategoryIndustry, Probability: 0.05,
			Description: "Overcapacity in heavy industry draws attention",
			EffectText:  "Affected sectors correct",
			Effect: Composite(
				IndustryShift(symbol.IndustryChemicals, -0.01),
				IndustryShift(symbol.IndustryBuilding, -0.01),
			),
			Tags: []string{"industry", "capacity"},
		},

		// Shocks
		{
			Name: "Geopolitical conflict", Category: CategoryMarket, Probability: 0.03,
			Description: "A geopolitical conflict breaks out in a key region",
			EffectText:  "Safe havens and defense rise",
			Effect: Composite(
				GlobalShift(-0.01),
				IndustryShift(symbol.IndustryDefense, 0.05),
				IndustryShift(symbol.IndustryOil, 0.03),
			),
			Tags: []string{"international", "conflict"},
		},
		{
			Name: "Natural disaster", Category: CategoryMarket, Probability: 0.02,
			Description: "A major natural disaster strikes",
			EffectText:  "Insurers and infrastructure active",
			Effect: Composite(
				GlobalShift(-0.01),
				IndustryShift(symbol.IndustryInsurance, 0.02),
				IndustryShift(symbol.IndustryInfra, 0.01),
			),
			Tags: []string{"disaster", "insurance"},
		},
		{
			Name: "Major accident", Category: CategoryMarket, Probability: 0.02,
			Description: "A serious industrial accident is reported",
			EffectText:  "Related sectors correct",
			Effect: Composite(
				GlobalShift(-0.01),
				IndustryShift(symbol.IndustrySafety, -0.02),
			),
			Tags: []string{"accident", "safety"},
		},

		// Corporate
		{
			Name: "Major acquisition", Category: CategoryMarket, Probability: 0.05,
			Description: "A large company announces a major acquisition",
			EffectText:  "M&A plays turn active",
			Effect: Composite(
				GlobalShift(0.02),
				IndustryShift(symbol.IndustryBrokerage, 0.05),
			),
			Tags: []string{"corporate", "M&A"},
		},
		{
			Name: "Profit warnings", Category: CategoryMarket, Probability: 0.08,
			Description: "Several companies issue profit warnings",
			EffectText:  "Affected names under pressure",
			Effect: Composite(
				GlobalShift(-0.01),
				IndustryShift(symbol.IndustryManufacturing, -0.02),
			),
			Tags: []string{"corporate", "earnings"},
		},
		{
			Name: "R&D breakthrough", Category: CategoryMarket, Probability: 0.06,
			Description: "A sector leader reports an R&D breakthrough",
			EffectText:  "Related concepts strengthen",
			Effect: Composite(
				GlobalShift(0.01),
				IndustryShift(symbol.IndustryMedicalDevice, 0.02),
			),
			Tags: []string{"corporate", "R&D"},
		},

		// Personal
		{
			Name: "Windfall", Category: CategoryPersonal, Probability: 0.05,
			Description: "An unexpected wealth-management payout arrives",
			EffectText:  "Cash +5000",
			Effect:      CashDelta(5000),
			Tags:        []string{"income"},
		},
		{
			Name: "Investment course", Category: CategoryPersonal, Probability: 0.1,
			Description: "You attend an advanced investing course",
			EffectText:  "You pick up a useful investment tip",
			Effect:      None(),
			Tags:        []string{"learning"},
		},
		{
			Name: "Market rumour", Category: CategoryPersonal, Probability: 0.08,
			Description: "You hear a rumour about an industry",
			EffectText:  "You see a sector in a new light",
			Effect:      None(),
			Tags:        []string{"information"},
		},
		{
			Name: "Trading mistake", Category: CategoryPersonal, Probability: 0.05,
			Description: "A trade goes wrong",
			EffectText:  "Lose 1-5% of cash",
			Effect:      CashLoss(0.01, 0.05),
			Tags:        []string{"risk"},
		},
	}
}
