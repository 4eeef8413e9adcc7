package symbol

// Industry tags an equity for industry-targeted events.
type Industry string

const (
	IndustryLiquor        Industry = "Liquor"
	IndustryBanking       Industry = "Banking"
	IndustryInsurance     Industry = "Insurance"
	IndustryBrokerage     Industry = "Brokerage"
	IndustryAppliances    Industry = "Appliances"
	IndustryPharma        Industry = "Pharma"
	IndustryMedicalDevice Industry = "MedicalDevice"
	IndustryDutyFree      Industry = "DutyFree"
	IndustryTourism       Industry = "Tourism"
	IndustryNEV           Industry = "NEV"
	IndustryBattery       Industry = "Battery"
	IndustryNewEnergy     Industry = "NewEnergy"
	IndustryConsumer      Industry = "Consumer"
	IndustryGold          Industry = "Gold"
	IndustryCyclical      Industry = "Cyclical"
	IndustryInfra         Industry = "Infrastructure"
	IndustryBuilding      Industry = "BuildingMaterials"
	IndustryRealEstate    Industry = "RealEstate"
	IndustryOil           Industry = "Oil"
	IndustryDefense       Industry = "Defense"
	IndustryExport        Industry = "Export"
	IndustryManufacturing Industry = "Manufacturing"
	IndustryLogistics     Industry = "Logistics"
	IndustryAgriculture   Industry = "Agriculture"
	IndustryOnline        Industry = "OnlineEconomy"
	IndustryAI            Industry = "AI"
	IndustrySemiconductor Industry = "Semiconductor"
	IndustrySoftware      Industry = "Software"
	IndustryAutomation    Industry = "Automation"
	IndustryEnvironmental Industry = "Environmental"
	IndustryChemicals     Industry = "Chemicals"
	IndustryCoal          Industry = "Coal"
	IndustrySafety        Industry = "Safety"
)

// Fundamentals are the valuation and financial ratios that bias an equity's
// price walk. They are inputs only and never simulated.
type Fundamentals struct {
	PE            float64
	PB            float64
	MarketCap     float64
	FloatShares   float64
	DividendYield float64
	TurnoverRate  float64
	RevenueGrowth float64
	ProfitMargin  float64
	DebtRatio     float64
	ROE           float64
}

// StockDef holds the static definition of a listed equity.
type StockDef struct {
	Code       string
	Name       string
	Industry   Industry
	Price      float64
	Volatility float64
	Trend      float64
	Beta       float64
	Resistance float64

	// Fundamentals is nil when the ratios are drawn at listing time.
	Fundamentals *Fundamentals
}

// CoinDef holds the static definition of a cryptocurrency.
type CoinDef struct {
	Symbol     string
	Name       string
	Price      float64
	Volatility float64
}

// CurrencyDef holds the static definition of a currency quoted against USD.
type CurrencyDef struct {
	Code       string
	Name       string
	RateToUSD  float64
	Volatility float64
}

// BaseCurrency is the unit every forex rate is quoted against.
const BaseCurrency = "USD"

// HomeCurrency is the currency the player's cash is held in.
const HomeCurrency = "CNY"

// AllStocks returns the listed equities.
func AllStocks() []StockDef {
	return []StockDef{
		// Consumer staples
		{"000858", "Xinsui Liquor", IndustryLiquor, 180, 0.018, 0.0001, 0.9, 1.1, &Fundamentals{
			PE: 38, PB: 8, MarketCap: 7.2e11, FloatShares: 3.88e9, DividendYield: 0.015,
			TurnoverRate: 0.9, RevenueGrowth: 0.12, ProfitMargin: 0.40, DebtRatio: 0.15, ROE: 0.30,
		}},
		{"600809", "Jinsui Distillery", IndustryLiquor, 380, 0.020, 0.0002, 0.9, 1.1, nil},
		{"600887", "Yipin Dairy", IndustryConsumer, 35, 0.012, 0.0001, 0.8, 1.2, nil},
		{"603288", "Haitian Flavours", IndustryConsumer, 120, 0.015, 0.0001, 0.8, 1.2, nil},
		{"000333", "Gerui Appliances", IndustryAppliances, 90, 0.014, 0.0002, 1.0, 1.0, nil},
		{"000651", "Geli Electric", IndustryAppliances, 55, 0.014, 0.0001, 1.0, 1.0, nil},

		// Financials
		{"600036", "Huayue Bank", IndustryBanking, 45, 0.012, 0.0001, 1.1, 0.9, nil},
		{"601398", "Huashang Bank", IndustryBanking, 5.5, 0.008, 0.0001, 0.8, 1.2, nil},
		{"601288", "Nongshang Bank", IndustryBanking, 4, 0.008, 0.0001, 0.8, 1.2, nil},
		{"601318", "Anping Insurance", IndustryInsurance, 80, 0.016, 0.0001, 1.2, 0.8, nil},
		{"601628", "Zhongguo Life", IndustryInsurance, 35, 0.016, 0.0001, 1.1, 0.9, nil},
		{"600030", "Zhongcheng Securities", IndustryBrokerage, 30, 0.022, 0.0001, 1.5, 0.6, nil},
		{"601688", "Huatai Securities", IndustryBrokerage, 20, 0.022, 0.0001, 1.4, 0.7, nil},

		// Healthcare
		{"600276", "Kangheng Pharma", IndustryPharma, 60, 0.020, 0.0003, 0.7, 1.3, nil},
		{"603259", "Mingde Bio", IndustryPharma, 120, 0.025, 0.0003, 0.9, 1.1, nil},
		{"300760", "Mairui Medical", IndustryMedicalDevice, 380, 0.018, 0.0002, 0.8, 1.2, nil},

		// Travel and retail
		{"601888", "Huanyou Duty Free", IndustryDutyFree, 280, 0.025, 0.0002, 1.3, 0.7, nil},
		{"601021", "Chunqiu Airlines", IndustryTourism, 45, 0.022, 0.0001, 1.2, 0.8, nil},

		// New energy
		{"002594", "Bidi Auto", IndustryNEV, 280, 0.028, 0.0004, 1.4, 0.6, nil},
		{"002466", "Dongfang Lithium", IndustryBattery, 160, 0.030, 0.0003, 1.5, 0.6, nil},
		{"601012", "Longjing Energy", IndustryNewEnergy, 60, 0.026, 0.0003, 1.3, 0.7, nil},

		// Cyclicals and materials
		{"601899", "Zijing Mining", IndustryGold, 12, 0.022, 0.0001, 1.2, 0.8, nil},
		{"600031", "Huagong Machinery", IndustryCyclical, 25, 0.020, 0.0001, 1.2, 0.8, nil},
		{"601668", "Zhongjian Construction", IndustryInfra, 6, 0.012, 0.0001, 0.9, 1.1, nil},
		{"600585", "Donghong Building", IndustryBuilding, 45, 0.018, 0.0001, 1.1, 0.9, nil},
		{"600048", "Baoli Development", IndustryRealEstate, 15, 0.020, 0.0000, 1.2, 0.8, nil},
		{"001979", "Zhaoshang Shekou", IndustryRealEstate, 18, 0.020, 0.0000, 1.2, 0.8, nil},
		{"601857", "Zhongshi Energy", IndustryOil, 8, 0.015, 0.0001, 0.9, 1.1, nil},
		{"601088", "Zhongguo Shenhua", IndustryCoal, 30, 0.016, 0.0001, 0.9, 1.1, nil},
		{"600309", "Wanhua Chemical", IndustryChemicals, 150, 0.020, 0.0002, 1.1, 0.9, nil},

		// Industrials
		{"600760", "Guofang Tech", IndustryDefense, 65, 0.024, 0.0002, 1.2, 0.8, nil},
		{"000768", "Hangkong Tech", IndustryDefense, 45, 0.024, 0.0002, 1.2, 0.8, nil},
		{"600660", "Huaxing Glass", IndustryExport, 45, 0.016, 0.0001, 1.0, 1.0, nil},
		{"002475", "Huaxun Tech", IndustryManufacturing, 35, 0.022, 0.0002, 1.3, 0.7, nil},
		{"002352", "Shunfeng Logistics", IndustryLogistics, 40, 0.018, 0.0001, 1.0, 1.0, nil},
		{"002714", "Muyuan Agriculture", IndustryAgriculture, 50, 0.022, 0.0001, 0.9, 1.1, nil},
		{"300070", "Bishui Environmental", IndustryEnvironmental, 8, 0.020, 0.0001, 1.0, 1.0, nil},
		{"300124", "Huichuan Automation", IndustryAutomation, 65, 0.022, 0.0002, 1.2, 0.8, nil},
		{"002920", "Desai Safety", IndustrySafety, 30, 0.020, 0.0001, 1.0, 1.0, nil},

		// Technology
		{"002230", "Keda Xunfei", IndustryAI, 45, 0.028, 0.0003, 1.5, 0.6, nil},
		{"688981", "Huaxin Semiconductor", IndustrySemiconductor, 55, 0.030, 0.0003, 1.5, 0.6, nil},
		{"002049", "Huaguang Chips", IndustrySemiconductor, 120, 0.030, 0.0003, 1.5, 0.6, nil},
		{"002410", "Guanglianda Software", IndustrySoftware, 85, 0.025, 0.0002, 1.3, 0.7, nil},
		{"601360", "Sanliuling Internet", IndustryOnline, 15, 0.028, 0.0001, 1.4, 0.6, nil},
	}
}

// AllCoins returns the tradable cryptocurrencies.
func AllCoins() []CoinDef {
	return []CoinDef{
		{"BTC", "BitCoinage", 45000, 0.02},
		{"ETH", "Etherium", 3000, 0.025},
		{"DOGE", "DogeCoinage", 0.2, 0.05},
		{"XRP", "RippCoin", 0.5, 0.03},
		{"LTC", "LiteCoinage", 100, 0.035},
	}
}

// AllCurrencies returns the forex currencies, base currency first.
func AllCurrencies() []CurrencyDef {
	return []CurrencyDef{
		{"USD", "US Dollar", 1.0, 0},
		{"EUR", "Euro", 0.85, 0.002},
		{"GBP", "British Pound", 0.73, 0.003},
		{"JPY", "Japanese Yen", 110.0, 0.002},
		{"CNY", "Chinese Yuan", 6.45, 0.001},
		{"AUD", "Australian Dollar", 1.35, 0.003},
		{"CAD", "Canadian Dollar", 1.25, 0.002},
		{"CHF", "Swiss Franc", 0.92, 0.002},
		{"HKD", "Hong Kong Dollar", 7.78, 0.001},
		{"SGD", "Singapore Dollar", 1.35, 0.002},
	}
}

// StocksByCode returns a map from code to definition for quick lookups.
func StocksByCode() map[string]*StockDef {
	defs := AllStocks()
	m := make(map[string]*StockDef, len(defs))
	for i := range defs {
		m[defs[i].Code] = &defs[i]
	}
	return m
}

// Industries returns the distinct industries of the listed equities in
// listing order.
func Industries() []Industry {
	seen := make(map[Industry]bool)
	var out []Industry
	for _, d := range AllStocks() {
		if !seen[d.Industry] {
			seen[d.Industry] = true
			out = append(out, d.Industry)
		}
	}
	return out
}

// StocksByIndustry groups equities by their industry.
func StocksByIndustry() map[Industry][]StockDef {
	m := make(map[Industry][]StockDef)
	for _, d := range AllStocks() {
		m[d.Industry] = append(m[d.Industry], d)
	}
	return m
}
