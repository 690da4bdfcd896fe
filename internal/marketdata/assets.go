package marketdata

// ProviderName identifies an upstream quote provider.
type ProviderName string

const (
	ProviderFinnhub   ProviderName = "finnhub"
	ProviderCoinGecko ProviderName = "coingecko"
)

// AssetType classifies an instrument for spread modelling.
type AssetType string

const (
	AssetTypeStock     AssetType = "stock"
	AssetTypeForex     AssetType = "forex"
	AssetTypeCrypto    AssetType = "crypto"
	AssetTypeIndex     AssetType = "index"
	AssetTypeCommodity AssetType = "commodity"
)

// AssetConfig maps a human display name to its provider symbol.
type AssetConfig struct {
	Name      string       `json:"name"`
	APISymbol string       `json:"api_symbol"`
	Provider  ProviderName `json:"provider"`
	Type      AssetType    `json:"type"`
	Category  string       `json:"category"`
}

// Assets is the static instrument registry. Display names are the public
// identifiers used throughout the API.
var Assets = []AssetConfig{
	// Indices
	{Name: "US 100", APISymbol: "^NDX", Provider: ProviderFinnhub, Type: AssetTypeIndex, Category: "indices"},
	{Name: "US 30", APISymbol: "^DJI", Provider: ProviderFinnhub, Type: AssetTypeIndex, Category: "indices"},
	{Name: "US 2000", APISymbol: "^RUT", Provider: ProviderFinnhub, Type: AssetTypeIndex, Category: "indices"},
	{Name: "US 500", APISymbol: "^GSPC", Provider: ProviderFinnhub, Type: AssetTypeIndex, Category: "indices"},
	{Name: "GER 30", APISymbol: "^GDAXI", Provider: ProviderFinnhub, Type: AssetTypeIndex, Category: "indices"},
	{Name: "JP 225", APISymbol: "^N225", Provider: ProviderFinnhub, Type: AssetTypeIndex, Category: "indices"},
	{Name: "FR 40", APISymbol: "^FCHI", Provider: ProviderFinnhub, Type: AssetTypeIndex, Category: "indices"},
	{Name: "UK 100", APISymbol: "^FTSE", Provider: ProviderFinnhub, Type: AssetTypeIndex, Category: "indices"},

	// Forex
	{Name: "EUR/USD", APISymbol: "OANDA:EUR_USD", Provider: ProviderFinnhub, Type: AssetTypeForex, Category: "forex"},
	{Name: "GBP/USD", APISymbol: "OANDA:GBP_USD", Provider: ProviderFinnhub, Type: AssetTypeForex, Category: "forex"},
	{Name: "USD/JPY", APISymbol: "OANDA:USD_JPY", Provider: ProviderFinnhub, Type: AssetTypeForex, Category: "forex"},
	{Name: "AUD/USD", APISymbol: "OANDA:AUD_USD", Provider: ProviderFinnhub, Type: AssetTypeForex, Category: "forex"},
	{Name: "USD/CAD", APISymbol: "OANDA:USD_CAD", Provider: ProviderFinnhub, Type: AssetTypeForex, Category: "forex"},
	{Name: "USD/CHF", APISymbol: "OANDA:USD_CHF", Provider: ProviderFinnhub, Type: AssetTypeForex, Category: "forex"},

	// Crypto
	{Name: "Bitcoin", APISymbol: "bitcoin", Provider: ProviderCoinGecko, Type: AssetTypeCrypto, Category: "crypto"},
	{Name: "Ethereum", APISymbol: "ethereum", Provider: ProviderCoinGecko, Type: AssetTypeCrypto, Category: "crypto"},
	{Name: "Ripple", APISymbol: "ripple", Provider: ProviderCoinGecko, Type: AssetTypeCrypto, Category: "crypto"},
	{Name: "Litecoin", APISymbol: "litecoin", Provider: ProviderCoinGecko, Type: AssetTypeCrypto, Category: "crypto"},
	{Name: "Cardano", APISymbol: "cardano", Provider: ProviderCoinGecko, Type: AssetTypeCrypto, Category: "crypto"},

	// Stocks
	{Name: "Apple", APISymbol: "AAPL", Provider: ProviderFinnhub, Type: AssetTypeStock, Category: "stocks"},
	{Name: "Microsoft", APISymbol: "MSFT", Provider: ProviderFinnhub, Type: AssetTypeStock, Category: "stocks"},
	{Name: "Tesla", APISymbol: "TSLA", Provider: ProviderFinnhub, Type: AssetTypeStock, Category: "stocks"},
	{Name: "Amazon", APISymbol: "AMZN", Provider: ProviderFinnhub, Type: AssetTypeStock, Category: "stocks"},
	{Name: "Google", APISymbol: "GOOGL", Provider: ProviderFinnhub, Type: AssetTypeStock, Category: "stocks"},
	{Name: "Meta", APISymbol: "META", Provider: ProviderFinnhub, Type: AssetTypeStock, Category: "stocks"},
}

// basePrices seeds the mock model per instrument. Instruments missing from
// the table fall back to 100.
var basePrices = map[string]float64{
	"US 100": 17500, "US 30": 38500, "US 2000": 2000, "US 500": 5200,
	"GER 30": 18000, "JP 225": 38500, "FR 40": 8000, "UK 100": 7700,
	"EUR/USD": 1.08, "GBP/USD": 1.27, "USD/JPY": 150.50,
	"AUD/USD": 0.66, "USD/CAD": 1.35, "USD/CHF": 0.88,
	"Bitcoin": 65000, "Ethereum": 3500, "Ripple": 0.52,
	"Litecoin": 74, "Cardano": 0.46,
	"Apple": 180, "Microsoft": 420, "Tesla": 175,
	"Amazon": 178, "Google": 150, "Meta": 485,
}

// LookupAsset returns the registry entry for a display name.
func LookupAsset(name string) (AssetConfig, bool) {
	for _, a := range Assets {
		if a.Name == name {
			return a, true
		}
	}
	return AssetConfig{}, false
}

// AssetsByCategory returns all registry entries in a category.
func AssetsByCategory(category string) []AssetConfig {
	var out []AssetConfig
	for _, a := range Assets {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// BasePrice returns the mock base price for an instrument.
func BasePrice(name string) float64 {
	if p, ok := basePrices[name]; ok {
		return p
	}
	return 100
}

// spreadFactor returns the synthetic bid/ask spread fraction for an asset
// class. The upstream quote APIs do not supply bid/ask, so the same model is
// applied to both live and mock prices.
func spreadFactor(t AssetType) float64 {
	switch t {
	case AssetTypeForex:
		return 0.0001 // 0.01%
	case AssetTypeCrypto:
		return 0.002 // 0.2%
	default:
		return 0.001 // 0.1%
	}
}
