package schwab

import "github.com/shopspring/decimal"

// Quote is the subset of the quote payload the toolkit reports on. Money
// fields are decimals; Schwab serves them as JSON numbers.
type Quote struct {
	Symbol           string
	Last             decimal.Decimal
	Close            decimal.Decimal
	NetChange        decimal.Decimal
	NetPercentChange decimal.Decimal
	TotalVolume      int64
}

// quoteEnvelope mirrors one entry of the /marketdata/v1/quotes response.
type quoteEnvelope struct {
	Symbol string `json:"symbol"`
	Quote  struct {
		LastPrice        decimal.Decimal `json:"lastPrice"`
		ClosePrice       decimal.Decimal `json:"closePrice"`
		NetChange        decimal.Decimal `json:"netChange"`
		NetPercentChange decimal.Decimal `json:"netPercentChange"`
		TotalVolume      int64           `json:"totalVolume"`
	} `json:"quote"`
}

// Position is one holding inside an account.
type Position struct {
	Symbol        string
	AssetType     string
	Quantity      decimal.Decimal
	MarketValue   decimal.Decimal
	DayProfitLoss decimal.Decimal
}

// Account is a trading account with its positions.
type Account struct {
	AccountNumber    string
	Type             string
	LiquidationValue decimal.Decimal
	Positions        []Position
}

// accountEnvelope mirrors one entry of the /trader/v1/accounts response.
type accountEnvelope struct {
	SecuritiesAccount struct {
		AccountNumber string `json:"accountNumber"`
		Type          string `json:"type"`
		Positions     []struct {
			LongQuantity         decimal.Decimal `json:"longQuantity"`
			ShortQuantity        decimal.Decimal `json:"shortQuantity"`
			MarketValue          decimal.Decimal `json:"marketValue"`
			CurrentDayProfitLoss decimal.Decimal `json:"currentDayProfitLoss"`
			Instrument           struct {
				Symbol    string `json:"symbol"`
				AssetType string `json:"assetType"`
			} `json:"instrument"`
		} `json:"positions"`
		CurrentBalances struct {
			LiquidationValue decimal.Decimal `json:"liquidationValue"`
		} `json:"currentBalances"`
	} `json:"securitiesAccount"`
}

// Candle is one daily bar from the price history endpoint. Closes stay
// float64: they feed statistics, not money arithmetic.
type Candle struct {
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
	Datetime int64   `json:"datetime"` // epoch milliseconds
}

// priceHistory mirrors the /marketdata/v1/pricehistory response.
type priceHistory struct {
	Symbol  string   `json:"symbol"`
	Empty   bool     `json:"empty"`
	Candles []Candle `json:"candles"`
}
