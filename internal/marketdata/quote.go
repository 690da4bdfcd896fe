package marketdata

// Quote is a point-in-time market snapshot for one instrument. Quotes are
// transient: regenerated on every fetch, never persisted.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	Spread        float64 `json:"spread"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previousClose"`
	Volume        float64 `json:"volume"`
	Timestamp     int64   `json:"timestamp"`
	IsMock        bool    `json:"isMock"`
}

// applySpread derives bid/ask around the price using the class spread model.
func (q *Quote) applySpread(t AssetType) {
	q.Spread = q.Price * spreadFactor(t)
	q.Bid = q.Price - q.Spread/2
	q.Ask = q.Price + q.Spread/2
}
