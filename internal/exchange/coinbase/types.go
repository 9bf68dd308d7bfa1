package coinbase

type productResponse struct {
	ID             string `json:"id"`
	BaseCurrency   string `json:"base_currency"`
	QuoteCurrency  string `json:"quote_currency"`
	BaseMinSize    string `json:"base_min_size"`
	BaseIncrement  string `json:"base_increment"`
	QuoteIncrement string `json:"quote_increment"`
}

type tickerResponse struct {
	TradeID int64  `json:"trade_id"`
	Price   string `json:"price"`
	Bid     string `json:"bid"`
	Ask     string `json:"ask"`
	Time    string `json:"time"`
}

type accountResponse struct {
	ID        string `json:"id"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Available string `json:"available"`
}

type orderRequest struct {
	Type        string `json:"type"`
	Side        string `json:"side"`
	ProductID   string `json:"product_id"`
	Price       string `json:"price"`
	Size        string `json:"size"`
	TimeInForce string `json:"time_in_force"`
	ClientOID   string `json:"client_oid"`
}

type orderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	FilledSize    string `json:"filled_size"`
	ExecutedValue string `json:"executed_value"`
	Settled       bool   `json:"settled"`
	Message       string `json:"message"`
}
