package kraken

type assetPairInfo struct {
	AltName      string `json:"altname"`
	Base         string `json:"base"`
	Quote        string `json:"quote"`
	PairDecimals int32  `json:"pair_decimals"`
	LotDecimals  int32  `json:"lot_decimals"`
	OrderMin     string `json:"ordermin"`
}

type tickerInfo struct {
	Ask  []string `json:"a"`
	Bid  []string `json:"b"`
	Last []string `json:"c"`
}

type addOrderResult struct {
	TxIDs []string `json:"txid"`
	Descr struct {
		Order string `json:"order"`
	} `json:"descr"`
}

type orderInfo struct {
	Status  string `json:"status"`
	VolExec string `json:"vol_exec"`
	Cost    string `json:"cost"`
	Price   string `json:"price"`
	Fee     string `json:"fee"`
}
