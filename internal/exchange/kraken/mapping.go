package kraken

import "cryptrade/internal/core"

// Kraken prefixes major assets with X (crypto) or Z (fiat). currencyMap holds
// the generic-to-native translations; everything absent maps to itself.
var currencyMap = map[string]string{
	"BTC": "XXBT",
	"ETH": "XETH",
	"ETC": "XETC",
	"LTC": "XLTC",
	"EUR": "ZEUR",
	"USD": "ZUSD",
	"XRP": "XXRP",
	"KRW": "ZKRW",
	"JPY": "ZJPY",
	"GBP": "ZGBP",
	"CAD": "ZCAD",
	"ZEC": "XZEC",
	"XVN": "XXVN",
	"XTZ": "XXTZ",
	"XMR": "XXMR",
	"XLM": "XXLM",
	"XDG": "XXDG",
	"REP": "XREP",
	"NMC": "XNMC",
	"MLN": "XMLN",
	"ICN": "XICN",
	"DAO": "XDAO",
}

var reverseCurrencyMap = func() map[string]string {
	m := make(map[string]string, len(currencyMap))
	for generic, native := range currencyMap {
		m[native] = generic
	}
	return m
}()

// pairMap covers the pairs whose native name is not the simple concatenation
// of the native currency codes.
var pairMap = map[string]string{
	"ADABTC":   "ADAXBT",
	"ALGOBTC":  "ALGOXBT",
	"BATBTC":   "BATXBT",
	"BCHBTC":   "BCHXBT",
	"DASHBTC":  "DASHXBT",
	"EOSBTC":   "EOSXBT",
	"GNOBTC":   "GNOXBT",
	"ICXBTC":   "ICXXBT",
	"LINKBTC":  "LINKXBT",
	"LSKBTC":   "LSKXBT",
	"NANOBTC":  "NANOXBT",
	"OMGBTC":   "OMGXBT",
	"PAXGBTC":  "PAXGXBT",
	"QTUMBTC":  "QTUMXBT",
	"SCBTC":    "SCXBT",
	"TRXBTC":   "TRXXBT",
	"USDTUSD":  "USDTZUSD",
	"WAVESBTC": "WAVESXBT",
	"BTCCHF":   "XBTCHF",
	"BTCDAI":   "XBTDAI",
	"BTCUSDC":  "XBTUSDC",
	"BTCUSDT":  "XBTUSDT",
	"ETCETH":   "XETCXETH",
	"ETCBTC":   "XETCXXBT",
	"ETCEUR":   "XETCZEUR",
	"ETCUSD":   "XETCZUSD",
	"ETHBTC":   "XETHXXBT",
	"ETHCAD":   "XETHZCAD",
	"ETHEUR":   "XETHZEUR",
	"ETHGBP":   "XETHZGBP",
	"ETHJPY":   "XETHZJPY",
	"ETHUSD":   "XETHZUSD",
	"LTCBTC":   "XLTCXXBT",
	"LTCEUR":   "XLTCZEUR",
	"LTCUSD":   "XLTCZUSD",
	"MLNETH":   "XMLNXETH",
	"MLNBTC":   "XMLNXXBT",
	"MLNEUR":   "XMLNZEUR",
	"MLNUSD":   "XMLNZUSD",
	"REPETH":   "XREPXETH",
	"REPBTC":   "XREPXXBT",
	"REPEUR":   "XREPZEUR",
	"REPUSD":   "XREPZUSD",
	"XTZBTC":   "XTZXBT",
	"BTCCAD":   "XXBTZCAD",
	"BTCEUR":   "XXBTZEUR",
	"BTCGBP":   "XXBTZGBP",
	"BTCJPY":   "XXBTZJPY",
	"BTCUSD":   "XXBTZUSD",
	"XDGBTC":   "XXDGXXBT",
	"XLMBTC":   "XXLMXXBT",
	"XLMEUR":   "XXLMZEUR",
	"XLMUSD":   "XXLMZUSD",
	"XMRBTC":   "XXMRXXBT",
	"XMREUR":   "XXMRZEUR",
	"XMRUSD":   "XXMRZUSD",
	"XRPBTC":   "XXRPXXBT",
	"XRPCAD":   "XXRPZCAD",
	"XRPEUR":   "XXRPZEUR",
	"XRPJPY":   "XXRPZJPY",
	"XRPUSD":   "XXRPZUSD",
	"ZECBTC":   "XZECXXBT",
	"ZECEUR":   "XZECZEUR",
	"ZECUSD":   "XZECZUSD",
	"EURUSD":   "ZEURZUSD",
	"GBPUSD":   "ZGBPZUSD",
	"USDCAD":   "ZUSDZCAD",
	"USDJPY":   "ZUSDZJPY",
}

// NativeCurrency translates a generic currency code to Kraken's asset code.
func NativeCurrency(c core.Currency) string {
	if native, ok := currencyMap[c.String()]; ok {
		return native
	}
	return c.String()
}

// GenericCurrency translates a Kraken asset code back to the generic code.
func GenericCurrency(native string) core.Currency {
	if generic, ok := reverseCurrencyMap[native]; ok {
		return core.NewCurrency(generic)
	}
	return core.NewCurrency(native)
}

// NativePair resolves the pair name to query and trade. The explicit table
// wins; otherwise the concatenated native currency codes are used.
func NativePair(trading, buying core.Currency) string {
	if native, ok := pairMap[trading.String()+buying.String()]; ok {
		return native
	}
	return NativeCurrency(trading) + NativeCurrency(buying)
}
