package trader

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"cryptrade/internal/core"
)

// fakeExchange is a scripted venue for loop and order tests: placements and
// status answers are queued up front, every call is recorded.
type fakeExchange struct {
	ticker    core.Ticker
	tickerErr error

	account     core.Account
	balancesErr error

	placeErr   map[core.Side]error
	placed     []placedOrder
	nextID     int
	placedAcks map[core.Side]core.OrderAck
	// placeBudget > 0 makes placements beyond the budget fail, ending the
	// session after a scripted number of orders.
	placeBudget int

	updates     map[string][]core.OrderUpdate
	statusErr   map[string]error
	statusCalls int

	canceled  []string
	cancelErr error

	maker decimal.Decimal
}

type placedOrder struct {
	id     string
	side   core.Side
	price  decimal.Decimal
	amount decimal.Decimal
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		account:    core.NewAccount(),
		placeErr:   make(map[core.Side]error),
		placedAcks: make(map[core.Side]core.OrderAck),
		updates:    make(map[string][]core.OrderUpdate),
		statusErr:  make(map[string]error),
		maker:      decimal.NewFromFloat(0.005),
	}
}

func (f *fakeExchange) Name() string { return "fake" }

func (f *fakeExchange) MakerFee() decimal.Decimal { return f.maker }
func (f *fakeExchange) TakerFee() decimal.Decimal { return f.maker }

func (f *fakeExchange) GetProduct(ctx context.Context, trading, buying core.Currency) (core.Product, error) {
	return core.NewProduct(trading, buying, trading.String()+"-"+buying.String())
}

func (f *fakeExchange) GetTicker(ctx context.Context, product core.Product) (core.Ticker, error) {
	if f.tickerErr != nil {
		return core.Ticker{}, f.tickerErr
	}
	return f.ticker, nil
}

func (f *fakeExchange) GetBalances(ctx context.Context) (core.Account, error) {
	if f.balancesErr != nil {
		return core.Account{}, f.balancesErr
	}
	return f.account, nil
}

func (f *fakeExchange) PlaceLimitOrder(ctx context.Context, product core.Product, side core.Side, price, amount decimal.Decimal) (core.OrderAck, error) {
	if err := f.placeErr[side]; err != nil {
		return core.OrderAck{}, err
	}
	if f.placeBudget > 0 && f.nextID >= f.placeBudget {
		return core.OrderAck{}, core.ErrInsufficientBalance
	}
	f.nextID++
	id := "ord-" + strconv.Itoa(f.nextID)
	f.placed = append(f.placed, placedOrder{id: id, side: side, price: price, amount: amount})
	if ack, ok := f.placedAcks[side]; ok {
		ack.ID = id
		return ack, nil
	}
	return core.OrderAck{ID: id, Status: core.OrderOpen}, nil
}

func (f *fakeExchange) OrderStatus(ctx context.Context, product core.Product, orderID string) (core.OrderUpdate, error) {
	f.statusCalls++
	if err := f.statusErr[orderID]; err != nil {
		return core.OrderUpdate{}, err
	}
	queue := f.updates[orderID]
	if len(queue) == 0 {
		return core.OrderUpdate{Status: core.OrderOpen}, nil
	}
	update := queue[0]
	if len(queue) > 1 {
		f.updates[orderID] = queue[1:]
	}
	return update, nil
}

func (f *fakeExchange) CancelOrder(ctx context.Context, product core.Product, orderID string) error {
	// Behave like a real transport: a dead context means the request never
	// leaves the process.
	if err := ctx.Err(); err != nil {
		return err
	}
	f.canceled = append(f.canceled, orderID)
	return f.cancelErr
}

func (f *fakeExchange) lastPlaced(side core.Side) (placedOrder, bool) {
	for i := len(f.placed) - 1; i >= 0; i-- {
		if f.placed[i].side == side {
			return f.placed[i], true
		}
	}
	return placedOrder{}, false
}

func mustDec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func liquidProduct() core.Product {
	p, err := core.NewProduct(core.NewCurrency("BTC"), core.NewCurrency("EUR"), "BTC-EUR")
	if err != nil {
		panic(err)
	}
	p.MinAmount = mustDec("0.0001")
	p.MinPrice = mustDec("0.01")
	p.MinNotional = mustDec("0.01")
	p.PriceTick = mustDec("0.01")
	p.AmountStep = mustDec("0.00000001")
	return p
}
