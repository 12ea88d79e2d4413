// Double-auction clearing for a single good. Buy offers sit in a max-heap on
// price, sell offers in a min-heap; the best pair trades at the midpoint
// until one side is exhausted or the best bid no longer reaches the best ask.
package economy

import (
	"container/heap"
	"math"

	"github.com/talgya/circulation/internal/agents"
)

// MarketOffer is one agent's intention to buy or sell a good this round.
// Quantity only ever decreases; an offer at zero is filled.
type MarketOffer struct {
	AgentID  agents.AgentID
	Good     agents.GoodType
	Quantity float64
	Price    float64

	seq int
}

// Filled reports whether nothing remains of the offer.
func (o *MarketOffer) Filled() bool { return o.Quantity <= 0 }

// Trade is one matched fill.
type Trade struct {
	Buyer    agents.AgentID
	Seller   agents.AgentID
	Good     agents.GoodType
	Quantity float64
	Price    float64 // midpoint of the matched bid and ask
}

// Value is the cash that changes hands.
func (t Trade) Value() float64 { return t.Price * t.Quantity }

// AuctionResult lists the fills and whatever was left on each side, best
// price first.
type AuctionResult struct {
	Trades        []Trade
	UnfilledBuys  []*MarketOffer
	UnfilledSells []*MarketOffer
}

// Volume is the total quantity traded.
func (r AuctionResult) Volume() float64 {
	v := 0.0
	for _, t := range r.Trades {
		v += t.Quantity
	}
	return v
}

// Turnover is the total cash traded.
func (r AuctionResult) Turnover() float64 {
	v := 0.0
	for _, t := range r.Trades {
		v += t.Value()
	}
	return v
}

// ClearAuction matches buy offers against sell offers. Offer quantities are
// decremented in place; offers with no quantity never enter the book.
// Ties on price keep the order the offers were given in.
func ClearAuction(buys, sells []*MarketOffer) AuctionResult {
	bids := &bidBook{}
	asks := &askBook{}
	for i, o := range buys {
		if o.Quantity > 0 {
			o.seq = i
			heap.Push(bids, o)
		}
	}
	for i, o := range sells {
		if o.Quantity > 0 {
			o.seq = i
			heap.Push(asks, o)
		}
	}

	var res AuctionResult
	for bids.Len() > 0 && asks.Len() > 0 {
		bid := (*bids)[0]
		ask := (*asks)[0]
		if bid.Price < ask.Price {
			// No mutually beneficial trade remains.
			break
		}

		amount := math.Min(bid.Quantity, ask.Quantity)
		bid.Quantity -= amount
		ask.Quantity -= amount
		res.Trades = append(res.Trades, Trade{
			Buyer:    bid.AgentID,
			Seller:   ask.AgentID,
			Good:     bid.Good,
			Quantity: amount,
			Price:    (bid.Price + ask.Price) / 2,
		})

		if bid.Filled() {
			bid.Quantity = 0
			heap.Pop(bids)
		}
		if ask.Filled() {
			ask.Quantity = 0
			heap.Pop(asks)
		}
	}

	for bids.Len() > 0 {
		res.UnfilledBuys = append(res.UnfilledBuys, heap.Pop(bids).(*MarketOffer))
	}
	for asks.Len() > 0 {
		res.UnfilledSells = append(res.UnfilledSells, heap.Pop(asks).(*MarketOffer))
	}
	return res
}

// bidBook is a max-heap on price.
type bidBook []*MarketOffer

func (b bidBook) Len() int { return len(b) }
func (b bidBook) Less(i, j int) bool {
	if b[i].Price != b[j].Price {
		return b[i].Price > b[j].Price
	}
	return b[i].seq < b[j].seq
}
func (b bidBook) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b *bidBook) Push(x any)   { *b = append(*b, x.(*MarketOffer)) }
func (b *bidBook) Pop() any {
	old := *b
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	*b = old[:n-1]
	return o
}

// askBook is a min-heap on price.
type askBook []*MarketOffer

func (a askBook) Len() int { return len(a) }
func (a askBook) Less(i, j int) bool {
	if a[i].Price != a[j].Price {
		return a[i].Price < a[j].Price
	}
	return a[i].seq < a[j].seq
}
func (a askBook) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a *askBook) Push(x any)   { *a = append(*a, x.(*MarketOffer)) }
func (a *askBook) Pop() any {
	old := *a
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	*a = old[:n-1]
	return o
}
