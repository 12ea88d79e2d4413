// Package economy provides capital market clearing, aggregate price
// formation, and double-auction goods clearing.
package economy

import (
	"fmt"

	"github.com/talgya/circulation/internal/agents"
)

// DefaultReferencePrice is quoted for every good unless configured.
const DefaultReferencePrice = 1.0

// MarketEntry is the supply/demand state for one good in one round.
type MarketEntry struct {
	Good       agents.GoodType `json:"good" yaml:"good"`
	Supply     float64         `json:"supply" yaml:"supply"`         // Quantity offered for sale
	Demand     float64         `json:"demand" yaml:"demand"`         // Quantity bid for
	Price      float64         `json:"price" yaml:"price"`           // Reference quote
	Volume     float64         `json:"volume" yaml:"volume"`         // Quantity traded
	Turnover   float64         `json:"turnover" yaml:"turnover"`     // Cash traded
	TradeCount int             `json:"trade_count" yaml:"trade_count"`
}

// Market holds the goods-market state for the economy. MostTradedGood is
// only meaningful while TradeCount is positive.
type Market struct {
	Entries        map[agents.GoodType]*MarketEntry `json:"entries" yaml:"entries"`
	TradeCount     int                              `json:"trade_count" yaml:"trade_count"`
	MostTradedGood agents.GoodType                  `json:"most_traded_good" yaml:"most_traded_good"`
}

// NewMarket creates a market with a reference price for every good.
// Goods missing from prices, or priced at zero or below, get
// DefaultReferencePrice.
func NewMarket(prices map[agents.GoodType]float64) *Market {
	entries := make(map[agents.GoodType]*MarketEntry, agents.NumGoods)
	for _, good := range agents.AllGoods {
		price := prices[good]
		if price <= 0 {
			price = DefaultReferencePrice
		}
		entries[good] = &MarketEntry{Good: good, Price: price}
	}
	return &Market{Entries: entries}
}

// Price returns the reference price of a good.
func (m *Market) Price(good agents.GoodType) float64 {
	if e, ok := m.Entries[good]; ok {
		return e.Price
	}
	return DefaultReferencePrice
}

// Reset clears per-round statistics, keeping prices.
func (m *Market) Reset() {
	m.TradeCount = 0
	m.MostTradedGood = agents.AllGoods[0]
	for _, e := range m.Entries {
		e.Supply = 0
		e.Demand = 0
		e.Volume = 0
		e.Turnover = 0
		e.TradeCount = 0
	}
}

// Quoter prices an agent's offer for a good.
type Quoter interface {
	Quote(a *agents.Agent, good agents.GoodType) float64
}

// ReferenceQuoter quotes the market's reference price to every agent, so
// every bid meets every ask at the same price.
type ReferenceQuoter struct {
	Market *Market
}

// Quote implements Quoter.
func (q ReferenceQuoter) Quote(_ *agents.Agent, good agents.GoodType) float64 {
	return q.Market.Price(good)
}

// BuildOffers turns each agent's surplus or shortfall of a good into
// a sell or buy offer. Buy quantities are limited to what the agent's cash
// covers at its own quote.
func BuildOffers(population []*agents.Agent, good agents.GoodType, quoter Quoter) (buys, sells []*MarketOffer) {
	for _, a := range population {
		price := quoter.Quote(a, good)
		diff := -agents.Shortfall(a, good)

		switch {
		case diff > 0:
			sells = append(sells, &MarketOffer{AgentID: a.ID, Good: good, Quantity: diff, Price: price})
		case diff < 0:
			qty := -diff
			if price > 0 && qty*price > a.Cash {
				qty = a.Cash / price
			}
			if qty > 0 {
				buys = append(buys, &MarketOffer{AgentID: a.ID, Good: good, Quantity: qty, Price: price})
			}
		}
	}
	return buys, sells
}

// ClearGood runs one good's double auction over the population and settles
// the trades into cash and inventory.
func (m *Market) ClearGood(population []*agents.Agent, good agents.GoodType, quoter Quoter) (AuctionResult, error) {
	entry, ok := m.Entries[good]
	if !ok {
		return AuctionResult{}, fmt.Errorf("good %s not in market", good)
	}

	buys, sells := BuildOffers(population, good, quoter)
	for _, o := range buys {
		entry.Demand += o.Quantity
	}
	for _, o := range sells {
		entry.Supply += o.Quantity
	}

	before := SnapshotHoldings(population, good)
	res := ClearAuction(buys, sells)
	if err := Settle(population, res.Trades); err != nil {
		return res, err
	}
	if err := CheckHoldings(before, SnapshotHoldings(population, good)); err != nil {
		return res, fmt.Errorf("settle %s: %w", good, err)
	}

	entry.Volume += res.Volume()
	entry.Turnover += res.Turnover()
	entry.TradeCount += len(res.Trades)
	m.TradeCount += len(res.Trades)
	if entry.Volume > m.Entries[m.MostTradedGood].Volume {
		m.MostTradedGood = good
	}
	return res, nil
}

// Settle moves cash from buyer to seller and goods from seller to buyer.
func Settle(population []*agents.Agent, trades []Trade) error {
	byID := make(map[agents.AgentID]*agents.Agent, len(population))
	for _, a := range population {
		byID[a.ID] = a
	}
	for _, t := range trades {
		buyer, ok := byID[t.Buyer]
		if !ok {
			return fmt.Errorf("trade buyer %d not found", t.Buyer)
		}
		seller, ok := byID[t.Seller]
		if !ok {
			return fmt.Errorf("trade seller %d not found", t.Seller)
		}
		value := t.Value()
		buyer.Cash -= value
		seller.Cash += value
		buyer.Inventory[t.Good] += t.Quantity
		seller.Inventory[t.Good] -= t.Quantity
	}
	return nil
}
