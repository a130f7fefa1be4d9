// Package pricing implements the order-book price resolver: reducing an
// OrderBook to a single execution price for a given ExecutionMode, quoting
// against the best online order on each side of the book.
package pricing

import (
	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

// floorPrice is the minimum price the patient undercut/outbid rule may
// produce.
const floorPrice = 1.0

// ResolveSetPrice returns the price a seller of the composite set would
// receive under mode. ok is false when no eligible online order exists.
func ResolveSetPrice(book domain.OrderBook, mode domain.ExecutionMode) (price float64, ok bool) {
	switch mode {
	case domain.ExecutionPatient:
		return bestSell(book, true)
	default:
		return bestBuy(book, false)
	}
}

// ResolvePartPrice returns the price a buyer of one part would pay under
// mode. ok is false when no eligible online order exists.
func ResolvePartPrice(book domain.OrderBook, mode domain.ExecutionMode) (price float64, ok bool) {
	switch mode {
	case domain.ExecutionPatient:
		return bestBuy(book, true)
	default:
		return bestSell(book, false)
	}
}

// bestSell returns the lowest online sell price. undercut shaves one unit
// off (floored at floorPrice) for the patient-seller case. Does not assume
// book.SellOrders arrives pre-sorted.
func bestSell(book domain.OrderBook, undercut bool) (float64, bool) {
	online := book.OnlineSellOrders()
	if len(online) == 0 {
		return 0, false
	}
	lowest := online[0].Price
	for _, o := range online[1:] {
		if o.Price < lowest {
			lowest = o.Price
		}
	}
	if undercut {
		lowest -= 1
		if lowest < floorPrice {
			lowest = floorPrice
		}
	}
	return lowest, true
}

// bestBuy returns the highest online buy price. outbid adds one unit for
// the patient-buyer case. Does not assume book.BuyOrders arrives pre-sorted.
func bestBuy(book domain.OrderBook, outbid bool) (float64, bool) {
	online := book.OnlineBuyOrders()
	if len(online) == 0 {
		return 0, false
	}
	highest := online[0].Price
	for _, o := range online[1:] {
		if o.Price > highest {
			highest = o.Price
		}
	}
	if outbid {
		highest += 1
	}
	return highest, true
}
