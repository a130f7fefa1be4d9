package pricing

import (
	"testing"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

func TestResolveSetPrice(t *testing.T) {
	book := domain.OrderBook{
		SellOrders: []domain.Order{
			{Price: 45, Online: true},
			{Price: 40, Online: true},
			{Price: 35, Online: false}, // lowest overall, but offline
		},
		BuyOrders: []domain.Order{
			{Price: 30, Online: true},
			{Price: 33, Online: false}, // highest overall, but offline
			{Price: 28, Online: true},
		},
	}

	t.Run("instant uses best online bid", func(t *testing.T) {
		price, ok := ResolveSetPrice(book, domain.ExecutionInstant)
		if !ok {
			t.Fatal("expected a price")
		}
		if price != 30 {
			t.Errorf("price = %v, want 30", price)
		}
	})

	t.Run("patient undercuts best online ask by one", func(t *testing.T) {
		price, ok := ResolveSetPrice(book, domain.ExecutionPatient)
		if !ok {
			t.Fatal("expected a price")
		}
		if price != 39 {
			t.Errorf("price = %v, want 39", price)
		}
	})

	t.Run("no online sell orders yields no price in patient mode", func(t *testing.T) {
		empty := domain.OrderBook{SellOrders: []domain.Order{{Price: 10, Online: false}}}
		_, ok := ResolveSetPrice(empty, domain.ExecutionPatient)
		if ok {
			t.Fatal("expected no price")
		}
	})

	t.Run("patient undercut floors at one", func(t *testing.T) {
		b := domain.OrderBook{SellOrders: []domain.Order{{Price: 1, Online: true}}}
		price, ok := ResolveSetPrice(b, domain.ExecutionPatient)
		if !ok {
			t.Fatal("expected a price")
		}
		if price != floorPrice {
			t.Errorf("price = %v, want floor %v", price, floorPrice)
		}
	})
}

func TestResolvePartPrice(t *testing.T) {
	book := domain.OrderBook{
		SellOrders: []domain.Order{
			{Price: 12, Online: true},
			{Price: 9, Online: true},
		},
		BuyOrders: []domain.Order{
			{Price: 6, Online: true},
			{Price: 8, Online: true},
		},
	}

	t.Run("instant uses best online ask", func(t *testing.T) {
		price, ok := ResolvePartPrice(book, domain.ExecutionInstant)
		if !ok {
			t.Fatal("expected a price")
		}
		if price != 9 {
			t.Errorf("price = %v, want 9", price)
		}
	})

	t.Run("patient outbids best online bid by one", func(t *testing.T) {
		price, ok := ResolvePartPrice(book, domain.ExecutionPatient)
		if !ok {
			t.Fatal("expected a price")
		}
		if price != 9 {
			t.Errorf("price = %v, want 9", price)
		}
	})

	t.Run("no online orders on either side yields no price", func(t *testing.T) {
		_, ok := ResolvePartPrice(domain.OrderBook{}, domain.ExecutionInstant)
		if ok {
			t.Fatal("expected no price")
		}
		_, ok = ResolvePartPrice(domain.OrderBook{}, domain.ExecutionPatient)
		if ok {
			t.Fatal("expected no price")
		}
	})
}
