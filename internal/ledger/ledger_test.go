package ledger

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tradepost-dev/tradepost/internal/store"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(store.NewMemory())
}

func TestRegisterOncePerIdentity(t *testing.T) {
	l := newTestLedger(t)

	p, err := l.Register("alice", "alice", RoleBoth)
	require.NoError(t, err)
	require.Equal(t, PartyID("alice"), p.ID)
	require.Equal(t, "alice", p.Username)
	require.Equal(t, RoleBoth, p.Role)

	_, err = l.Register("alice", "alice-again", RoleBuyer)
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	// The original profile is untouched.
	got, err := l.GetProfile("alice")
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestGetProfileUnknownIdentity(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.GetProfile("ghost")
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestRoleGating(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("buyer", "bob", RoleBuyer)
	require.NoError(t, err)
	_, err = l.Register("seller", "sally", RoleSeller)
	require.NoError(t, err)
	_, err = l.Register("both", "billie", RoleBoth)
	require.NoError(t, err)

	_, err = l.Publish("buyer", "Lamp", "desk lamp", 4500, CategoryFurniture, 3)
	require.ErrorIs(t, err, ErrNotSeller)
	_, err = l.ListBySeller("buyer")
	require.ErrorIs(t, err, ErrNotSeller)

	listing, err := l.Publish("seller", "Lamp", "desk lamp", 4500, CategoryFurniture, 3)
	require.NoError(t, err)

	_, err = l.PlaceOrder("seller", listing.ID)
	require.ErrorIs(t, err, ErrNotBuyer)
	_, err = l.ListByBuyer("seller")
	require.ErrorIs(t, err, ErrNotBuyer)

	// Role both passes both gates.
	_, err = l.Publish("both", "Drill", "cordless drill", 9900, CategoryTools, 1)
	require.NoError(t, err)
	_, err = l.PlaceOrder("both", listing.ID)
	require.NoError(t, err)
}

func TestUnregisteredCallersFailFast(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Publish("nobody", "x", "", 1, CategoryTools, 1)
	require.ErrorIs(t, err, ErrNotRegistered)
	_, err = l.ListAll("nobody")
	require.ErrorIs(t, err, ErrNotRegistered)
	_, err = l.PlaceOrder("nobody", 0)
	require.ErrorIs(t, err, ErrNotRegistered)
	_, err = l.ListAllOrders("nobody")
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestListingIDEqualsPosition(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("s", "sally", RoleSeller)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		listing, err := l.Publish("s", "item", "", 100, CategoryElectronics, 1)
		require.NoError(t, err)
		require.Equal(t, uint64(i), listing.ID)
	}

	all, err := l.ListAll("s")
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, listing := range all {
		require.Equal(t, uint64(i), listing.ID)
	}
}

func TestStockMonotonicity(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("s", "sally", RoleSeller)
	require.NoError(t, err)
	_, err = l.Register("b", "bob", RoleBuyer)
	require.NoError(t, err)

	listing, err := l.Publish("s", "Shirt", "plain tee", 12000, CategoryApparel, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), listing.Stock)

	for want := uint64(2); ; want-- {
		order, err := l.PlaceOrder("b", listing.ID)
		require.NoError(t, err)
		// The order snapshot is taken after the decrement.
		require.Equal(t, want, order.Listing.Stock)

		all, err := l.ListAll("b")
		require.NoError(t, err)
		require.Equal(t, want, all[listing.ID].Stock)
		if want == 0 {
			break
		}
	}

	_, err = l.PlaceOrder("b", listing.ID)
	require.ErrorIs(t, err, ErrOutOfStock)

	// The failed call committed nothing.
	all, err := l.ListAll("b")
	require.NoError(t, err)
	require.Equal(t, uint64(0), all[listing.ID].Stock)
	orders, err := l.ListByBuyer("b")
	require.NoError(t, err)
	require.Len(t, orders, 3)
}

func TestPlaceOrderUnknownListing(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("b", "bob", RoleBuyer)
	require.NoError(t, err)

	_, err = l.PlaceOrder("b", 0)
	require.ErrorIs(t, err, ErrListingNotFound)
}

func TestSellerIndexCompleteness(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("s1", "sally", RoleSeller)
	require.NoError(t, err)
	_, err = l.Register("s2", "sam", RoleSeller)
	require.NoError(t, err)

	// Interleave publications from two sellers.
	var wantS1 []string
	for i := 0; i < 6; i++ {
		if i%2 == 0 {
			name := "s1-item"
			_, err := l.Publish("s1", name, "", 10, CategoryTools, 1)
			require.NoError(t, err)
			wantS1 = append(wantS1, name)
		} else {
			_, err := l.Publish("s2", "s2-item", "", 10, CategoryTools, 1)
			require.NoError(t, err)
		}
	}

	mine, err := l.ListBySeller("s1")
	require.NoError(t, err)
	require.Len(t, mine, len(wantS1))
	var lastID uint64
	for i, listing := range mine {
		require.Equal(t, PartyID("s1"), listing.SellerID)
		require.Equal(t, wantS1[i], listing.Name)
		if i > 0 {
			require.Greater(t, listing.ID, lastID, "creation order preserved")
		}
		lastID = listing.ID
	}
}

func TestOrderSnapshotIsDetached(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("s", "sally", RoleSeller)
	require.NoError(t, err)
	_, err = l.Register("b", "bob", RoleBuyer)
	require.NoError(t, err)

	listing, err := l.Publish("s", "Shirt", "plain tee", 12000, CategoryApparel, 20)
	require.NoError(t, err)

	first, err := l.PlaceOrder("b", listing.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(19), first.Listing.Stock)

	// Drive the live listing down further; the stored snapshot must not move.
	_, err = l.PlaceOrder("b", listing.ID)
	require.NoError(t, err)

	orders, err := l.ListByBuyer("b")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, uint64(19), orders[0].Listing.Stock)
	require.Equal(t, uint64(18), orders[1].Listing.Stock)
	require.Equal(t, StatusPending, orders[0].Status)
	require.False(t, orders[0].CancelRequested)
}

// The worked end-to-end scenario: alice sells, bob buys the stock out.
func TestMarketplaceScenario(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("alice", "alice", RoleBoth)
	require.NoError(t, err)
	listing, err := l.Publish("alice", "Shirt", "plain tee", 12000, CategoryApparel, 20)
	require.NoError(t, err)
	require.Equal(t, uint64(0), listing.ID)
	require.Equal(t, uint64(20), listing.Stock)

	_, err = l.Register("bob", "bob", RoleBoth)
	require.NoError(t, err)

	order, err := l.PlaceOrder("bob", 0)
	require.NoError(t, err)
	require.Equal(t, uint64(19), order.Listing.Stock)

	mine, err := l.ListBySeller("alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, uint64(19), mine[0].Stock)

	bought, err := l.ListByBuyer("bob")
	require.NoError(t, err)
	require.Len(t, bought, 1)
	require.Equal(t, uint64(0), bought[0].ID)

	for i := 0; i < 19; i++ {
		_, err := l.PlaceOrder("bob", 0)
		require.NoError(t, err)
	}
	_, err = l.PlaceOrder("bob", 0)
	require.ErrorIs(t, err, ErrOutOfStock)

	all, err := l.ListAll("bob")
	require.NoError(t, err)
	require.Equal(t, uint64(0), all[0].Stock)

	everyOrder, err := l.ListAllOrders("alice")
	require.NoError(t, err)
	require.Len(t, everyOrder, 20)
}

func TestConcurrentPlaceOrders(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("s", "sally", RoleSeller)
	require.NoError(t, err)
	_, err = l.Register("b", "bob", RoleBuyer)
	require.NoError(t, err)
	listing, err := l.Publish("s", "Shirt", "plain tee", 12000, CategoryApparel, 100)
	require.NoError(t, err)

	const buyers = 50
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.PlaceOrder("b", listing.ID); err != nil {
				t.Errorf("place order failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// Every accepted order must be recorded, with dense unique ids.
	orders, err := l.ListAllOrders("s")
	require.NoError(t, err)
	require.Len(t, orders, buyers)
	seen := make(map[uint64]bool, buyers)
	for _, o := range orders {
		require.False(t, seen[o.ID], "duplicate order id %d", o.ID)
		require.Less(t, o.ID, uint64(buyers))
		seen[o.ID] = true
	}

	mine, err := l.ListByBuyer("b")
	require.NoError(t, err)
	require.Len(t, mine, buyers)

	all, err := l.ListAll("b")
	require.NoError(t, err)
	require.Equal(t, uint64(100-buyers), all[listing.ID].Stock)
}

func TestConcurrentPublish(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("s", "sally", RoleSeller)
	require.NoError(t, err)

	const listings = 40
	var wg sync.WaitGroup
	for i := 0; i < listings; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Publish("s", "item", "", 10, CategoryTools, 1); err != nil {
				t.Errorf("publish failed: %v", err)
			}
		}()
	}
	wg.Wait()

	all, err := l.ListAll("s")
	require.NoError(t, err)
	require.Len(t, all, listings)
	for i, listing := range all {
		require.Equal(t, uint64(i), listing.ID)
	}

	mine, err := l.ListBySeller("s")
	require.NoError(t, err)
	require.Len(t, mine, listings)
}

func TestPublishIndexOverflow(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("s", "sally", RoleSeller)
	require.NoError(t, err)
	require.NoError(t, l.putJSON(listingCountKey, uint64(math.MaxUint64)))

	_, err = l.Publish("s", "item", "", 10, CategoryTools, 1)
	require.ErrorIs(t, err, ErrIndexOverflow)

	// The failed call committed nothing.
	mine, err := l.ListBySeller("s")
	require.NoError(t, err)
	require.Empty(t, mine)
	n, err := l.count(listingCountKey)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), n)
}

func TestPlaceOrderIndexOverflow(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("s", "sally", RoleSeller)
	require.NoError(t, err)
	_, err = l.Register("b", "bob", RoleBuyer)
	require.NoError(t, err)
	listing, err := l.Publish("s", "Drill", "cordless", 9900, CategoryTools, 5)
	require.NoError(t, err)
	require.NoError(t, l.putJSON(orderCountKey, uint64(math.MaxUint64)))

	_, err = l.PlaceOrder("b", listing.ID)
	require.ErrorIs(t, err, ErrIndexOverflow)

	// Stock is untouched and no order reached the buyer index.
	all, err := l.ListAll("b")
	require.NoError(t, err)
	require.Equal(t, uint64(5), all[listing.ID].Stock)
	mine, err := l.ListByBuyer("b")
	require.NoError(t, err)
	require.Empty(t, mine)
}
