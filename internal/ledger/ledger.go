// Package ledger is the marketplace record store: an append-only
// catalog of listings and an append-only order ledger, both with
// per-owner secondary indices, plus the user registry that gates every
// operation.
//
// The ledger runs its calls single-writer, run-to-completion: the HTTP
// host serves handlers concurrently, so each mutating operation holds
// the write lock from its first check to its last put, and reads share
// the read lock. Every operation is ordered so that all fallible checks
// happen before the first write; once a write lands, the only remaining
// failure mode on the success path is the backing store itself.
package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/tradepost-dev/tradepost/internal/store"
)

const (
	userPrefix      = "user:"
	listingPrefix   = "listing:"
	orderPrefix     = "order:"
	sellerIdxPrefix = "selleridx:"
	buyerIdxPrefix  = "buyeridx:"

	listingCountKey = "listing:count"
	orderCountKey   = "order:count"
)

// Ledger runs the marketplace over a KV store. Construct one per store;
// tests build isolated instances on a memory backend.
type Ledger struct {
	mu sync.RWMutex
	kv store.KV
}

func New(kv store.KV) *Ledger {
	return &Ledger{kv: kv}
}

func userKey(id PartyID) string      { return userPrefix + string(id) }
func listingKey(id uint64) string    { return listingPrefix + strconv.FormatUint(id, 10) }
func orderKey(id uint64) string      { return orderPrefix + strconv.FormatUint(id, 10) }
func sellerIdxKey(id PartyID) string { return sellerIdxPrefix + string(id) }
func buyerIdxKey(id PartyID) string  { return buyerIdxPrefix + string(id) }

func (l *Ledger) getJSON(key string, out any) (bool, error) {
	raw, ok, err := l.kv.Get(key)
	if err != nil {
		return false, fmt.Errorf("ledger: get %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("ledger: decode %s: %w", key, err)
	}
	return true, nil
}

func (l *Ledger) putJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ledger: encode %s: %w", key, err)
	}
	if err := l.kv.Put(key, raw); err != nil {
		return fmt.Errorf("ledger: put %s: %w", key, err)
	}
	return nil
}

func (l *Ledger) count(key string) (uint64, error) {
	var n uint64
	if _, err := l.getJSON(key, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// profile loads the caller's profile, failing fast when absent. Every
// operation starts here.
func (l *Ledger) profile(caller PartyID) (UserProfile, error) {
	var p UserProfile
	ok, err := l.getJSON(userKey(caller), &p)
	if err != nil {
		return UserProfile{}, err
	}
	if !ok {
		return UserProfile{}, ErrNotRegistered
	}
	return p, nil
}

func requireSeller(p UserProfile) error {
	if p.Role == RoleSeller || p.Role == RoleBoth {
		return nil
	}
	return ErrNotSeller
}

func requireBuyer(p UserProfile) error {
	if p.Role == RoleBuyer || p.Role == RoleBoth {
		return nil
	}
	return ErrNotBuyer
}

// Register creates the caller's profile. An identity registers at most
// once; the profile is immutable afterwards.
func (l *Ledger) Register(caller PartyID, username string, role Role) (UserProfile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var existing UserProfile
	ok, err := l.getJSON(userKey(caller), &existing)
	if err != nil {
		return UserProfile{}, err
	}
	if ok {
		return UserProfile{}, ErrAlreadyRegistered
	}
	p := UserProfile{ID: caller, Username: username, Role: role}
	if err := l.putJSON(userKey(caller), p); err != nil {
		return UserProfile{}, err
	}
	return p, nil
}

// GetProfile looks up the caller's own profile. No side effects.
func (l *Ledger) GetProfile(caller PartyID) (UserProfile, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.profile(caller)
}

// Publish appends a new listing to the catalog. The listing's id is the
// catalog length before the append, so id doubles as storage position.
func (l *Ledger) Publish(caller PartyID, name, description string, price uint64, category Category, stock uint64) (Listing, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.profile(caller)
	if err != nil {
		return Listing{}, err
	}
	if err := requireSeller(p); err != nil {
		return Listing{}, err
	}

	n, err := l.count(listingCountKey)
	if err != nil {
		return Listing{}, err
	}
	if n == math.MaxUint64 {
		return Listing{}, ErrIndexOverflow
	}
	var idx []uint64
	if _, err := l.getJSON(sellerIdxKey(caller), &idx); err != nil {
		return Listing{}, err
	}

	listing := Listing{
		ID:          n,
		SellerID:    caller,
		Name:        name,
		Description: description,
		Price:       price,
		Category:    category,
		Stock:       stock,
	}
	if err := l.putJSON(listingKey(n), listing); err != nil {
		return Listing{}, err
	}
	if err := l.putJSON(listingCountKey, n+1); err != nil {
		return Listing{}, err
	}
	if err := l.putJSON(sellerIdxKey(caller), append(idx, n)); err != nil {
		return Listing{}, err
	}
	return listing, nil
}

// ListBySeller returns the caller's own listings in creation order.
func (l *Ledger) ListBySeller(caller PartyID) ([]Listing, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, err := l.profile(caller)
	if err != nil {
		return nil, err
	}
	if err := requireSeller(p); err != nil {
		return nil, err
	}
	var idx []uint64
	if _, err := l.getJSON(sellerIdxKey(caller), &idx); err != nil {
		return nil, err
	}
	listings := make([]Listing, 0, len(idx))
	for _, id := range idx {
		var listing Listing
		ok, err := l.getJSON(listingKey(id), &listing)
		if err != nil {
			return nil, err
		}
		if !ok {
			// An indexed id always references a live record; skip
			// rather than fail if the store disagrees.
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// ListAll returns the whole catalog. Any registered identity may read
// it; only sellers may write to it.
func (l *Ledger) ListAll(caller PartyID) ([]Listing, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, err := l.profile(caller); err != nil {
		return nil, err
	}
	n, err := l.count(listingCountKey)
	if err != nil {
		return nil, err
	}
	listings := make([]Listing, 0, n)
	for id := uint64(0); id < n; id++ {
		var listing Listing
		ok, err := l.getJSON(listingKey(id), &listing)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// PlaceOrder buys one unit of the given listing. The stock decrement,
// the order append and the buyer-index append form one unit of work:
// every fallible check runs before the first write.
func (l *Ledger) PlaceOrder(caller PartyID, listingID uint64) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.profile(caller)
	if err != nil {
		return Order{}, err
	}
	if err := requireBuyer(p); err != nil {
		return Order{}, err
	}

	listingCount, err := l.count(listingCountKey)
	if err != nil {
		return Order{}, err
	}
	if listingID >= listingCount {
		return Order{}, ErrListingNotFound
	}
	var listing Listing
	ok, err := l.getJSON(listingKey(listingID), &listing)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, ErrListingNotFound
	}
	if listing.Stock == 0 {
		return Order{}, ErrOutOfStock
	}

	orderCount, err := l.count(orderCountKey)
	if err != nil {
		return Order{}, err
	}
	if orderCount == math.MaxUint64 {
		return Order{}, ErrIndexOverflow
	}
	var idx []uint64
	if _, err := l.getJSON(buyerIdxKey(caller), &idx); err != nil {
		return Order{}, err
	}

	// Single point of listing mutation after creation.
	listing.Stock--
	if err := l.putJSON(listingKey(listingID), listing); err != nil {
		return Order{}, err
	}

	order := Order{
		ID:              orderCount,
		Status:          StatusPending,
		Listing:         listing,
		BuyerID:         caller,
		CancelRequested: false,
	}
	if err := l.putJSON(orderKey(orderCount), order); err != nil {
		return Order{}, err
	}
	if err := l.putJSON(orderCountKey, orderCount+1); err != nil {
		return Order{}, err
	}
	if err := l.putJSON(buyerIdxKey(caller), append(idx, orderCount)); err != nil {
		return Order{}, err
	}
	return order, nil
}

// ListByBuyer returns the caller's own orders in creation order.
func (l *Ledger) ListByBuyer(caller PartyID) ([]Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, err := l.profile(caller)
	if err != nil {
		return nil, err
	}
	if err := requireBuyer(p); err != nil {
		return nil, err
	}
	var idx []uint64
	if _, err := l.getJSON(buyerIdxKey(caller), &idx); err != nil {
		return nil, err
	}
	orders := make([]Order, 0, len(idx))
	for _, id := range idx {
		var order Order
		ok, err := l.getJSON(orderKey(id), &order)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// ListAllOrders returns every order, readable by any registered
// identity, mirroring the catalog's read policy.
func (l *Ledger) ListAllOrders(caller PartyID) ([]Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, err := l.profile(caller); err != nil {
		return nil, err
	}
	n, err := l.count(orderCountKey)
	if err != nil {
		return nil, err
	}
	orders := make([]Order, 0, n)
	for id := uint64(0); id < n; id++ {
		var order Order
		ok, err := l.getJSON(orderKey(id), &order)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}
