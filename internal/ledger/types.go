package ledger

import (
	"encoding/json"
	"fmt"
)

// PartyID is the opaque identity of a caller. The ledger never inspects
// it; whatever resolves identities (the auth layer, a test) picks the
// representation.
type PartyID string

// Role is the capability tag on a profile.
type Role uint8

const (
	RoleBuyer Role = iota
	RoleSeller
	RoleBoth
)

var roleNames = map[Role]string{
	RoleBuyer:  "buyer",
	RoleSeller: "seller",
	RoleBoth:   "both",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// ParseRole maps the wire name of a role to its constant.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Category classifies a listing.
type Category uint8

const (
	CategoryElectronics Category = iota
	CategoryApparel
	CategoryTools
	CategoryFurniture
)

var categoryNames = map[Category]string{
	CategoryElectronics: "electronics",
	CategoryApparel:     "apparel",
	CategoryTools:       "tools",
	CategoryFurniture:   "furniture",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// ParseCategory maps the wire name of a category to its constant.
func ParseCategory(s string) (Category, error) {
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// OrderStatus is the lifecycle label on an order. Only StatusPending is
// ever produced today; the remaining states and the cancel-request flag
// are declared so the stored records already carry them, but no
// operation transitions an order out of pending yet.
type OrderStatus uint8

const (
	StatusPending OrderStatus = iota
	StatusShipped
	StatusReceived
	StatusCancelled
)

var statusNames = map[OrderStatus]string{
	StatusPending:   "pending",
	StatusShipped:   "shipped",
	StatusReceived:  "received",
	StatusCancelled: "cancelled",
}

func (s OrderStatus) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for v, n := range statusNames {
		if n == name {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown order status %q", name)
}

// UserProfile binds an identity to a username and role. Profiles are
// immutable once created; there is no update or delete.
type UserProfile struct {
	ID       PartyID `json:"id"`
	Username string  `json:"username"`
	Role     Role    `json:"role"`
}

// Listing is a seller's catalog entry. Its ID equals its position in
// the catalog sequence at creation time, which is what lets order
// placement resolve a listing without a scan. Stock only ever moves
// down, one unit per order.
type Listing struct {
	ID          uint64   `json:"id"`
	SellerID    PartyID  `json:"seller_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       uint64   `json:"price"`
	Category    Category `json:"category"`
	Stock       uint64   `json:"stock"`
}

// Order records a purchase. Listing is a snapshot taken after the
// stock decrement, so the order keeps the product as bought even if
// the live listing changes later. ID equals the order's position in
// the order sequence, same invariant as listings.
type Order struct {
	ID              uint64      `json:"id"`
	Status          OrderStatus `json:"status"`
	Listing         Listing     `json:"listing"`
	BuyerID         PartyID     `json:"buyer_id"`
	CancelRequested bool        `json:"cancel_requested"`
}
