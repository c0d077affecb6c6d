package marketplace

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradepost-dev/tradepost/internal/ledger"
)

// ledgerError maps a ledger error kind to its HTTP response. Every
// handler funnels ledger failures through here so the mapping lives in
// one place.
func ledgerError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ledger.ErrNotRegistered):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not registered"})
	case errors.Is(err, ledger.ErrAlreadyRegistered):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already registered"})
	case errors.Is(err, ledger.ErrNotSeller):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "seller role required"})
	case errors.Is(err, ledger.ErrNotBuyer):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "buyer role required"})
	case errors.Is(err, ledger.ErrListingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	case errors.Is(err, ledger.ErrOutOfStock):
		return c.JSON(http.StatusConflict, echo.Map{"error": "out of stock"})
	case errors.Is(err, ledger.ErrIndexOverflow):
		return c.JSON(http.StatusInsufficientStorage, echo.Map{"error": "ledger capacity reached"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// callerID pulls the party id the JWT middleware stored in the context.
func callerID(c echo.Context) (ledger.PartyID, bool) {
	partyID, ok := c.Get("party_id").(string)
	if !ok || partyID == "" {
		return "", false
	}
	return ledger.PartyID(partyID), true
}
