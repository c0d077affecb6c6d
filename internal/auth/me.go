package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradepost-dev/tradepost/internal/db"
	"github.com/tradepost-dev/tradepost/internal/ledger"
)

// Me returns the currently authenticated caller's profile
func Me(c echo.Context) error {
	partyID, ok := c.Get("party_id").(string)
	if !ok || partyID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	profile, err := db.Ledger.GetProfile(ledger.PartyID(partyID))
	if err != nil {
		if errors.Is(err, ledger.ErrNotRegistered) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load profile"})
	}

	return c.JSON(http.StatusOK, profile)
}
