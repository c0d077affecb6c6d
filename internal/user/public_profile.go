package user

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradepost-dev/tradepost/internal/db"
	"github.com/tradepost-dev/tradepost/internal/ledger"
)

// GetPublicProfile returns the public fields of any party's profile
func GetPublicProfile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	profile, err := db.Ledger.GetProfile(ledger.PartyID(id))
	if err != nil {
		if errors.Is(err, ledger.ErrNotRegistered) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load profile"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":       profile.ID,
		"username": profile.Username,
		"role":     profile.Role,
	})
}
