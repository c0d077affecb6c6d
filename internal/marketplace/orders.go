package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradepost-dev/tradepost/internal/db"
)

// =========================
// CreateOrder - Buyer places order
// =========================
func CreateOrder(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		ListingID *uint64 `json:"listing_id"`
	}
	if err := c.Bind(&req); err != nil || req.ListingID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing_id"})
	}

	order, err := db.Ledger.PlaceOrder(caller, *req.ListingID)
	if err != nil {
		return ledgerError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"order":   order,
		"message": "order placed successfully",
	})
}

// =========================
// GetMyOrders - Fetch the authenticated buyer's orders
// =========================
func GetMyOrders(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orders, err := db.Ledger.ListByBuyer(caller)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// =========================
// GetAllOrders - Fetch every order, readable by any registered caller
// =========================
func GetAllOrders(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	orders, err := db.Ledger.ListAllOrders(caller)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}
