package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradepost-dev/tradepost/internal/db"
	"github.com/tradepost-dev/tradepost/internal/ledger"
)

// CreateListing allows a seller to publish a new listing
func CreateListing(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Price       uint64 `json:"price"`
		Category    string `json:"category"`
		Stock       uint64 `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" || req.Price == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and valid price are required"})
	}
	category, err := ledger.ParseCategory(req.Category)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
	}

	listing, err := db.Ledger.Publish(caller, req.Name, req.Description, req.Price, category, req.Stock)
	if err != nil {
		return ledgerError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"listing": listing,
		"message": "listing created successfully",
	})
}

// GetAllListings returns the full catalog to any registered caller
func GetAllListings(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	listings, err := db.Ledger.ListAll(caller)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"listings": listings})
}

// GetMyListings returns the authenticated seller's own listings
func GetMyListings(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	listings, err := db.Ledger.ListBySeller(caller)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"listings": listings})
}
