package auth

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/tradepost-dev/tradepost/internal/db"
	"github.com/tradepost-dev/tradepost/internal/ledger"
)

// credential is the stored login record for one email. It lives in the
// same KV store as the ledger records but under its own key prefix; the
// ledger itself never sees credentials.
type credential struct {
	PartyID      string `json:"party_id"`
	PasswordHash string `json:"password_hash"`
}

func credKey(email string) string { return "cred:" + email }

// signupMu serializes the exists-check and write of a credential record;
// the store has no conditional put, so two signups for the same email
// must not interleave.
var signupMu sync.Mutex

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// ===== Signup =====
// Signup mints a new party id, registers the profile in the ledger and
// stores the credential record for later logins.
func Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Username == "" || req.Email == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, email and password (min 6 chars) are required"})
	}
	role, err := ledger.ParseRole(req.Role)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be buyer, seller or both"})
	}

	signupMu.Lock()
	defer signupMu.Unlock()

	if _, exists, err := db.Store.Get(credKey(req.Email)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	} else if exists {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	partyID := ledger.PartyID(uuid.New().String())
	if _, err := db.Ledger.Register(partyID, req.Username, role); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	raw, err := json.Marshal(credential{
		PartyID:      string(partyID),
		PasswordHash: string(hashed),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	if err := db.Store.Put(credKey(req.Email), raw); err != nil {
		// The profile is committed and immutable at this point, so hand
		// the party id back rather than strand it. The email itself is
		// still unclaimed; a repeat signup mints a fresh identity.
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":    "credential save failed",
			"party_id": string(partyID),
		})
	}

	signed, err := IssueToken(string(partyID))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: signed})
}
