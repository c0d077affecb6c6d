package auth_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/tradepost-dev/tradepost/internal/auth"
	"github.com/tradepost-dev/tradepost/internal/db"
	"github.com/tradepost-dev/tradepost/internal/ledger"
	"github.com/tradepost-dev/tradepost/internal/store"
)

// brokenCredStore refuses writes under a key prefix while passing
// everything else through, standing in for a store that fails mid-signup.
type brokenCredStore struct {
	store.KV
	failPrefix string
}

func (b *brokenCredStore) Put(key string, value []byte) error {
	if b.failPrefix != "" && strings.HasPrefix(key, b.failPrefix) {
		return errors.New("write refused")
	}
	return b.KV.Put(key, value)
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSignupCredentialSaveFailure(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	broken := &brokenCredStore{KV: store.NewMemory(), failPrefix: "cred:"}
	db.Store = broken
	db.Ledger = ledger.New(broken)

	e := echo.New()
	e.POST("/auth/signup", auth.Signup)
	e.POST("/auth/login", auth.Login)

	body := `{"username":"alice","email":"alice@example.com","password":"hunter22","role":"both"}`
	rec := postJSON(e, "/auth/signup", body)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// The committed profile's party id is surfaced, not stranded.
	var resp struct {
		Error   string `json:"error"`
		PartyID string `json:"party_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.PartyID)
	profile, err := db.Ledger.GetProfile(ledger.PartyID(resp.PartyID))
	require.NoError(t, err)
	require.Equal(t, "alice", profile.Username)

	// The email was never claimed, so a repeat signup succeeds once the
	// store recovers, under a fresh party id.
	broken.failPrefix = ""
	rec = postJSON(e, "/auth/signup", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var ok auth.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	require.NotEmpty(t, ok.Token)

	rec = postJSON(e, "/auth/login", fmt.Sprintf(`{"email":%q,"password":"hunter22"}`, "alice@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
}
