package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"budget-tracker/handlers"
	"budget-tracker/middleware"
	"budget-tracker/models"
	"budget-tracker/services"
	"budget-tracker/store"
	"budget-tracker/utils"
)

type stubSource struct {
	rate float64
	err  error
}

func (s *stubSource) FetchRate(ctx context.Context, base, target string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.rate, nil
}

func newTestAPI(t *testing.T, src services.RateSource) (*gin.Engine, *store.FileStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	ws := handlers.NewWSHandler()
	updater := services.NewRateUpdater(src, st, ws)

	router := gin.New()
	api := router.Group("/api")
	SetupAuthRoutes(api, st)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware())
	SetupDataRoutes(protected, st, ws, updater)

	return router, st
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func registerUser(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	rr := doJSON(t, router, "POST", "/api/register", "", gin.H{"username": username, "password": "secret123"})
	if rr.Code != 200 {
		t.Fatalf("register %s: %d %s", username, rr.Code, rr.Body.String())
	}
	token, _ := decode(t, rr)["token"].(string)
	if token == "" {
		t.Fatal("register returned no token")
	}
	return token
}

func TestRegisterValidation(t *testing.T) {
	router, _ := newTestAPI(t, &stubSource{rate: 7.2})

	cases := []gin.H{
		{"username": "", "password": "secret123"},
		{"username": "alice", "password": ""},
		{"username": "alice", "password": "short"},
	}
	for _, body := range cases {
		if rr := doJSON(t, router, "POST", "/api/register", "", body); rr.Code != 400 {
			t.Errorf("register %v: %d, want 400", body, rr.Code)
		}
	}

	registerUser(t, router, "alice")
	rr := doJSON(t, router, "POST", "/api/register", "", gin.H{"username": "alice", "password": "secret123"})
	if rr.Code != 400 {
		t.Fatalf("duplicate register: %d", rr.Code)
	}
}

func TestLoginNoEnumeration(t *testing.T) {
	router, _ := newTestAPI(t, &stubSource{rate: 7.2})
	registerUser(t, router, "alice")

	ok := doJSON(t, router, "POST", "/api/login", "", gin.H{"username": "alice", "password": "secret123"})
	if ok.Code != 200 {
		t.Fatalf("login: %d %s", ok.Code, ok.Body.String())
	}

	wrongPass := doJSON(t, router, "POST", "/api/login", "", gin.H{"username": "alice", "password": "wrongpass"})
	unknownUser := doJSON(t, router, "POST", "/api/login", "", gin.H{"username": "nobody", "password": "secret123"})

	if wrongPass.Code != 400 || unknownUser.Code != 400 {
		t.Fatalf("codes = %d/%d, want 400/400", wrongPass.Code, unknownUser.Code)
	}
	// identical bodies, so usernames cannot be probed
	if wrongPass.Body.String() != unknownUser.Body.String() {
		t.Fatalf("error bodies differ: %q vs %q", wrongPass.Body.String(), unknownUser.Body.String())
	}
}

func TestDataAuthGating(t *testing.T) {
	router, _ := newTestAPI(t, &stubSource{rate: 7.2})

	if rr := doJSON(t, router, "GET", "/api/data", "", nil); rr.Code != 401 {
		t.Fatalf("missing token: %d, want 401", rr.Code)
	}
	if rr := doJSON(t, router, "GET", "/api/data", "garbage.token.here", nil); rr.Code != 403 {
		t.Fatalf("invalid token: %d, want 403", rr.Code)
	}

	// valid signature but the user is gone from the store
	ghost, err := utils.GenerateAccessToken("no-such-id", "ghost")
	if err != nil {
		t.Fatal(err)
	}
	if rr := doJSON(t, router, "GET", "/api/data", ghost, nil); rr.Code != 404 {
		t.Fatalf("unknown user: %d, want 404", rr.Code)
	}
}

func TestDataRoundTrip(t *testing.T) {
	router, _ := newTestAPI(t, &stubSource{rate: 7.2})
	token := registerUser(t, router, "alice")

	rr := doJSON(t, router, "GET", "/api/data", token, nil)
	if rr.Code != 200 {
		t.Fatalf("get data: %d", rr.Code)
	}
	snap := decode(t, rr)
	if snap["primaryCurrency"] != "CNY" || snap["exchangeRate"] != 7.2 {
		t.Fatalf("default snapshot = %v", snap)
	}

	update := models.DefaultSnapshot()
	update.MonthlyBudget = 3000
	rr = doJSON(t, router, "POST", "/api/data", token, update)
	if rr.Code != 200 {
		t.Fatalf("save data: %d %s", rr.Code, rr.Body.String())
	}
	if decode(t, rr)["success"] != true {
		t.Fatalf("save response = %s", rr.Body.String())
	}

	rr = doJSON(t, router, "GET", "/api/data", token, nil)
	if got := decode(t, rr)["monthlyBudget"]; got != 3000.0 {
		t.Fatalf("monthlyBudget = %v, want 3000", got)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	router, _ := newTestAPI(t, &stubSource{rate: 7.2})
	token := registerUser(t, router, "alice")

	if rr := doJSON(t, router, "PUT", "/api/budget", token, gin.H{"amount": 1000}); rr.Code != 200 {
		t.Fatalf("set budget: %d %s", rr.Code, rr.Body.String())
	}

	rr := doJSON(t, router, "POST", "/api/expenses", token, gin.H{
		"name": "food", "amount": 72, "currency": "secondary",
	})
	if rr.Code != 200 {
		t.Fatalf("add expense: %d %s", rr.Code, rr.Body.String())
	}
	snap := decode(t, rr)
	expenses := snap["expenses"].([]interface{})
	first := expenses[0].(map[string]interface{})
	if first["amount"].(float64) != 10 {
		t.Fatalf("amount = %v, want 10", first["amount"])
	}
	if first["amountInSecondary"].(float64) != 72 {
		t.Fatalf("amountInSecondary = %v, want 72", first["amountInSecondary"])
	}

	rr = doJSON(t, router, "GET", "/api/totals", token, nil)
	totals := decode(t, rr)["totals"].(map[string]interface{})
	if totals["remaining"].(float64) != 990 {
		t.Fatalf("remaining = %v, want 990", totals["remaining"])
	}

	// invalid and out-of-range deletes leave the ledger alone
	if rr := doJSON(t, router, "DELETE", "/api/expenses/abc", token, nil); rr.Code != 400 {
		t.Fatalf("non-numeric index: %d", rr.Code)
	}
	if rr := doJSON(t, router, "DELETE", "/api/expenses/5", token, nil); rr.Code != 400 {
		t.Fatalf("out-of-range index: %d", rr.Code)
	}
	rr = doJSON(t, router, "GET", "/api/data", token, nil)
	if n := len(decode(t, rr)["expenses"].([]interface{})); n != 1 {
		t.Fatalf("expenses = %d after rejected deletes, want 1", n)
	}

	if rr := doJSON(t, router, "DELETE", "/api/expenses/0", token, nil); rr.Code != 200 {
		t.Fatalf("delete: %d", rr.Code)
	}
}

func TestListExpensesLegacyFallback(t *testing.T) {
	router, st := newTestAPI(t, &stubSource{rate: 7.2})
	token := registerUser(t, router, "alice")

	user, err := st.FindByUsername("alice")
	if err != nil {
		t.Fatal(err)
	}
	snap := user.Data
	snap.Expenses = []models.Expense{{Name: "old", Amount: 10}}
	if err := st.SaveSnapshot(user.ID, snap); err != nil {
		t.Fatal(err)
	}

	rr := doJSON(t, router, "GET", "/api/expenses", token, nil)
	if rr.Code != 200 {
		t.Fatalf("list expenses: %d", rr.Code)
	}
	items := decode(t, rr)["expenses"].([]interface{})
	item := items[0].(map[string]interface{})
	if item["legacy"] != true {
		t.Fatalf("legacy = %v", item["legacy"])
	}
	if item["displaySecondary"] != "$72.00" {
		t.Fatalf("displaySecondary = %v, want live-rate $72.00", item["displaySecondary"])
	}
}

func TestWishlistTaxOverAPI(t *testing.T) {
	router, _ := newTestAPI(t, &stubSource{rate: 7.2})
	token := registerUser(t, router, "alice")

	rr := doJSON(t, router, "POST", "/api/wishlist", token, gin.H{
		"name": "phone", "price": 100, "applyTax": true, "taxTiming": "pre-tax",
	})
	if rr.Code != 200 {
		t.Fatalf("add wishlist: %d %s", rr.Code, rr.Body.String())
	}
	items := decode(t, rr)["wishlist"].([]interface{})
	if price := items[0].(map[string]interface{})["price"].(float64); price != 113 {
		t.Fatalf("pre-tax price = %v, want 113 at the default 13%% tax", price)
	}

	rr = doJSON(t, router, "POST", "/api/wishlist", token, gin.H{
		"name": "case", "price": 100, "applyTax": true, "taxTiming": "post-tax",
	})
	items = decode(t, rr)["wishlist"].([]interface{})
	if price := items[1].(map[string]interface{})["price"].(float64); price != 100 {
		t.Fatalf("post-tax price = %v, want 100", price)
	}
}

func TestSavingsProgressClamp(t *testing.T) {
	router, _ := newTestAPI(t, &stubSource{rate: 7.2})
	token := registerUser(t, router, "alice")

	rr := doJSON(t, router, "POST", "/api/savings", token, gin.H{
		"name": "trip", "target": 100, "current": 150,
	})
	if rr.Code != 200 {
		t.Fatalf("add savings: %d %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, "GET", "/api/savings", token, nil)
	items := decode(t, rr)["savings"].([]interface{})
	goal := items[0].(map[string]interface{})
	if goal["progress"].(float64) != 100 {
		t.Fatalf("progress = %v, want clamped 100", goal["progress"])
	}
	if goal["current"].(float64) != 150 {
		t.Fatalf("current = %v, underlying value must stay unclamped", goal["current"])
	}
}

func TestRateRefresh(t *testing.T) {
	src := &stubSource{rate: 6.5}
	router, _ := newTestAPI(t, src)
	token := registerUser(t, router, "alice")

	rr := doJSON(t, router, "GET", "/api/rate", token, nil)
	if rr.Code != 200 {
		t.Fatalf("get rate: %d", rr.Code)
	}
	if got := decode(t, rr)["updated"]; got != "never" {
		t.Fatalf("updated = %v, want never", got)
	}

	rr = doJSON(t, router, "POST", "/api/rate/refresh", token, nil)
	if rr.Code != 200 {
		t.Fatalf("refresh: %d %s", rr.Code, rr.Body.String())
	}
	body := decode(t, rr)
	if body["rate"].(float64) != 6.5 {
		t.Fatalf("rate = %v, want 6.5", body["rate"])
	}
	if body["updated"] == "never" {
		t.Fatal("freshness stamp missing after refresh")
	}

	// a failing source keeps the prior rate and reports 502
	src.err = errors.New("connection refused")
	if rr := doJSON(t, router, "POST", "/api/rate/refresh", token, nil); rr.Code != 502 {
		t.Fatalf("failed refresh: %d, want 502", rr.Code)
	}
	rr = doJSON(t, router, "GET", "/api/rate", token, nil)
	if got := decode(t, rr)["rate"].(float64); got != 6.5 {
		t.Fatalf("rate after failure = %v, want retained 6.5", got)
	}
}

func TestSettingsCurrencyChange(t *testing.T) {
	router, st := newTestAPI(t, &stubSource{rate: 0.14})
	token := registerUser(t, router, "alice")

	// stamp freshness first so the reset is observable
	if rr := doJSON(t, router, "POST", "/api/rate/refresh", token, nil); rr.Code != 200 {
		t.Fatalf("refresh: %d", rr.Code)
	}

	rr := doJSON(t, router, "PUT", "/api/settings", token, gin.H{
		"primaryCurrency": "EUR", "secondaryCurrency": "GBP", "taxRate": 20,
	})
	if rr.Code != 200 {
		t.Fatalf("settings: %d %s", rr.Code, rr.Body.String())
	}
	snap := decode(t, rr)
	if snap["primaryCurrency"] != "EUR" || snap["secondaryCurrency"] != "GBP" {
		t.Fatalf("pair = %v/%v", snap["primaryCurrency"], snap["secondaryCurrency"])
	}
	if snap["taxRate"].(float64) != 20 {
		t.Fatalf("taxRate = %v", snap["taxRate"])
	}

	user, err := st.FindByUsername("alice")
	if err != nil {
		t.Fatal(err)
	}
	if user.Data.PrimaryCurrency != "EUR" {
		t.Fatalf("persisted pair = %s", user.Data.PrimaryCurrency)
	}
}

func TestManualExchangeRateEdit(t *testing.T) {
	router, _ := newTestAPI(t, &stubSource{rate: 7.2})
	token := registerUser(t, router, "alice")

	rr := doJSON(t, router, "PUT", "/api/settings", token, gin.H{"exchangeRate": 6.8})
	if rr.Code != 200 {
		t.Fatalf("settings: %d %s", rr.Code, rr.Body.String())
	}
	if got := decode(t, rr)["exchangeRate"].(float64); got != 6.8 {
		t.Fatalf("exchangeRate = %v, want 6.8", got)
	}

	if rr := doJSON(t, router, "PUT", "/api/settings", token, gin.H{"exchangeRate": -1}); rr.Code != 400 {
		t.Fatalf("negative rate: %d, want 400", rr.Code)
	}
}
