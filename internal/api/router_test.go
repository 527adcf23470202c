package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlog/internal/api"
	"spendlog/internal/database"
	"spendlog/internal/models"
	"spendlog/internal/services"
	"spendlog/internal/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	sessions := session.NewManager(session.NewMemoryStore(), "test-secret", time.Hour)
	router := api.NewRouter(services.NewUserService(db), services.NewExpenseService(db), sessions, false)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

// newClient returns a client with a cookie jar that does not follow
// redirects, so redirect targets stay observable.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postJSON(t *testing.T, c *http.Client, url string, body any) *http.Response {
	t.Helper()
	return doJSON(t, c, http.MethodPost, url, body)
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(encoded))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	require.NoError(t, err)
	return resp
}

func registerAndLogin(t *testing.T, c *http.Client, baseURL, name, email, password string) {
	t.Helper()
	resp := postJSON(t, c, baseURL+"/register", map[string]string{
		"name": name, "email": email, "password": password,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = postJSON(t, c, baseURL+"/login", map[string]string{
		"email": email, "password": password,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/view_expense.html", resp.Header.Get("Location"))
}

func TestRegisterLoginAddListTotal(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	registerAndLogin(t, c, ts.URL, "Alice", "a@x.com", "secret")

	resp := postJSON(t, c, ts.URL+"/add-expense", map[string]any{
		"date":          "2024-01-05",
		"amount":        10,
		"description":   "bus",
		"category":      "transport",
		"paymentMethod": "cash",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err := c.Get(ts.URL + "/expenses")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var expenses []models.Expense
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&expenses))
	require.Len(t, expenses, 1)
	assert.Greater(t, expenses[0].ID, int64(0))
	assert.Equal(t, "2024-01-05", expenses[0].Date)
	assert.Equal(t, "bus", expenses[0].Description)
	assert.Equal(t, "transport", expenses[0].Category)
	assert.Equal(t, "cash", expenses[0].PaymentMethod)

	resp, err = c.Get(ts.URL + "/api/expense")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var total struct {
		Total float64 `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&total))
	assert.Equal(t, 10.0, total.Total)
}

func TestExpenseRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	requests := []struct {
		method, path string
	}{
		{http.MethodPost, "/add-expense"},
		{http.MethodGet, "/expenses"},
		{http.MethodGet, "/api/edit_expense/1"},
		{http.MethodPut, "/edit-expense/1"},
		{http.MethodDelete, "/delete-expense/1"},
		{http.MethodGet, "/api/expense"},
	}
	for _, tt := range requests {
		req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tt.method, tt.path)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	resp := postJSON(t, c, ts.URL+"/register", map[string]string{
		"name": "Alice", "email": "a@x.com", "password": "secret",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	read := func(email, password string) (int, string) {
		resp := postJSON(t, c, ts.URL+"/login", map[string]string{
			"email": email, "password": password,
		})
		defer resp.Body.Close()
		var body bytes.Buffer
		body.ReadFrom(resp.Body)
		return resp.StatusCode, body.String()
	}

	wrongPassStatus, wrongPassBody := read("a@x.com", "wrong")
	noUserStatus, noUserBody := read("nobody@x.com", "secret")

	assert.Equal(t, http.StatusUnauthorized, wrongPassStatus)
	assert.Equal(t, wrongPassStatus, noUserStatus)
	assert.Equal(t, wrongPassBody, noUserBody)
}

func TestTwoUsersSeeOnlyTheirOwnTotals(t *testing.T) {
	ts := newTestServer(t)

	clients := map[string]*http.Client{}
	for _, who := range []string{"alice", "bob"} {
		c := newClient(t)
		registerAndLogin(t, c, ts.URL, who, who+"@x.com", "secret")
		resp := postJSON(t, c, ts.URL+"/add-expense", map[string]any{
			"date":          "2024-02-01",
			"amount":        5,
			"description":   who + "'s expense",
			"category":      "misc",
			"paymentMethod": "cash",
		})
		resp.Body.Close()
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		clients[who] = c
	}

	for who, c := range clients {
		resp, err := c.Get(ts.URL + "/api/expense")
		require.NoError(t, err)
		var total struct {
			Total float64 `json:"total"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&total))
		resp.Body.Close()
		assert.Equal(t, 5.0, total.Total, "total for %s", who)
	}
}

func TestEditFetchUpdateDelete(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	registerAndLogin(t, c, ts.URL, "Alice", "a@x.com", "secret")

	resp := postJSON(t, c, ts.URL+"/add-expense", map[string]any{
		"date":          "2024-03-01",
		"amount":        "42.50",
		"description":   "coffee",
		"category":      "food",
		"paymentMethod": "card",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err := c.Get(ts.URL + "/expenses")
	require.NoError(t, err)
	var expenses []models.Expense
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&expenses))
	resp.Body.Close()
	require.Len(t, expenses, 1)
	id := expenses[0].ID

	// Fetch for the edit form.
	resp, err = c.Get(fmt.Sprintf("%s/api/edit_expense/%d", ts.URL, id))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched struct {
		Message string         `json:"message"`
		Expense models.Expense `json:"expense"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	resp.Body.Close()
	assert.Equal(t, "success", fetched.Message)
	assert.Equal(t, "42.50", fetched.Expense.Amount.String())

	// Update date, amount, description.
	resp = doJSON(t, c, http.MethodPut, fmt.Sprintf("%s/edit-expense/%d", ts.URL, id), map[string]any{
		"date":        "2024-03-02",
		"amount":      40,
		"description": "espresso",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	resp.Body.Close()
	assert.Equal(t, "Expense updated successfully", updated["message"])

	// Updating a nonexistent id reports not found.
	resp = doJSON(t, c, http.MethodPut, fmt.Sprintf("%s/edit-expense/%d", ts.URL, id+999), map[string]any{
		"date":        "2024-03-02",
		"amount":      1,
		"description": "ghost",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Delete, then delete again.
	del := func() int {
		req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/delete-expense/%d", ts.URL, id), nil)
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusOK, del())
	assert.Equal(t, http.StatusNotFound, del())

	// The edit fetch now reports the structured not-found payload.
	resp, err = c.Get(fmt.Sprintf("%s/api/edit_expense/%d", ts.URL, id))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var nf struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&nf))
	resp.Body.Close()
	assert.False(t, nf.Success)
	assert.Equal(t, "Expense not found", nf.Message)
}

func TestCrossOwnerExpenseLooksAbsent(t *testing.T) {
	ts := newTestServer(t)

	alice := newClient(t)
	registerAndLogin(t, alice, ts.URL, "Alice", "a@x.com", "secret")
	resp := postJSON(t, alice, ts.URL+"/add-expense", map[string]any{
		"date":          "2024-01-05",
		"amount":        10,
		"description":   "bus",
		"category":      "transport",
		"paymentMethod": "cash",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err := alice.Get(ts.URL + "/expenses")
	require.NoError(t, err)
	var expenses []models.Expense
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&expenses))
	resp.Body.Close()
	require.Len(t, expenses, 1)

	bob := newClient(t)
	registerAndLogin(t, bob, ts.URL, "Bob", "b@x.com", "secret")

	resp, err = bob.Get(fmt.Sprintf("%s/api/edit_expense/%d", ts.URL, expenses[0].ID))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "foreign expense must answer like a missing one")
}

func TestLoginCookieExpiryMatchesSessionTTL(t *testing.T) {
	// The test server's manager uses a one-hour TTL; the cookie must not
	// outlive or undercut the server-side record.
	ts := newTestServer(t)
	c := newClient(t)

	resp := postJSON(t, c, ts.URL+"/register", map[string]string{
		"name": "Alice", "email": "a@x.com", "password": "secret",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = postJSON(t, c, ts.URL+"/login", map[string]string{
		"email": "a@x.com", "password": "secret",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var sessionCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session" {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie, "login must set the session cookie")

	expiry := time.Until(sessionCookie.Expires)
	assert.Greater(t, expiry, 55*time.Minute)
	assert.Less(t, expiry, 65*time.Minute)
}

func TestLogoutEndsSession(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	registerAndLogin(t, c, ts.URL, "Alice", "a@x.com", "secret")

	resp, err := c.Get(ts.URL + "/expenses")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = c.Post(ts.URL+"/logout", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err = c.Get(ts.URL + "/expenses")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStaticPages(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t)

	for _, path := range []string{"/", "/register", "/login", "/add_expense.html", "/edit_expense.html", "/view_expense.html"} {
		resp, err := c.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, "GET %s", path)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html", "GET %s", path)
	}
}
