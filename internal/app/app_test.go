package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"libraryledger/internal/auth"
	"libraryledger/internal/clock"
	"libraryledger/internal/config"
	"libraryledger/internal/repository/memory"
	"libraryledger/internal/statistics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTP:    config.HTTPConfig{RequestTimeout: 3 * time.Second},
		Storage: config.StorageConfig{Backend: "memory"},
		Ledger:  config.LedgerConfig{DefaultLoanDays: 14},
		Fees:    config.FeesConfig{FinePerDay: 20, RentPerDay: 10},
	}
}

func newServer(t *testing.T, cfg *config.Config) (*httptest.Server, *clock.Manual) {
	t.Helper()
	log := zap.NewNop().Sugar()
	clk := clock.NewManual(clock.MustParse("2024-01-01"))
	svc := NewServices(cfg, memory.New(log), clk, log)
	srv := httptest.NewServer(NewRouter(cfg, svc, log))
	t.Cleanup(srv.Close)
	return srv, clk
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestLedgerOverHTTP(t *testing.T) {
	srv, clk := newServer(t, testConfig())

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/healthz", nil, nil))

	var member struct {
		ID int64 `json:"member_id"`
	}
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/members", map[string]any{"name": "Reader"}, &member))
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/books",
		map[string]any{"book_id": "B123", "title": "Dune", "author": "Frank Herbert", "quantity": 1}, nil))

	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/issued_books",
		map[string]any{"book_id": "B123", "member_id": member.ID, "due_date": "2024-01-15"}, nil))
	require.Equal(t, http.StatusConflict, call(t, srv, http.MethodPost, "/issued_books",
		map[string]any{"book_id": "B123", "member_id": member.ID}, nil))

	var overdue struct {
		Books []struct {
			Fine   int64  `json:"fine"`
			Status string `json:"status"`
		} `json:"overdue_books"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/overdue_book_list?as_of=2024-01-20", nil, &overdue))
	require.Len(t, overdue.Books, 1)
	assert.Equal(t, int64(100), overdue.Books[0].Fine)

	clk.Set(clock.MustParse("2024-01-20"))
	var stats statistics.Stats
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/statistics", nil, &stats))
	assert.Equal(t, int64(1), stats.IssuedBooks)
	assert.Equal(t, int64(1), stats.OverdueBooks)

	var receipt struct {
		Rent int64 `json:"rent"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPut, "/issued_books", map[string]any{"book_id": "B123"}, &receipt))
	assert.Equal(t, int64(190), receipt.Rent)
	require.Equal(t, http.StatusNotFound, call(t, srv, http.MethodPut, "/issued_books", map[string]any{"book_id": "B123"}, nil))

	var settled struct {
		Message string `json:"message"`
		Receipt struct {
			Amount int64 `json:"amount"`
		} `json:"receipt"`
	}
	path := "/members/" + strconv.FormatInt(member.ID, 10) + "/settle_dues"
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPatch, path, nil, &settled))
	assert.Equal(t, "Outstanding Debt Settled", settled.Message)
	assert.Equal(t, int64(190), settled.Receipt.Amount)

	var journal struct {
		Events []struct {
			EventType string `json:"event_type"`
		} `json:"events"`
	}
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/members/"+strconv.FormatInt(member.ID, 10)+"/journal", nil, &journal))
	assert.Len(t, journal.Events, 3)
}

func TestStaffRoutesRequireCredentials(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, StaffUser: "admin", StaffPasswordHash: hash}
	srv, _ := newServer(t, cfg)

	book := map[string]any{"book_id": "B1", "title": "T"}
	require.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodPost, "/books", book, nil))
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/books", nil, nil))

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(book))
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/books", &buf)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "s3cret")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}
