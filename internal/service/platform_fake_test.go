package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edukit/admin-dashboard/internal/adapters/platformapi"
)

// fakePlatformAPI serves paged entity lists and mutation endpoints.
// Requests must carry the current bearer token; refresh rotates it.
type fakePlatformAPI struct {
	mu           sync.Mutex
	token        string
	nextToken    string
	refreshFails bool
	rows         map[string][]map[string]any
	failing      map[string]int
	toggled      []string
	verified     []map[string]any
	listQueries  []string
}

func newFakePlatformAPI() *fakePlatformAPI {
	return &fakePlatformAPI{
		token:     "tok-1",
		nextToken: "tok-2",
		rows: map[string][]map[string]any{
			"learners": {
				{"_id": "l1", "name": "Ann", "email": "ann@example.com", "isActive": true},
				{"_id": "l2", "name": "Bo", "email": "bo@example.com", "isActive": false},
				{"_id": "l3", "name": "Cy", "email": "cy@example.com", "isActive": true},
			},
			"courses": {
				{"_id": "c1", "title": "Go Basics", "verificationStatus": "under_review"},
			},
			"coupons": {
				{"_id": "k1", "code": "SPRING", "discount": 10, "isActive": true},
			},
		},
		failing: map[string]int{},
	}
}

func (p *fakePlatformAPI) authorized(r *http.Request) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return r.Header.Get("Authorization") == "Bearer "+p.token
}

func (p *fakePlatformAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/refresh", func(w http.ResponseWriter, _ *http.Request) {
		p.mu.Lock()
		fails := p.refreshFails
		if !fails {
			p.token = p.nextToken
		}
		tok := p.token
		p.mu.Unlock()
		if fails {
			respondJSON(w, http.StatusUnauthorized, map[string]any{"message": "refresh token expired"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"accessToken": tok})
	})
	mux.HandleFunc("GET /admin/{kind}", func(w http.ResponseWriter, r *http.Request) {
		if !p.authorized(r) {
			respondJSON(w, http.StatusUnauthorized, map[string]any{"message": "jwt expired"})
			return
		}
		kind := r.PathValue("kind")
		p.mu.Lock()
		p.listQueries = append(p.listQueries, kind+"?"+r.URL.RawQuery)
		status := p.failing[kind]
		all := append([]map[string]any(nil), p.rows[kind]...)
		p.mu.Unlock()
		if status != 0 {
			respondJSON(w, status, map[string]any{"message": "boom"})
			return
		}

		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		search := strings.ToLower(q.Get("search"))
		var matched []map[string]any
		for _, row := range all {
			name, _ := row["name"].(string)
			if search == "" || strings.Contains(strings.ToLower(name), search) {
				matched = append(matched, row)
			}
		}
		total := (len(matched) + limit - 1) / limit
		start := min((page-1)*limit, len(matched))
		end := min(start+limit, len(matched))
		respondJSON(w, http.StatusOK, map[string]any{
			"rows":       matched[start:end],
			"totalPages": total,
		})
	})
	mux.HandleFunc("PATCH /admin/{kind}/status", func(w http.ResponseWriter, r *http.Request) {
		if !p.authorized(r) {
			respondJSON(w, http.StatusUnauthorized, map[string]any{"message": "jwt expired"})
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		p.mu.Lock()
		p.toggled = append(p.toggled, r.PathValue("kind")+":"+body["id"])
		p.mu.Unlock()
		respondJSON(w, http.StatusOK, map[string]any{"message": "ok"})
	})
	mux.HandleFunc("PATCH /admin/course/verification", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		p.mu.Lock()
		p.verified = append(p.verified, body)
		p.mu.Unlock()
		respondJSON(w, http.StatusOK, map[string]any{"message": "ok"})
	})
	return mux
}

func (p *fakePlatformAPI) toggles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.toggled...)
}

func (p *fakePlatformAPI) queries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.listQueries...)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newFakePlatformFactory(t *testing.T, p *fakePlatformAPI) *platformapi.Factory {
	t.Helper()
	srv := httptest.NewServer(p.handler())
	t.Cleanup(srv.Close)
	f, err := platformapi.NewFactory(platformapi.FactoryOptions{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return f
}

func platformHooksNoop() platformapi.Hooks { return platformapi.Hooks{} }
