// Package pricingtest runs an in-process stand-in for the pricing listing API.
package pricingtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Item is one listed entry
type Item struct {
	Text  string
	Price float64
}

// Server serves /items/currency/{category} from in-memory pages
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	catalogs map[string][][]Item
	failures map[string]map[int]int
	raw      map[string]map[int]string
	requests map[string][]int
	leagues  []string
	onReq    func(category string, page int)
}

// NewServer starts a server that is closed when the test ends
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		catalogs: make(map[string][][]Item),
		failures: make(map[string]map[int]int),
		raw:      make(map[string]map[int]string),
		requests: make(map[string][]int),
	}

	r := chi.NewRouter()
	r.Get("/items/currency/{category}", s.handleListing)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// SetPages replaces the pages served for category
func (s *Server) SetPages(category string, pages ...[]Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogs[category] = pages
}

// FailPage answers every request for category/page with status
func (s *Server) FailPage(category string, page, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures[category] == nil {
		s.failures[category] = make(map[int]int)
	}
	s.failures[category][page] = status
}

// SetRawPage answers category/page with body verbatim
func (s *Server) SetRawPage(category string, page int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw[category] == nil {
		s.raw[category] = make(map[int]string)
	}
	s.raw[category][page] = body
}

// OnRequest registers fn to run before each listing request is answered.
// A nil fn removes the hook.
func (s *Server) OnRequest(fn func(category string, page int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReq = fn
}

// Requests returns the page numbers requested for category, in order
func (s *Server) Requests(category string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.requests[category]...)
}

// TotalRequests counts requests across all categories
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, pages := range s.requests {
		n += len(pages)
	}
	return n
}

// Leagues returns the league query value of every request
func (s *Server) Leagues() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.leagues...)
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		http.Error(w, "bad page", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests[category] = append(s.requests[category], page)
	s.leagues = append(s.leagues, r.URL.Query().Get("league"))
	status := s.failures[category][page]
	raw, hasRaw := s.raw[category][page]
	pages := s.catalogs[category]
	hook := s.onReq
	s.mu.Unlock()

	if hook != nil {
		hook(category, page)
	}

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if hasRaw {
		_, _ = w.Write([]byte(raw))
		return
	}

	var listed []Item
	total := 0
	for i, p := range pages {
		total += len(p)
		if i == page-1 {
			listed = p
		}
	}

	items := make([]map[string]any, 0, len(listed))
	for i, it := range listed {
		items = append(items, map[string]any{
			"id":                 page*1000 + i,
			"itemId":             page*1000 + i,
			"currencyCategoryId": 1,
			"apiId":              fmt.Sprintf("%s-%d-%d", category, page, i),
			"text":               it.Text,
			"categoryApiId":      category,
			"iconUrl":            "https://example.invalid/icon.png",
			"currentPrice":       it.Price,
			"priceLogs":          []any{},
		})
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"currentPage": page,
		"pages":       len(pages),
		"total":       total,
		"items":       items,
	})
}

// Page builds n items named "<prefix> <i>" priced by price(i)
func Page(prefix string, n int, price func(i int) float64) []Item {
	items := make([]Item, 0, n)
	for i := range n {
		items = append(items, Item{Text: fmt.Sprintf("%s %d", prefix, i), Price: price(i)})
	}
	return items
}
