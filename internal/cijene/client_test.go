package cijene

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productJSON = `{
	"ean": "3850102123456",
	"brand": "Dukat",
	"name": "Svježe mlijeko 2,8% m.m.",
	"quantity": "1.000",
	"unit": "L",
	"chains": [
		{"chain": "konzum", "code": "K1", "name": "Mlijeko", "brand": "Dukat", "category": "Mlijeko", "unit": "L", "quantity": "1", "min_price": "1.19", "max_price": "1.39", "avg_price": "1.29", "price_date": "2025-06-01"},
		{"chain": "spar", "code": "S1", "name": "Mlijeko", "brand": null, "category": null, "unit": null, "quantity": null, "min_price": "1.09", "max_price": "1.09", "avg_price": "1.09", "price_date": "2025-06-01"}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Options{BaseURL: server.URL, Token: "secret"})
}

func TestSearchProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/products", r.URL.Path)
		assert.Equal(t, "mlijeko", r.URL.Query().Get("q"))
		assert.Equal(t, "2025-06-01", r.URL.Query().Get("date"))
		assert.Equal(t, "konzum,spar", r.URL.Query().Get("chains"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"products": [` + productJSON + `,` + productJSON + `]}`))
	})

	result, err := client.SearchProducts(context.Background(), SearchParams{
		Query:  "mlijeko",
		Date:   "2025-06-01",
		Chains: []string{"konzum", " ", "spar"},
	})
	require.NoError(t, err)
	require.Len(t, result.Products, 2)

	first, second := result.Products[0], result.Products[1]
	assert.Equal(t, "3850102123456", first.EAN)
	assert.Len(t, first.Chains, 2)
	assert.Nil(t, first.Chains[1].Brand)
	assert.NotEqual(t, first.SnapshotID, second.SnapshotID, "every decoded product gets its own snapshot id")
}

func TestSearchProductsRequiresQuery(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://127.0.0.1:0"})
	_, err := client.SearchProducts(context.Background(), SearchParams{})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = client.SearchProducts(context.Background(), SearchParams{Query: "x", Date: "01.06.2025"})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestGetProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/products/3850102123456/", r.URL.Path)
		w.Write([]byte(productJSON))
	})

	product, err := client.GetProduct(context.Background(), "3850102123456", ProductParams{})
	require.NoError(t, err)
	assert.Equal(t, "Dukat", *product.Brand)
	assert.NotZero(t, product.SnapshotID)
}

func TestResponseValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing ean", `{"brand": null, "name": null, "quantity": null, "unit": null, "chains": []}`},
		{"bad price date", `{"ean": "1", "chains": [{"chain": "spar", "code": "", "name": "", "min_price": "1", "max_price": "1", "avg_price": "1", "price_date": "1.6.2025"}]}`},
		{"not json", `<html>oops</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := client.GetProduct(context.Background(), "1", ProductParams{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidResponse)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus())
		})
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
		message  string
	}{
		{http.StatusUnauthorized, ErrUnauthorized, "Neispravna autentifikacija za Cijene API"},
		{http.StatusNotFound, ErrNotFound, "Traženi resurs nije pronađen"},
		{http.StatusBadGateway, ErrUpstream, "Greška na serveru. Pokušajte ponovo kasnije"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"detail": "nope"}`))
			})
			_, err := client.ListChains(context.Background())
			require.ErrorIs(t, err, tt.sentinel)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.status, apiErr.HTTPStatus())
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Contains(t, apiErr.Body, "nope")
		})
	}
}

func TestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	client := NewClient(Options{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.ListChains(context.Background())
	require.ErrorIs(t, err, ErrTimeout)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusGatewayTimeout, apiErr.HTTPStatus())
}

func TestArchivesAndHealthSkipAuth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v0/list":
			w.Write([]byte(`{"archives": [{"date": "2025-06-01", "url": "https://example.org/2025-06-01.zip", "size": 1024, "updated": "2025-06-01T06:00:00"}]}`))
		case "/health":
			w.Write([]byte(`{"status": "healthy"}`))
		default:
			http.NotFound(w, r)
		}
	})

	archives, err := client.ListArchives(context.Background())
	require.NoError(t, err)
	require.Len(t, archives.Archives, 1)
	assert.Equal(t, float64(1024), archives.Archives[0].Size)

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
}

func TestStoresAndPrices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/konzum/stores/":
			w.Write([]byte(`{"stores": [{"chain_code": "konzum", "code": "PJ50", "type": "supermarket", "address": "Ilica 1", "city": "Zagreb", "zipcode": "10000", "lat": 45.81, "lon": 15.97, "phone": null}]}`))
		case "/v1/stores":
			assert.Equal(t, "Zagreb", r.URL.Query().Get("city"))
			assert.Equal(t, "5", r.URL.Query().Get("d"))
			w.Write([]byte(`{"stores": []}`))
		case "/v1/prices":
			assert.Equal(t, "1,2", r.URL.Query().Get("eans"))
			w.Write([]byte(`{"store_prices": [{"chain": "spar", "ean": "1", "price_date": "2025-06-01", "regular_price": "2.49", "special_price": "1.99", "unit_price": null, "best_price_30": null, "anchor_price": null, "store": {"chain_id": 3, "code": "S7", "type": null, "address": null, "city": null, "zipcode": null, "lat": null, "lon": null, "phone": null}}]}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	stores, err := client.ListStores(ctx, "konzum")
	require.NoError(t, err)
	require.Len(t, stores.Stores, 1)
	assert.Equal(t, 45.81, *stores.Stores[0].Lat)
	assert.Nil(t, stores.Stores[0].Phone)

	distance := 5.0
	stores, err = client.SearchStores(ctx, StoreParams{Location: Location{City: "Zagreb", Distance: &distance}})
	require.NoError(t, err)
	assert.Empty(t, stores.Stores)

	prices, err := client.GetPrices(ctx, PriceParams{EANs: []string{"1", "2"}})
	require.NoError(t, err)
	require.Len(t, prices.StorePrices, 1)
	price, ok := prices.StorePrices[0].EffectivePrice().Value()
	assert.True(t, ok)
	assert.Equal(t, 1.99, price)

	_, err = client.GetPrices(ctx, PriceParams{})
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = client.ListStores(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestChainStats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chain_stats": [{"chain_code": "lidl", "price_date": "2025-06-01", "price_count": 12000, "store_count": 110, "created_at": "2025-06-01T07:12:45.123456Z"}]}`))
	})
	stats, err := client.ChainStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats.ChainStats, 1)
	assert.Equal(t, 110, stats.ChainStats[0].StoreCount)
}

func TestRateLimiterHonorsContext(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"chains": ["konzum"]}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Options{BaseURL: server.URL, RequestsPerSecond: 0.01, Burst: 1})
	_, err := client.ListChains(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.ListChains(ctx)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestChainsHelpers(t *testing.T) {
	assert.Equal(t, "konzum,spar", JoinChains([]string{" konzum", "", "spar "}))
	assert.Equal(t, []string{"konzum", "spar"}, SplitChains("konzum, ,spar"))
	assert.Nil(t, SplitChains("  "))
}
