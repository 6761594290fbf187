package shiprocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *memoryTokenStore, *countingAuth) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{
		BaseURL:       server.URL,
		Email:         "api@example.com",
		Password:      "secret",
		PickupPincode: "302001",
	}
	store := &memoryTokenStore{
		token:     "valid-token",
		expiresAt: time.Now().Add(time.Hour),
	}
	auth := &countingAuth{}
	provider := NewTokenProvider(store, &memoryLocker{}, auth, &cfg)

	client, err := NewClient(cfg, provider)
	require.NoError(t, err)
	return client, store, auth
}

func TestClient_Login(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req authRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "api@example.com", req.Email)
		json.NewEncoder(w).Encode(authResponse{Token: "fresh-token"})
	})

	client, _, _ := testClient(t, mux)

	token, err := client.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
}

func TestClient_Login_BadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	client, _, _ := testClient(t, mux)

	_, err := client.Login(context.Background())
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestClient_CheckServiceability(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/courier/serviceability/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer valid-token", r.Header.Get("Authorization"))
		assert.Equal(t, "302001", r.URL.Query().Get("pickup_postcode"))
		assert.Equal(t, "110001", r.URL.Query().Get("delivery_postcode"))

		var resp serviceabilityResponse
		resp.Data.AvailableCouriers = []CourierOption{
			{CourierName: "Delhivery", Rate: 65, EstimatedDay: "3"},
		}
		json.NewEncoder(w).Encode(resp)
	})

	client, _, _ := testClient(t, mux)

	couriers, err := client.CheckServiceability(context.Background(), ServiceabilityRequest{
		DeliveryPincode: "110001",
		WeightKG:        0.5,
	})
	require.NoError(t, err)
	require.Len(t, couriers, 1)
	assert.Equal(t, "Delhivery", couriers[0].CourierName)
}

func TestClient_CheckServiceability_NoCouriers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/courier/serviceability/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(serviceabilityResponse{})
	})

	client, _, _ := testClient(t, mux)

	_, err := client.CheckServiceability(context.Background(), ServiceabilityRequest{
		DeliveryPincode: "999999",
	})
	assert.ErrorIs(t, err, ErrNotServiceable)
}

func TestClient_RetriesOnceAfter401(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(authResponse{Token: "rotated-token"})
	})
	mux.HandleFunc("/courier/track/awb/", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "Bearer rotated-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(trackingResponse{})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := Config{
		BaseURL:  server.URL,
		Email:    "api@example.com",
		Password: "secret",
	}
	store := &memoryTokenStore{
		token:     "revoked-token",
		expiresAt: time.Now().Add(time.Hour),
	}

	// The provider's authenticator is a login-only client against the same
	// server, mirroring production wiring.
	authClient, err := NewClient(cfg, nil)
	require.NoError(t, err)
	provider := NewTokenProvider(store, &memoryLocker{}, authClient, &cfg)
	client, err := NewClient(cfg, provider)
	require.NoError(t, err)

	result, err := client.TrackByAWB(context.Background(), "AWB001")
	require.NoError(t, err)
	assert.Equal(t, "AWB001", result.AWB)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "rotated-token", store.token)
}

func TestClient_RejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
