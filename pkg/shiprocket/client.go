package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client represents a Shiprocket API client. Auth tokens come from the
// TokenProvider; a request rejected with 401 forces one refresh and is
// retried once.
type Client struct {
	config     Config
	tokens     *TokenProvider
	httpClient *http.Client
}

// NewClient creates a new Shiprocket client with the given configuration
func NewClient(config Config, tokens *TokenProvider) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// Login exchanges the account credentials for a fresh token. The
// TokenProvider calls this; application code should not.
func (c *Client) Login(ctx context.Context) (string, error) {
	body, err := json.Marshal(authRequest{
		Email:    c.config.Email,
		Password: c.config.Password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read auth response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrAuthFailed, resp.StatusCode, string(raw))
	}

	var authResp authResponse
	if err := json.Unmarshal(raw, &authResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal auth response: %w", err)
	}
	if authResp.Token == "" {
		return "", fmt.Errorf("%w: empty token in response", ErrAuthFailed)
	}
	return authResp.Token, nil
}

// CheckServiceability returns the couriers able to deliver to a pincode.
func (c *Client) CheckServiceability(ctx context.Context, req ServiceabilityRequest) ([]CourierOption, error) {
	if req.PickupPincode == "" {
		req.PickupPincode = c.config.PickupPincode
	}

	query := url.Values{}
	query.Set("pickup_postcode", req.PickupPincode)
	query.Set("delivery_postcode", req.DeliveryPincode)
	query.Set("weight", fmt.Sprintf("%.2f", req.WeightKG))
	if req.CODAmount > 0 {
		query.Set("cod", "1")
	} else {
		query.Set("cod", "0")
	}

	endpoint := "/courier/serviceability/?" + query.Encode()
	raw, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var svcResp serviceabilityResponse
	if err := json.Unmarshal(raw, &svcResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal serviceability response: %w", err)
	}
	if len(svcResp.Data.AvailableCouriers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotServiceable, req.DeliveryPincode)
	}
	return svcResp.Data.AvailableCouriers, nil
}

// TrackByAWB returns the scan trail for an air waybill number.
func (c *Client) TrackByAWB(ctx context.Context, awb string) (*TrackingResult, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, "/courier/track/awb/"+url.PathEscape(awb), nil)
	if err != nil {
		return nil, err
	}

	var trackResp trackingResponse
	if err := json.Unmarshal(raw, &trackResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tracking response: %w", err)
	}

	result := &TrackingResult{
		AWB:    awb,
		Events: trackResp.TrackingData.ShipmentTrackActivities,
	}
	if len(trackResp.TrackingData.ShipmentTrack) > 0 {
		track := trackResp.TrackingData.ShipmentTrack[0]
		result.CurrentStatus = track.CurrentStatus
		result.CourierName = track.CourierName
	}
	return result, nil
}

// doRequest performs an authenticated request. One 401 triggers a forced
// token refresh and a single retry.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	token, err := c.tokens.GetValid(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}

	raw, status, err := c.send(ctx, method, endpoint, payload, token)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		token, err = c.tokens.ForceRefresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh token: %w", err)
		}
		raw, status, err = c.send(ctx, method, endpoint, payload, token)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, string(raw))
		}
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", status, string(raw))
	}
	return raw, nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload interface{}, token string) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+endpoint, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}
	return raw, resp.StatusCode, nil
}
