package shiprocket

// authRequest is the login payload.
type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is the login result; ExpiresIn is not part of the API reply,
// Shiprocket tokens last ten days.
type authResponse struct {
	Token string `json:"token"`
}

// ServiceabilityRequest asks which couriers can carry a shipment.
type ServiceabilityRequest struct {
	PickupPincode   string
	DeliveryPincode string
	WeightKG        float64
	CODAmount       int64
}

// CourierOption is one courier quote for a serviceability query.
type CourierOption struct {
	CourierID    int     `json:"courier_company_id"`
	CourierName  string  `json:"courier_name"`
	Rate         float64 `json:"rate"`
	EstimatedDay string  `json:"etd"`
	CODAvailable int     `json:"cod"`
}

type serviceabilityResponse struct {
	Status int `json:"status"`
	Data   struct {
		AvailableCouriers []CourierOption `json:"available_courier_companies"`
	} `json:"data"`
}

// TrackingEvent is one scan in a shipment's trail.
type TrackingEvent struct {
	Date     string `json:"date"`
	Status   string `json:"status"`
	Activity string `json:"activity"`
	Location string `json:"location"`
}

// TrackingResult is the current state of a shipment.
type TrackingResult struct {
	AWB           string          `json:"awb"`
	CurrentStatus string          `json:"current_status"`
	CourierName   string          `json:"courier_name"`
	Events        []TrackingEvent `json:"events"`
}

type trackingResponse struct {
	TrackingData struct {
		ShipmentTrack []struct {
			AWB           string `json:"awb_code"`
			CurrentStatus string `json:"current_status"`
			CourierName   string `json:"courier_name"`
		} `json:"shipment_track"`
		ShipmentTrackActivities []TrackingEvent `json:"shipment_track_activities"`
	} `json:"tracking_data"`
}
