package paypalorder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/plutov/paypal/v4"
	"github.com/sahilchouksey/edtech-checkout/services/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	intent     string
	units      []paypal.PurchaseUnitRequest
	createErr  error
	captured   string
	status     string
	captureErr error
}

func (f *fakeOrders) CreateOrder(ctx context.Context, intent string, units []paypal.PurchaseUnitRequest, source *paypal.PaymentSource, app *paypal.ApplicationContext) (*paypal.Order, error) {
	f.intent, f.units = intent, units
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &paypal.Order{ID: "ORDER-1", Status: "CREATED"}, nil
}

func (f *fakeOrders) CaptureOrder(ctx context.Context, orderID string, req paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error) {
	f.captured = orderID
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return &paypal.CaptureOrderResponse{ID: orderID, Status: f.status}, nil
}

func lineItem(amount string) payment.LineItem {
	return payment.LineItem{Name: "Course 2", Amount: decimal.RequireFromString(amount), Currency: "usd"}
}

func TestCreateOrderUsesChargeAmount(t *testing.T) {
	api := &fakeOrders{}
	d := NewWithAPI(api, nil)

	id, err := d.CreateOrder(context.Background(), lineItem("130"))
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", id)

	assert.Equal(t, paypal.OrderIntentCapture, api.intent)
	require.Len(t, api.units, 1)
	assert.Equal(t, "130.00", api.units[0].Amount.Value)
	assert.Equal(t, "USD", api.units[0].Amount.Currency)
}

func TestCreateOrderFailures(t *testing.T) {
	d := NewWithAPI(&fakeOrders{createErr: errors.New("dial tcp: i/o timeout")}, nil)
	_, err := d.CreateOrder(context.Background(), lineItem("130"))
	assert.Equal(t, payment.DispatchFailed, payment.KindOf(err))

	_, err = NewWithAPI(&fakeOrders{}, nil).CreateOrder(context.Background(), lineItem("0"))
	assert.Equal(t, payment.DispatchFailed, payment.KindOf(err))
}

func TestCapture(t *testing.T) {
	api := &fakeOrders{status: StatusCompleted}
	outcome := NewWithAPI(api, nil).Capture(context.Background(), "ORDER-1")
	assert.Equal(t, payment.Succeeded(), outcome)
	assert.Equal(t, "ORDER-1", api.captured)

	outcome = NewWithAPI(&fakeOrders{status: "PENDING"}, nil).Capture(context.Background(), "ORDER-1")
	assert.Equal(t, payment.Failed("order status PENDING"), outcome)
}

func TestCaptureDeclined(t *testing.T) {
	declined := &paypal.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusUnprocessableEntity},
		Name:     "UNPROCESSABLE_ENTITY",
		Details:  []paypal.ErrorResponseDetail{{Issue: "INSTRUMENT_DECLINED"}},
	}
	outcome := NewWithAPI(&fakeOrders{captureErr: declined}, nil).Capture(context.Background(), "ORDER-1")
	assert.Equal(t, payment.Failed("INSTRUMENT_DECLINED"), outcome)

	outcome = NewWithAPI(&fakeOrders{captureErr: errors.New("EOF")}, nil).Capture(context.Background(), "ORDER-1")
	assert.Equal(t, payment.Failed("EOF"), outcome)
}

func TestWidgetError(t *testing.T) {
	assert.Equal(t, payment.Failed("popup closed"), WidgetError("popup closed"))
	assert.Equal(t, payment.Failed("PayPal checkout error"), WidgetError(""))
}

// paypalServer answers the token, create and capture endpoints of the REST API.
func paypalServer(t *testing.T, captureStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("POST /v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body struct {
			Intent        string                       `json:"intent"`
			PurchaseUnits []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, paypal.OrderIntentCapture, body.Intent)
		require.Len(t, body.PurchaseUnits, 1)
		assert.Equal(t, "130.00", body.PurchaseUnits[0].Amount.Value)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ORDER-9", "status": "CREATED"})
	})
	mux.HandleFunc("POST /v2/checkout/orders/ORDER-9/capture", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if captureStatus != http.StatusOK {
			w.WriteHeader(captureStatus)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"name":    "UNPROCESSABLE_ENTITY",
				"details": []map[string]string{{"issue": "INSTRUMENT_DECLINED"}},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ORDER-9", "status": StatusCompleted})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRESTClientCreateAndCapture(t *testing.T) {
	srv := paypalServer(t, http.StatusOK)
	d, err := New("client", "secret", srv.URL, nil)
	require.NoError(t, err)

	id, err := d.CreateOrder(context.Background(), lineItem("130"))
	require.NoError(t, err)
	assert.Equal(t, "ORDER-9", id)

	assert.Equal(t, payment.Succeeded(), d.Capture(context.Background(), id))
}

func TestRESTClientCaptureDeclined(t *testing.T) {
	srv := paypalServer(t, http.StatusUnprocessableEntity)
	d, err := New("client", "secret", srv.URL, nil)
	require.NoError(t, err)

	assert.Equal(t, payment.Failed("INSTRUMENT_DECLINED"), d.Capture(context.Background(), "ORDER-9"))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New("", "secret", "", nil)
	assert.Error(t, err)
}
