package geoip

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/janmanch/janmanch-backend/pkg/config"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
)

func TestClientLookupRequest(t *testing.T) {
	const expectedURL = "http://geoip.test/json/103.27.8.1"
	respBody := `{"status":"success","country":"India","regionName":"Karnataka","city":"Bengaluru"}`

	var capturedURL string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	httpClient := &http.Client{Transport: rt}
	client, err := NewClient(config.GeoIPConfig{BaseURL: "http://geoip.test/json"}, WithHTTPClient(httpClient))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	loc, err := client.Lookup(context.Background(), "103.27.8.1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if loc.Country != "India" || loc.Region != "Karnataka" || loc.City != "Bengaluru" {
		t.Fatalf("unexpected location %+v", loc)
	}
	if got := loc.String(); got != "Bengaluru, Karnataka, India" {
		t.Fatalf("unexpected string form %q", got)
	}
}

func TestClientLookupFailStatus(t *testing.T) {
	respBody := `{"status":"fail","message":"private range"}`
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(config.GeoIPConfig{BaseURL: "http://geoip.test/json"}, WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Lookup(context.Background(), "192.168.0.1")
	if err == nil {
		t.Fatal("expected failure for fail status")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestClientLookupValidation(t *testing.T) {
	client, err := NewClient(config.GeoIPConfig{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Lookup(context.Background(), "  ")
	if err == nil {
		t.Fatal("expected error for blank ip")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientLookupHTTPError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(strings.NewReader("rate limited")),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(config.GeoIPConfig{BaseURL: "http://geoip.test/json"}, WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Lookup(context.Background(), "103.27.8.1")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
