package inference

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shelf-vision/internal/model"
)

func TestDetectParsesBoxes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("path %s", r.URL.Path)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("accept %q", r.Header.Get("Accept"))
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		if string(data) != "img" || hdr.Filename != "shelf.jpg" {
			t.Errorf("unexpected upload %q %s", data, hdr.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"detections":[
			{"label":"bottle","confidence":0.9,"box":[10.4,20.6,50,80]},
			{"label":"cup","confidence":0.5,"box":[90,90,40,40]}
		]}`)
	}))
	defer srv.Close()

	dets, err := NewClient(srv.URL, time.Second).Detect(context.Background(), []byte("img"), "shelf.jpg")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(dets) != 2 {
		t.Fatalf("got %d detections", len(dets))
	}
	if dets[0].Box != (model.Box{X1: 10, Y1: 21, X2: 50, Y2: 80}) || dets[0].Label != "bottle" {
		t.Fatalf("first: %+v", dets[0])
	}
	if dets[1].Box != (model.Box{X1: 40, Y1: 40, X2: 90, Y2: 90}) {
		t.Fatalf("second box not normalised: %+v", dets[1].Box)
	}
}

func TestDetectRejectsShortBox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"detections":[{"label":"x","confidence":1,"box":[1,2]}]}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Detect(context.Background(), []byte("img"), "")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestDetectServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, time.Second).Detect(context.Background(), []byte("img"), ""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, time.Second).Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestPingUsesHealthTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 10*time.Second)
	if c.healthTimeout != defaultHealthTimeout {
		t.Fatalf("health timeout %v", c.healthTimeout)
	}
	c.healthTimeout = 50 * time.Millisecond

	if err := c.Ping(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
