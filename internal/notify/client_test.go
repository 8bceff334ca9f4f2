package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendAbsenceAlert(t *testing.T) {
	var (
		gotMethod string
		gotAuth   string
		gotCT     string
		gotBody   AbsenceAlert
		calls     int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-token", false)
	alert := AbsenceAlert{
		StudentName: "Priya Verma",
		PeriodName:  "Period 3",
		ParentPhone: "+911234567890",
	}
	if err := c.SendAbsenceAlert(context.Background(), alert); err != nil {
		t.Fatalf("SendAbsenceAlert() error = %v", err)
	}

	if calls != 1 {
		t.Fatalf("webhook called %d times, want 1", calls)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotCT != "application/json" {
		t.Errorf("content type = %q", gotCT)
	}
	if gotBody != alert {
		t.Errorf("payload = %+v, want %+v", gotBody, alert)
	}
}

func TestSendAbsenceAlertNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "twilio credentials missing", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "", false)
	err := c.SendAbsenceAlert(context.Background(), AbsenceAlert{StudentName: "X"})
	if err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestSendAbsenceAlertSkip(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := New(srv.URL, "", true)
	if err := c.SendAbsenceAlert(context.Background(), AbsenceAlert{}); err != nil {
		t.Fatalf("skip mode must not error, got %v", err)
	}
	if calls != 0 {
		t.Errorf("skip mode still called the webhook %d times", calls)
	}
}
