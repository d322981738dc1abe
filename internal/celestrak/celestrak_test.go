package celestrak

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const goodResponse = "ISS (ZARYA)\r\n" +
	"1 25544U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9994\r\n" +
	"2 25544  51.6369  94.7823 0002558 120.7586  15.7840 15.49587957510533\r\n"

func TestFetchParsesThreeLineResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("CATNR"); got != "25544" {
			t.Errorf("CATNR = %q, want 25544", got)
		}
		fmt.Fprint(w, goodResponse)
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/gp.php?CATNR=%d&FORMAT=tle")
	elset, err := client.Fetch(context.Background(), 25544)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if elset.Name != "ISS (ZARYA)" {
		t.Errorf("name = %q", elset.Name)
	}
	if len(elset.Line1) != 69 || elset.Line1[0] != '1' {
		t.Errorf("line1 = %q", elset.Line1)
	}
	if len(elset.Line2) != 69 || elset.Line2[0] != '2' {
		t.Errorf("line2 = %q", elset.Line2)
	}
}

func TestFetchRejectsNoDataResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "No GP data found")
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/gp.php?CATNR=%d&FORMAT=tle")
	if _, err := client.Fetch(context.Background(), 404404); err == nil {
		t.Fatal("incomplete response accepted")
	}
}

func TestFetchRejectsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/gp.php?CATNR=%d&FORMAT=tle")
	if _, err := client.Fetch(context.Background(), 25544); err == nil {
		t.Fatal("non-200 response accepted")
	}
}
