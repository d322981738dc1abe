// Command orbit-ingest fetches current element sets from Celestrak for a
// list of catalog numbers and loads them into a tracker: either by POSTing
// to a running server's ingest endpoint, or directly into the Postgres
// element log.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/orbit-tracker/catalog"
	"github.com/signalsfoundry/orbit-tracker/internal/celestrak"
	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/tle"
)

// defaultIDs is a starter catalog of well-known objects across LEO, MEO,
// and GEO regimes.
var defaultIDs = []int{
	25544, // ISS
	20580, // Hubble
	56261, // Starlink-4369
	56252, // Starlink-4360
	56249, // Starlink-4357
	27004, // GOES 13
	43187, // Sentinel-3B
	40911, // Sentinel-3A
	39427, // Sentinel-1A
	43678, // Sentinel-6A
	25994, // Terra
	27424, // Aqua
	28654, // Aura
	28017, // GPS BIIF-1
	40294, // GPS BIIF-11
	39166, // GPS BIIF-8
	41019, // GPS BIIF-12
	25338, // NOAA 15
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Tracker server base URL to POST elements to")
	dsn := flag.String("dsn", "", "Postgres DSN; when set, elements are appended to the log directly instead of POSTed")
	source := flag.String("source", "", "Element source URL template with a %d verb for the catalog number (default Celestrak)")
	ids := flag.String("ids", "", "Comma-separated catalog numbers (default: built-in starter list)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	noradIDs := defaultIDs
	if *ids != "" {
		parsed, err := parseIDs(*ids)
		if err != nil {
			log.Error(ctx, "invalid -ids", logging.String("error", err.Error()))
			os.Exit(1)
		}
		noradIDs = parsed
	}

	var sink sink
	if *dsn != "" {
		elementLog, err := catalog.OpenLog(ctx, *dsn)
		if err != nil {
			log.Error(ctx, "failed to open element log", logging.String("error", err.Error()))
			os.Exit(1)
		}
		defer elementLog.Close()
		sink = &logSink{log: elementLog}
	} else {
		sink = &httpSink{baseURL: strings.TrimRight(*serverURL, "/"), client: &http.Client{Timeout: 30 * time.Second}}
	}

	client := celestrak.NewClient(*source)
	stored, failed := 0, 0
	for _, id := range noradIDs {
		elset, err := client.Fetch(ctx, id)
		if err != nil {
			log.Warn(ctx, "fetch failed", logging.Int("norad_id", id), logging.String("error", err.Error()))
			failed++
			continue
		}
		fields, err := tle.Validate(elset.Line1, elset.Line2)
		if err != nil {
			log.Warn(ctx, "rejected fetched elements", logging.Int("norad_id", id), logging.String("error", err.Error()))
			failed++
			continue
		}
		if fields.NoradID != id {
			log.Warn(ctx, "catalog number mismatch in fetched elements",
				logging.Int("requested", id),
				logging.Int("got", fields.NoradID),
			)
			failed++
			continue
		}
		if err := sink.store(ctx, elset.Name, fields, elset.Line1, elset.Line2); err != nil {
			log.Warn(ctx, "store failed", logging.Int("norad_id", id), logging.String("error", err.Error()))
			failed++
			continue
		}
		log.Info(ctx, "stored elements",
			logging.Int("norad_id", id),
			logging.String("name", elset.Name),
			logging.String("epoch", fields.Epoch.Format(time.RFC3339)),
		)
		stored++
	}

	log.Info(ctx, "ingest complete", logging.Int("stored", stored), logging.Int("failed", failed))
	if stored == 0 {
		os.Exit(1)
	}
}

type sink interface {
	store(ctx context.Context, name string, fields tle.Fields, line1, line2 string) error
}

type logSink struct {
	log *catalog.Log
}

func (s *logSink) store(ctx context.Context, name string, fields tle.Fields, line1, line2 string) error {
	return s.log.Append(ctx, fields.NoradID, name, fields.Epoch, line1, line2)
}

type httpSink struct {
	baseURL string
	client  *http.Client
}

func (s *httpSink) store(ctx context.Context, name string, fields tle.Fields, line1, line2 string) error {
	body, err := json.Marshal(map[string]string{
		"name":  name,
		"line1": line1,
		"line2": line2,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/elements", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

func parseIDs(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("bad catalog number %q", p)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no catalog numbers given")
	}
	return ids, nil
}
