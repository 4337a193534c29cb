package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/casebars/internal/records"
)

const csvBody = "country_name,cases,deaths\nGuinea,10,1\nLiberia,5,0\nGuinea,20,2\n"

const geoBody = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"Guinea"},"geometry":null}]}`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadLocalFiles(t *testing.T) {
	dir := t.TempDir()
	ds, err := Load(context.Background(), Sources{
		Data: writeFile(t, dir, "cases.csv", csvBody),
		Geo:  writeFile(t, dir, "bounds.geojson", geoBody),
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ds.Records) != 3 || ds.RecordStats.Rows != 3 {
		t.Fatalf("unexpected records: %+v", ds.Records)
	}
	if !ds.HasGeo || !ds.Geo.Covers("Guinea") {
		t.Fatalf("expected boundary document, got %+v", ds.Geo)
	}
}

func TestLoadWithoutGeo(t *testing.T) {
	dir := t.TempDir()
	ds, err := Load(context.Background(), Sources{Data: writeFile(t, dir, "cases.csv", csvBody)})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.HasGeo {
		t.Fatalf("did not expect boundary document")
	}
}

func TestLoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ebola.csv":
			_, _ = w.Write([]byte(csvBody))
		case "/africa.json":
			_, _ = w.Write([]byte(geoBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	ds, err := Load(context.Background(), Sources{Data: srv.URL + "/ebola.csv", Geo: srv.URL + "/africa.json"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ds.Records) != 3 || !ds.HasGeo {
		t.Fatalf("unexpected dataset: %+v", ds)
	}

	_, err = Load(context.Background(), Sources{Data: srv.URL + "/missing.csv"})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestLoadFailsFastAndCancelsSibling(t *testing.T) {
	geoStarted := make(chan struct{})
	released := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow.json":
			close(geoStarted)
			select {
			case <-r.Context().Done():
				close(released)
			case <-time.After(10 * time.Second):
			}
		default:
			<-geoStarted
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)

	start := time.Now()
	_, err := Load(context.Background(), Sources{
		Data: srv.URL + "/cases.csv",
		Geo:  srv.URL + "/slow.json",
	})
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status error, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("load did not fail fast")
	}
	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatalf("sibling fetch was not cancelled")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), Sources{Data: filepath.Join(t.TempDir(), "missing.csv")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadInvalidRecordPropagates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.csv", "country_name,cases,deaths\nGuinea,ten,1\n")
	_, err := Load(context.Background(), Sources{Data: path})
	if !errors.Is(err, records.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	ds, err := Load(context.Background(), Sources{Data: path, Records: records.Options{OnInvalid: records.PolicyZero}})
	if err != nil {
		t.Fatalf("load with zero policy: %v", err)
	}
	if ds.RecordStats.Coerced != 1 {
		t.Fatalf("expected one coerced value, got %d", ds.RecordStats.Coerced)
	}
}

func TestLoadRequiresData(t *testing.T) {
	if _, err := Load(context.Background(), Sources{}); err == nil {
		t.Fatalf("expected error without data location")
	}
}
