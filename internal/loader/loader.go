// Package loader fetches the tabular dataset and the boundary document.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/casebars/internal/geo"
	"github.com/verte-zerg/casebars/internal/logger"
	"github.com/verte-zerg/casebars/internal/model"
	"github.com/verte-zerg/casebars/internal/records"
)

const defaultTimeout = 60 * time.Second

// Sources names the two resources and how to read them.
// GeoNameKey selects the feature property matched against country names.
type Sources struct {
	Data       string
	Geo        string
	GeoNameKey string
	Records    records.Options
	Timeout    time.Duration
}

// Dataset holds both decoded resources.
type Dataset struct {
	Records     []model.RawRecord
	RecordStats records.Stats
	Geo         geo.Document
	HasGeo      bool
}

// Load fetches both resources concurrently and returns once both are decoded
// or the first one fails. A failure cancels the other fetch.
func Load(ctx context.Context, src Sources) (Dataset, error) {
	if src.Data == "" {
		return Dataset{}, fmt.Errorf("data location is required")
	}
	timeout := src.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var ds Dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := open(gctx, src.Data, timeout)
		if err != nil {
			return fmt.Errorf("failed to open data %s: %w", src.Data, err)
		}
		defer func() {
			_ = body.Close()
		}()
		recs, stats, err := records.Parse(body, src.Records)
		if err != nil {
			return fmt.Errorf("failed to parse data %s: %w", src.Data, err)
		}
		ds.Records = recs
		ds.RecordStats = stats
		logger.Log.WithField("rows", stats.Rows).WithField("coerced", stats.Coerced).Debugf("loaded %s", src.Data)
		return nil
	})
	if src.Geo != "" {
		g.Go(func() error {
			body, err := open(gctx, src.Geo, timeout)
			if err != nil {
				return fmt.Errorf("failed to open boundaries %s: %w", src.Geo, err)
			}
			defer func() {
				_ = body.Close()
			}()
			doc, err := geo.Decode(body)
			if err != nil {
				return fmt.Errorf("failed to parse boundaries %s: %w", src.Geo, err)
			}
			doc.NameKey = src.GeoNameKey
			ds.Geo = doc
			ds.HasGeo = true
			logger.Log.WithField("features", len(doc.Features)).Debugf("loaded %s", src.Geo)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func open(ctx context.Context, location string, timeout time.Duration) (io.ReadCloser, error) {
	if !isRemote(location) {
		return os.Open(location)
	}
	resp, err := httpRequest(ctx, location, timeout)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return resp.Body, nil
}

func httpRequest(ctx context.Context, url string, timeout time.Duration) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
