package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/classplan/core/metrics"
	"github.com/kilianp07/classplan/infra/logger"
)

// InfluxSink writes solver and catalog samples to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink when the
// health check fails, so an unreachable database never blocks solving.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSolve writes one "solve" point.
func (s *InfluxSink) RecordSolve(r coremetrics.SolveSample) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("solve").
		AddTag("status", r.Status).
		AddField("classes", r.Classes).
		AddField("locked", r.Locked).
		AddField("banned", r.Banned).
		AddField("nodes", r.Nodes).
		AddField("duration_ms", round3(r.Duration.Seconds()*1000)).
		SetTime(stamp(r.Time))
	if r.RequestID != "" {
		p.AddField("request_id", r.RequestID)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCatalogRefresh writes one "catalog_refresh" point.
func (s *InfluxSink) RecordCatalogRefresh(r coremetrics.CatalogRefreshSample) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("catalog_refresh").
		AddTag("source", r.Source).
		AddTag("success", strconv.FormatBool(r.Success))
	if r.Trigger != "" {
		p.AddTag("trigger", r.Trigger)
	}
	p.AddField("classes", r.Classes).
		AddField("sections", r.Sections).
		AddField("duration_ms", round3(r.Duration.Seconds()*1000)).
		SetTime(stamp(r.Time))
	if r.Error != "" {
		p.AddField("error", r.Error)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
