// Package export writes ranked streaks in the Prometheus text exposition
// format, suitable for the node_exporter textfile collector.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/roach88/streaks/internal/streak"
)

// Metric names.
const (
	MetricCurrentPeriod = "streaks_current_period"
	MetricStreakLength  = "streaks_streak_length"
	MetricStreaks       = "streaks_streaks"
)

var statuses = []streak.Status{
	streak.StatusOngoing,
	streak.StatusMightBreak,
	streak.StatusBroken,
}

// Families builds the metric families for rows at period.
// Metrics within a family follow row order.
func Families(rows []streak.Row, period int) []*dto.MetricFamily {
	current := &dto.MetricFamily{
		Name:   proto.String(MetricCurrentPeriod),
		Help:   proto.String("Last period processed."),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{gauge(float64(period))},
	}

	lengths := &dto.MetricFamily{
		Name: proto.String(MetricStreakLength),
		Help: proto.String("Length of each streak in periods."),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	counts := make(map[streak.Status]int, len(statuses))
	for _, r := range rows {
		m := gauge(float64(r.Length))
		m.Label = []*dto.LabelPair{
			label("item", string(r.Item)),
			label("start", strconv.Itoa(r.Start)),
			label("status", string(r.Status)),
		}
		lengths.Metric = append(lengths.Metric, m)
		counts[r.Status]++
	}

	totals := &dto.MetricFamily{
		Name: proto.String(MetricStreaks),
		Help: proto.String("Number of streaks by status."),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	for _, s := range statuses {
		m := gauge(float64(counts[s]))
		m.Label = []*dto.LabelPair{label("status", string(s))}
		totals.Metric = append(totals.Metric, m)
	}

	families := []*dto.MetricFamily{current}
	if len(lengths.Metric) > 0 {
		families = append(families, lengths)
	}
	return append(families, totals)
}

// WriteText writes the metric families for rows to w.
func WriteText(w io.Writer, rows []streak.Row, period int) error {
	for _, mf := range Families(rows, period) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile writes the exposition to path through a temporary file so a
// collector never reads a partial file.
func WriteFile(path string, rows []streak.Row, period int) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".streaks-*.prom")
	if err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after rename

	if err := WriteText(tmp, rows, period); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func gauge(v float64) *dto.Metric {
	return &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(v)}}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}
