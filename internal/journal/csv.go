package journal

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"tradinglions/internal/types"
)

// Header is the canonical column order of the trade CSV.
var Header = []string{
	"timestamp",
	"trade_id",
	"status",
	"asset",
	"direction",
	"regime",
	"reason",
	"pattern",
	"score",
	"stake",
	"payout",
	"entry_price",
	"context",
	"decision_context",
	"logic",
	"logic_flat",
	"metadata",
	"outcome_real",
	"profit_real",
	"close_price",
	"open_time",
	"close_time",
	"duration_sec",
}

// legacyHeaderV1 predates the logic_flat and duration_sec columns and swapped
// the status/trade_id order. Old files are upgraded in place on startup.
var legacyHeaderV1 = []string{
	"timestamp",
	"status",
	"trade_id",
	"asset",
	"direction",
	"regime",
	"reason",
	"pattern",
	"score",
	"stake",
	"payout",
	"entry_price",
	"context",
	"decision_context",
	"logic",
	"metadata",
	"outcome_real",
	"profit_real",
	"close_price",
	"open_time",
	"close_time",
}

// CSVJournal appends lifecycle rows to a per-day CSV plus a JSONL sidecar.
type CSVJournal struct {
	mu        sync.Mutex
	csvPath   string
	jsonlPath string
}

// NewCSVJournal creates dir when needed and guarantees the day file carries
// the canonical header, upgrading legacy files it recognizes.
func NewCSVJournal(dir string) (*CSVJournal, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create dir %s: %w", dir, err)
	}
	day := time.Now().Format("2006-01-02")
	j := &CSVJournal{
		csvPath:   filepath.Join(dir, "trades_"+day+".csv"),
		jsonlPath: filepath.Join(dir, "trades_"+day+".jsonl"),
	}
	if err := ensureHeader(j.csvPath); err != nil {
		return nil, err
	}
	return j, nil
}

// Path returns the CSV file currently written to.
func (j *CSVJournal) Path() string { return j.csvPath }

func (j *CSVJournal) LogOpen(order *types.Order) error {
	if j == nil || order == nil {
		return nil
	}
	row := map[string]any{
		"timestamp":        float64(time.Now().UnixMilli()) / 1000,
		"trade_id":         order.TradeID,
		"status":           "OPEN",
		"asset":            order.Asset,
		"direction":        string(order.Direction),
		"regime":           order.Regime,
		"reason":           order.Reason,
		"pattern":          order.Pattern,
		"score":            order.Score,
		"stake":            order.Stake,
		"payout":           order.Payout,
		"entry_price":      order.EntryPrice,
		"context":          order.Context,
		"decision_context": order.Context,
		"open_time":        unixSeconds(order.OpenedAt),
	}
	return j.append(row)
}

func (j *CSVJournal) LogClose(res types.Resolution) error {
	if j == nil || res.Order == nil {
		return nil
	}
	o := res.Order
	row := map[string]any{
		"timestamp":        unixSeconds(res.ClosedAt),
		"trade_id":         o.TradeID,
		"status":           "CLOSE",
		"asset":            o.Asset,
		"direction":        string(o.Direction),
		"regime":           o.Regime,
		"reason":           o.Reason,
		"pattern":          o.Pattern,
		"score":            o.Score,
		"stake":            o.Stake,
		"payout":           o.Payout,
		"entry_price":      o.EntryPrice,
		"context":          o.Context,
		"decision_context": o.Context,
		"outcome_real":     string(res.Outcome),
		"profit_real":      res.Profit,
		"close_price":      res.ClosePrice,
		"open_time":        unixSeconds(o.OpenedAt),
		"close_time":       unixSeconds(res.ClosedAt),
		"duration_sec":     res.DurationSec(),
	}
	return j.append(row)
}

func (j *CSVJournal) append(row map[string]any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if raw, err := json.Marshal(row); err == nil {
		if f, err := os.OpenFile(j.jsonlPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			_, _ = f.Write(append(raw, '\n'))
			_ = f.Close()
		}
	}

	f, err := os.OpenFile(j.csvPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("journal: open csv: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(renderRow(row)); err != nil {
		return fmt.Errorf("journal: write csv row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func renderRow(row map[string]any) []string {
	out := make([]string, 0, len(Header))
	for _, key := range Header {
		out = append(out, renderCell(key, row[key]))
	}
	return out
}

func renderCell(key string, value any) string {
	if value == nil {
		return ""
	}
	switch key {
	case "context", "decision_context", "logic", "metadata":
		raw, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(raw)
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixMilli()) / 1000
}

// ensureHeader guarantees path starts with the canonical header. A file in
// the v1 legacy layout is rewritten with its rows remapped; anything else
// unknown is left alone rather than risk data loss.
func ensureHeader(path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) || (err == nil && len(raw) == 0) {
		return writeHeaderOnly(path)
	}
	if err != nil {
		return fmt.Errorf("journal: read csv: %w", err)
	}
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil || len(rows) == 0 {
		return nil
	}
	if equalHeader(rows[0], Header) {
		return nil
	}
	if !equalHeader(rows[0], legacyHeaderV1) {
		return nil
	}
	return rewriteLegacyV1(path, rows[1:])
}

func writeHeaderOnly(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("journal: create csv: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func rewriteLegacyV1(path string, data [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("journal: rewrite csv: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return err
	}
	for _, raw := range data {
		entry := map[string]string{}
		for i, key := range legacyHeaderV1 {
			if i < len(raw) {
				entry[key] = raw[i]
			}
		}
		// Early files wrote status and trade_id transposed.
		if isStatus(entry["trade_id"]) && !isStatus(entry["status"]) {
			entry["trade_id"], entry["status"] = entry["status"], entry["trade_id"]
		}
		if entry["decision_context"] == "" {
			entry["decision_context"] = entry["context"]
		}
		out := make([]string, 0, len(Header))
		for _, key := range Header {
			out = append(out, entry[key])
		}
		if err := w.Write(out); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func isStatus(s string) bool { return s == "OPEN" || s == "CLOSE" }

func equalHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
