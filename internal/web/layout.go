package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"taskcal/internal/layout"
	appLog "taskcal/internal/log"
)

const (
	viewDay  = "day"
	viewWeek = "week"
)

var tracer = otel.Tracer("taskcal/internal/web")

// layoutKey identifies a memoised layout. Layouts are a pure function of the
// task revision and the windows, so nothing else needs to go in the key.
type layoutKey struct {
	revision uint64
	view     string
	date     string
}

// maxLayoutEntries bounds the memo cache. The date comes from the client, so
// the key space is unbounded.
const maxLayoutEntries = 64

// layoutCache holds layouts computed without a now-marker for the newest task
// revision seen. Entries for older revisions are dropped when a newer one is
// stored, and past maxLayoutEntries the oldest entry is evicted.
type layoutCache struct {
	mu       sync.RWMutex
	revision uint64
	entries  map[layoutKey]layout.Result
	order    []layoutKey
}

func newLayoutCache() *layoutCache {
	return &layoutCache{entries: make(map[layoutKey]layout.Result)}
}

func (c *layoutCache) get(k layoutKey) (layout.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[k]
	return res, ok
}

// put stores res under k. A layout computed from an older snapshot than the
// cache already holds is discarded.
func (c *layoutCache) put(k layoutKey, res layout.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case k.revision < c.revision:
		return
	case k.revision > c.revision:
		c.entries = make(map[layoutKey]layout.Result)
		c.order = c.order[:0]
		c.revision = k.revision
	}
	if _, ok := c.entries[k]; !ok {
		c.order = append(c.order, k)
	}
	c.entries[k] = res
	for len(c.order) > maxLayoutEntries {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *layoutCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// layoutRequest is a validated /api/layout query.
type layoutRequest struct {
	view string
	date time.Time
	now  time.Time
}

// parseLayoutRequest validates the view, date and now parameters. Empty
// values fall back to the week view, today and the server clock.
func (s *Server) parseLayoutRequest(view, date, now string) (layoutRequest, error) {
	req := layoutRequest{view: view, now: s.now().In(s.loc)}
	if now != "" {
		t, err := time.Parse(time.RFC3339, now)
		if err != nil {
			return req, errors.New("invalid now, expected RFC3339")
		}
		req.now = t.In(s.loc)
	}

	if req.view == "" {
		req.view = viewWeek
	}
	if req.view != viewDay && req.view != viewWeek {
		return req, errors.New("invalid view, expected day or week")
	}

	req.date = time.Date(req.now.Year(), req.now.Month(), req.now.Day(), 0, 0, 0, 0, s.loc)
	if date != "" {
		d, err := time.ParseInLocation("2006-01-02", date, s.loc)
		if err != nil {
			return req, errors.New("invalid date, expected YYYY-MM-DD")
		}
		req.date = d
	}
	return req, nil
}

// handleLayout returns the computed layout for a day or a week.
//
// GET /api/layout?view=week&date=2024-06-10&now=2024-06-10T10:30:00Z
//   - view: day or week (default week)
//   - date: any date inside the requested day or week (default today)
//   - now:  RFC3339 instant for the now-marker (default current time)
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	req, err := s.parseLayoutRequest(q.Get("view"), q.Get("date"), q.Get("now"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.layout(r.Context(), req)
	if err != nil {
		appLog.Error("api layout: snapshot failed", err)
		writeError(w, http.StatusServiceUnavailable, "tasks not available")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// WriteLayout computes one layout and writes it to w as indented JSON. The
// arguments take the same form as the /api/layout query parameters.
func (s *Server) WriteLayout(ctx context.Context, w io.Writer, view, date, now string) error {
	req, err := s.parseLayoutRequest(view, date, now)
	if err != nil {
		return err
	}
	resp, err := s.layout(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// layout returns the memoised layout for req with a fresh now-marker.
func (s *Server) layout(ctx context.Context, req layoutRequest) (layoutResponse, error) {
	snap, err := s.tasks.Snapshot()
	if err != nil {
		return layoutResponse{}, err
	}

	windows := s.windows(req.view, req.date)
	key := layoutKey{revision: snap.Revision, view: req.view, date: windows[0].Date.Format("2006-01-02")}

	res, hit := s.cache.get(key)
	if !hit {
		_, span := tracer.Start(ctx, "layout.compute")
		span.SetAttributes(
			attribute.String("layout.view", req.view),
			attribute.String("layout.date", key.date),
			attribute.Int("layout.tasks", len(snap.Tasks)),
			attribute.Int64("tasks.revision", int64(snap.Revision)),
		)
		res = s.engine.LayoutTasks(snap.Tasks, s.loc, windows, nil)
		span.SetAttributes(attribute.Int("layout.diagnostics", len(res.Diagnostics)))
		span.End()

		s.cache.put(key, res)
		if len(res.Diagnostics) > 0 {
			appLog.Warn("layout skipped tasks", "view", req.view, "date", key.date, "count", len(res.Diagnostics))
		}
	}
	appLog.Debug("layout request", "view", req.view, "date", key.date, "revision", snap.Revision, "cached", hit)

	res = layout.StampNow(res, &req.now)
	return s.toResponse(req.view, snap.Revision, res), nil
}

// windows returns the day windows for view around date.
func (s *Server) windows(view string, date time.Time) []layout.Window {
	hours := s.cfg.Hours()
	if view == viewDay {
		return []layout.Window{layout.NewWindow(date, hours)}
	}
	week := layout.WeekWindows(date, hours, s.cfg.FirstWeekday())
	return week[:]
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	schema, err := layoutSchema()
	if err != nil {
		appLog.Error("api schema: reflect failed", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("schema: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(schema)
}
