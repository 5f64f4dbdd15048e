package web

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/invopop/jsonschema"

	"taskcal/internal/layout"
	"taskcal/internal/model"
)

// layoutResponse is the JSON shape returned by /api/layout.
type layoutResponse struct {
	View        string          `json:"view" jsonschema:"enum=day,enum=week"`
	Timezone    string          `json:"timezone"`
	WeekStart   string          `json:"week_start"`
	Revision    uint64          `json:"revision"`
	Days        []dayDTO        `json:"days"`
	Now         *nowDTO         `json:"now,omitempty"`
	Diagnostics []diagnosticDTO `json:"diagnostics"`
}

type dayDTO struct {
	Index      int             `json:"index"`
	Date       string          `json:"date" jsonschema:"format=date"`
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	Columns    int             `json:"columns"`
	AllDay     []eventDTO      `json:"all_day"`
	Positioned []positionedDTO `json:"positioned"`
	NowPct     *float64        `json:"now_pct,omitempty"`
}

type eventDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Color     string `json:"color,omitempty"`
	SourceRef string `json:"source_ref,omitempty"`
	AllDay    bool   `json:"all_day"`
	// Start and End are RFC3339 instants for timed events and inclusive
	// YYYY-MM-DD dates for all-day events.
	Start string `json:"start"`
	End   string `json:"end"`
}

type positionedDTO struct {
	Event        eventDTO  `json:"event"`
	SegmentStart time.Time `json:"segment_start"`
	SegmentEnd   time.Time `json:"segment_end"`
	Column       int       `json:"column"`
	Top          float64   `json:"top"`
	Height       float64   `json:"height"`
	Left         float64   `json:"left"`
	Width        float64   `json:"width"`
}

type nowDTO struct {
	DayIndex  int     `json:"day_index"`
	OffsetPct float64 `json:"offset_pct"`
}

type diagnosticDTO struct {
	EventID string `json:"event_id"`
	Title   string `json:"title,omitempty"`
	Reason  string `json:"reason"`
}

// tasksResponse is the JSON shape returned by /api/tasks.
type tasksResponse struct {
	Revision uint64       `json:"revision"`
	LoadedAt time.Time    `json:"loaded_at"`
	Tasks    []model.Task `json:"tasks"`
}

func (s *Server) toResponse(view string, revision uint64, res layout.Result) layoutResponse {
	resp := layoutResponse{
		View:        view,
		Timezone:    s.loc.String(),
		WeekStart:   s.cfg.WeekStart,
		Revision:    revision,
		Days:        make([]dayDTO, 0, len(res.Days)),
		Diagnostics: make([]diagnosticDTO, 0, len(res.Diagnostics)),
	}
	for _, d := range res.Days {
		resp.Days = append(resp.Days, toDayDTO(d))
	}
	if res.Now != nil {
		resp.Now = &nowDTO{DayIndex: res.Now.DayIndex, OffsetPct: res.Now.OffsetPct}
	}
	for _, d := range res.Diagnostics {
		reason := ""
		if d.Err != nil {
			reason = d.Err.Error()
		}
		resp.Diagnostics = append(resp.Diagnostics, diagnosticDTO{EventID: d.EventID, Title: d.Title, Reason: reason})
	}
	return resp
}

func toDayDTO(d layout.DayLayout) dayDTO {
	out := dayDTO{
		Index:      d.DayIndex,
		Date:       d.Window.Date.Format("2006-01-02"),
		Start:      d.Window.Start(),
		End:        d.Window.End(),
		Columns:    d.Columns,
		AllDay:     make([]eventDTO, 0, len(d.AllDay)),
		Positioned: make([]positionedDTO, 0, len(d.Positioned)),
		NowPct:     d.NowPct,
	}
	for _, ev := range d.AllDay {
		out.AllDay = append(out.AllDay, toEventDTO(ev))
	}
	for _, p := range d.Positioned {
		out.Positioned = append(out.Positioned, positionedDTO{
			Event:        toEventDTO(p.Event),
			SegmentStart: p.Segment.Start,
			SegmentEnd:   p.Segment.End,
			Column:       p.ColumnIndex,
			Top:          p.Top,
			Height:       p.Height,
			Left:         p.Left,
			Width:        p.Width,
		})
	}
	return out
}

func toEventDTO(ev layout.Event) eventDTO {
	out := eventDTO{
		ID:        ev.ID,
		Title:     ev.Title,
		Color:     ev.Color,
		SourceRef: ev.SourceRef,
	}
	switch t := ev.Timing.(type) {
	case layout.Timed:
		out.Start = t.Start.Format(time.RFC3339)
		out.End = t.End.Format(time.RFC3339)
	case layout.AllDay:
		out.AllDay = true
		out.Start = t.First.Format("2006-01-02")
		out.End = t.Last.Format("2006-01-02")
	}
	return out
}

var (
	schemaOnce sync.Once
	schemaJSON []byte
	schemaErr  error
)

// layoutSchema returns the JSON Schema of layoutResponse, reflected once.
func layoutSchema() ([]byte, error) {
	schemaOnce.Do(func() {
		reflector := jsonschema.Reflector{DoNotReference: true}
		schema := reflector.Reflect(&layoutResponse{})
		schema.Title = "taskcal layout"
		schemaJSON, schemaErr = json.MarshalIndent(schema, "", "  ")
	})
	return schemaJSON, schemaErr
}
