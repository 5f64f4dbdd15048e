package model

// Task is a raw task record as handed over by the task store. Dates are kept
// as the strings the store produced; the layout engine parses them.
type Task struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`

	// Due is required for a task to show up on the calendar, e.g. "2024-06-10".
	Due string `yaml:"due" json:"due"`
	// Start is optional. When empty or unparseable the engine derives one.
	Start string `yaml:"start,omitempty" json:"start,omitempty"`

	// AllDay places the task in the all-day strip instead of the time grid.
	AllDay bool `yaml:"all_day,omitempty" json:"all_day,omitempty"`

	Assignees []string `yaml:"assignees,omitempty" json:"assignees,omitempty"`
	Color     string   `yaml:"color,omitempty" json:"color,omitempty"`

	// SourceRef points back at the record in its origin (file path, ICS UID, ...).
	SourceRef string `yaml:"-" json:"source_ref,omitempty"`
}
