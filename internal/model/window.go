package model

// Window is a top-level window as listed by a platform Reader. The desktop
// accessor uses it to turn an application name into the process it reads.
type Window struct {
	App   string `json:"app"`
	PID   int    `json:"pid"`
	Title string `json:"title"`
	ID    int    `json:"id,omitempty"` // system window id
}
