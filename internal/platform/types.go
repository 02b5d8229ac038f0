package platform

// ReadOptions selects which application tree to read.
type ReadOptions struct {
	App      string // Filter by application name
	Window   string // Filter by window title substring
	WindowID int    // Filter by system window ID (0 = unset)
	PID      int    // Filter by process ID (0 = unset)
	Depth    int    // Max traversal depth (0 = unlimited)
}

// ListOptions controls window/app listing.
type ListOptions struct {
	PID int    // Filter by PID
	App string // Filter by app name
}
