package domain

import "time"

// Platform identifies a supported streaming service
type Platform string

const (
	PlatformTwitch Platform = "twitch"
	PlatformTikTok Platform = "tiktok"
	PlatformKick   Platform = "kick"
)

// Valid reports whether the platform is one of the supported services
func (p Platform) Valid() bool {
	switch p {
	case PlatformTwitch, PlatformTikTok, PlatformKick:
		return true
	}
	return false
}

// WatchKey uniquely identifies a watch entry within the registry.
// It is the structured key used everywhere a watch must be looked up;
// string-concatenated keys are never used.
type WatchKey struct {
	GuildID  string
	Platform Platform
	Identity string
}

// Destination describes where a live notification is delivered
type Destination struct {
	GuildID   string // Server the watch belongs to
	ChannelID string // Channel that receives the notification
	RoleID    string // Role mentioned in the notification, may be empty
}

// CheckIntervals holds the polling cadence per liveness state
type CheckIntervals struct {
	Live    time.Duration // Interval while the stream is live
	Offline time.Duration // Interval while the stream is offline
	Night   time.Duration // Interval during the night-mode window
}

// DefaultCheckIntervals returns the standard polling cadence
func DefaultCheckIntervals() CheckIntervals {
	return CheckIntervals{
		Live:    30 * time.Minute,
		Offline: 2 * time.Minute,
		Night:   30 * time.Minute,
	}
}

// NightMode configures a time-of-day window during which the night
// interval overrides the live/offline cadence
type NightMode struct {
	Enabled   bool
	StartHour int // Hour (0-23) the window opens
	EndHour   int // Hour (0-23) the window closes
}

// DefaultNightMode returns night mode disabled with the 20:00-08:00 window
func DefaultNightMode() NightMode {
	return NightMode{Enabled: false, StartHour: 20, EndHour: 8}
}

// WatchEntry is one configured monitoring target: a single streamer
// identity on a single platform, notifying a single destination
type WatchEntry struct {
	ID string // Registry-assigned unique identifier
	Destination
	Platform        Platform
	Identity        string // Normalized platform handle (lowercase, no leading @)
	ProfileURL      string // Canonical channel URL
	MessageTemplate string // Free text sent when the stream goes live
	CheckIntervals  CheckIntervals
	NightMode       NightMode
	IsActive        bool   // False once probing permanently failed
	ErrorMessage    string // Reason the entry was deactivated
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Key returns the structured unique key for this entry
func (e *WatchEntry) Key() WatchKey {
	return WatchKey{
		GuildID:  e.Destination.GuildID,
		Platform: e.Platform,
		Identity: e.Identity,
	}
}

// CheckStatus describes the lifecycle state of a check task
type CheckStatus string

const (
	CheckStatusRunning CheckStatus = "Running"
	CheckStatusStopped CheckStatus = "Stopped"
	CheckStatusError   CheckStatus = "Error"
)

// RuntimeState is the mutable per-entry monitoring state. It is owned by
// the entry's check task and mirrored to the configuration store after
// every tick so a restart resumes from the last observed liveness.
type RuntimeState struct {
	IsLive            bool
	LastCheckAt       time.Time
	LastSuccessAt     time.Time
	ConsecutiveErrors int
	TotalErrors       int
	TotalSuccesses    int
	LastError         string
	Status            CheckStatus
}

// NewRuntimeState returns the initial state for an entry that has not
// been checked yet
func NewRuntimeState() RuntimeState {
	return RuntimeState{Status: CheckStatusStopped}
}

// LiveCheckResult is the structured output of a platform probe. Probes
// always return this shape on success; faults travel as Go errors.
type LiveCheckResult struct {
	IsLive      bool
	ObservedAt  time.Time
	Title       string // Stream title, best-effort
	StreamURL   string // Direct stream URL, best-effort
	ViewerCount int    // Best-effort, zero when unknown
}

// StreamStatusSnapshot is a point-in-time view of one entry's task
type StreamStatusSnapshot struct {
	Key          WatchKey
	ProfileURL   string
	State        RuntimeState
	TaskRestarts int // Times the watchdog respawned this task
}

// ServiceStatusSnapshot aggregates the monitor's overall state
type ServiceStatusSnapshot struct {
	Running   bool
	StartedAt time.Time
	Uptime    time.Duration
	LastError string
	Streams   []StreamStatusSnapshot
}
