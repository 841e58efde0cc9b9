package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Defaults.
const (
	DefaultClientID         = "853387211897700394"
	DefaultHideAfterMinutes = 20
	DefaultLargeImage       = "logo"
)

// Validation errors.
var (
	ErrInvalidClientID    = errors.New("client id must be a non-empty decimal snowflake")
	ErrInvalidHideAfter   = errors.New("hide_after_minutes must not be negative")
	ErrInvalidDisplayMode = errors.New("unknown display mode")
	ErrUnknownKey         = errors.New("unknown setting")
)

// DisplayMode selects how much of the workspace the activity reveals.
type DisplayMode string

// Display modes.
const (
	DisplayApplication DisplayMode = "APPLICATION"
	DisplayProject     DisplayMode = "PROJECT"
	DisplayDocument    DisplayMode = "DOCUMENT"
)

// ParseDisplayMode parses a mode name, ignoring case.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch m := DisplayMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case DisplayApplication, DisplayProject, DisplayDocument:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDisplayMode, s)
	}
}

// Details renders the activity details line for the mode. Empty project or
// file names fall back to the less specific modes.
func (m DisplayMode) Details(project, file string) string {
	switch {
	case m == DisplayDocument && file != "" && project != "":
		return "In " + project + "\nEditing " + file
	case m == DisplayDocument && file != "":
		return "Editing " + file
	case m != DisplayApplication && project != "":
		return "Working on " + project
	default:
		return "Idling"
	}
}

// Settings configures the presence client.
type Settings struct {
	// ClientID is the application id sent in the handshake.
	ClientID string `yaml:"client_id" toml:"client_id" json:"client_id"`

	// Reconnect enables reconnecting inside SET_ACTIVITY when the channel
	// is gone.
	Reconnect bool `yaml:"reconnect_on_activity_update" toml:"reconnect_on_activity_update" json:"reconnect_on_activity_update"`

	// HideAfterMinutes is the idle threshold. Zero disables hiding.
	HideAfterMinutes int `yaml:"hide_after_minutes" toml:"hide_after_minutes" json:"hide_after_minutes"`

	// DisplayMode selects the details line.
	DisplayMode DisplayMode `yaml:"display_mode" toml:"display_mode" json:"display_mode"`

	// LargeImage is the asset key shown with the activity.
	LargeImage string `yaml:"large_image" toml:"large_image" json:"large_image"`

	// ProtocolLog is a path for the CBOR protocol capture. Empty disables it.
	ProtocolLog string `yaml:"protocol_log" toml:"protocol_log" json:"protocol_log"`

	// MetricsAddr is the listen address of the metrics endpoint. Empty
	// disables it.
	MetricsAddr string `yaml:"metrics_addr" toml:"metrics_addr" json:"metrics_addr"`
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		ClientID:         DefaultClientID,
		Reconnect:        true,
		HideAfterMinutes: DefaultHideAfterMinutes,
		DisplayMode:      DisplayDocument,
		LargeImage:       DefaultLargeImage,
	}
}

// HideAfter returns the idle threshold as a duration.
func (s Settings) HideAfter() time.Duration {
	if s.HideAfterMinutes <= 0 {
		return 0
	}
	return time.Duration(s.HideAfterMinutes) * time.Minute
}

// Validate normalizes the display mode and checks every field.
func (s *Settings) Validate() error {
	s.ClientID = strings.TrimSpace(s.ClientID)
	if _, err := strconv.ParseUint(s.ClientID, 10, 64); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidClientID, s.ClientID)
	}
	if s.HideAfterMinutes < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHideAfter, s.HideAfterMinutes)
	}
	if s.DisplayMode == "" {
		s.DisplayMode = DisplayDocument
	}
	mode, err := ParseDisplayMode(string(s.DisplayMode))
	if err != nil {
		return err
	}
	s.DisplayMode = mode
	return nil
}

// Set assigns a single setting from its text form, as typed on a console.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "client_id":
		s.ClientID = value
	case "reconnect_on_activity_update":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.Reconnect = b
	case "hide_after_minutes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.HideAfterMinutes = n
	case "display_mode":
		s.DisplayMode = DisplayMode(value)
	case "large_image":
		s.LargeImage = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return nil
}

// Keys lists the settings accepted by Set.
func Keys() []string {
	return []string{
		"client_id",
		"display_mode",
		"hide_after_minutes",
		"large_image",
		"reconnect_on_activity_update",
	}
}
