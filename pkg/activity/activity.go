package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MaxButtons is the number of buttons the companion renders.
const MaxButtons = 2

// Validation errors.
var (
	ErrTooManyButtons = errors.New("too many buttons")
	ErrInvalidButton  = errors.New("button needs label and url")
	ErrInvalidParty   = errors.New("party size out of range")
)

// Type is the verb shown in front of the activity name.
type Type int

const (
	TypePlaying   Type = 0
	TypeStreaming Type = 1
	TypeListening Type = 2
	TypeWatching  Type = 3
	TypeCustom    Type = 4
	TypeCompeting Type = 5
)

var typeNames = map[Type]string{
	TypePlaying:   "PLAYING",
	TypeStreaming: "STREAMING",
	TypeListening: "LISTENING",
	TypeWatching:  "WATCHING",
	TypeCustom:    "CUSTOM",
	TypeCompeting: "COMPETING",
}

// String returns the type name.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE(%d)", int(t))
}

// Timestamps bound the elapsed or remaining time display. Zero values are
// omitted.
type Timestamps struct {
	Start time.Time
	End   time.Time
}

type timestampsJSON struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

// MarshalJSON encodes the timestamps as unix milliseconds.
func (t Timestamps) MarshalJSON() ([]byte, error) {
	var out timestampsJSON
	if !t.Start.IsZero() {
		out.Start = t.Start.UnixMilli()
	}
	if !t.End.IsZero() {
		out.End = t.End.UnixMilli()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes unix milliseconds.
func (t *Timestamps) UnmarshalJSON(b []byte) error {
	var in timestampsJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*t = Timestamps{}
	if in.Start != 0 {
		t.Start = time.UnixMilli(in.Start)
	}
	if in.End != 0 {
		t.End = time.UnixMilli(in.End)
	}
	return nil
}

func (t Timestamps) isZero() bool {
	return t.Start.IsZero() && t.End.IsZero()
}

// Assets names the images shown next to the activity.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// Party describes a group the user belongs to.
type Party struct {
	ID      string
	Current int
	Max     int
}

type partyJSON struct {
	ID   string `json:"id,omitempty"`
	Size []int  `json:"size,omitempty"`
}

// MarshalJSON encodes the size as [current, max] when max is set.
func (p Party) MarshalJSON() ([]byte, error) {
	out := partyJSON{ID: p.ID}
	if p.Max > 0 {
		out.Size = []int{p.Current, p.Max}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes {id, size:[current, max]}.
func (p *Party) UnmarshalJSON(b []byte) error {
	var in partyJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*p = Party{ID: in.ID}
	if len(in.Size) == 2 {
		p.Current, p.Max = in.Size[0], in.Size[1]
	}
	return nil
}

// Validate checks that the size is consistent.
func (p Party) Validate() error {
	if p.Current < 0 || p.Max < 0 || (p.Max > 0 && p.Current > p.Max) {
		return fmt.Errorf("%w: %d/%d", ErrInvalidParty, p.Current, p.Max)
	}
	return nil
}

// Button is a link rendered under the activity.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Secrets enable join and spectate flows.
type Secrets struct {
	Join     string `json:"join,omitempty"`
	Spectate string `json:"spectate,omitempty"`
	Match    string `json:"match,omitempty"`
}

// Extras is either Buttons or Secrets.
type Extras interface {
	isExtras()
}

// Buttons is the button variant of Extras.
type Buttons []Button

func (Buttons) isExtras() {}
func (Secrets) isExtras() {}

// Activity is the presence payload.
type Activity struct {
	Type       Type
	Name       string
	State      string
	Details    string
	Instance   bool
	Timestamps Timestamps
	Assets     *Assets
	Party      *Party
	Extras     Extras
}

type activityJSON struct {
	Type       Type        `json:"type"`
	Name       string      `json:"name,omitempty"`
	State      string      `json:"state,omitempty"`
	Details    string      `json:"details,omitempty"`
	Instance   bool        `json:"instance"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
	Party      *Party      `json:"party,omitempty"`
	Buttons    []Button    `json:"buttons,omitempty"`
	Secrets    *Secrets    `json:"secrets,omitempty"`
}

// Validate reports whether the activity can be published.
func (a *Activity) Validate() error {
	if a.Party != nil {
		if err := a.Party.Validate(); err != nil {
			return err
		}
	}
	switch x := a.Extras.(type) {
	case Buttons:
		if len(x) > MaxButtons {
			return fmt.Errorf("%w: %d > %d", ErrTooManyButtons, len(x), MaxButtons)
		}
		for _, b := range x {
			if b.Label == "" || b.URL == "" {
				return ErrInvalidButton
			}
		}
	}
	return nil
}

// Buttons returns the buttons, or nil when the activity carries secrets or
// nothing.
func (a *Activity) Buttons() Buttons {
	b, _ := a.Extras.(Buttons)
	return b
}

// Secrets returns the secrets, or nil when the activity carries buttons or
// nothing.
func (a *Activity) Secrets() *Secrets {
	switch s := a.Extras.(type) {
	case Secrets:
		return &s
	case *Secrets:
		return s
	}
	return nil
}

// MarshalJSON emits at most one of buttons and secrets.
func (a Activity) MarshalJSON() ([]byte, error) {
	out := activityJSON{
		Type:     a.Type,
		Name:     a.Name,
		State:    a.State,
		Details:  a.Details,
		Instance: a.Instance,
		Assets:   a.Assets,
		Party:    a.Party,
	}
	if !a.Timestamps.isZero() {
		ts := a.Timestamps
		out.Timestamps = &ts
	}
	if b := a.Buttons(); len(b) > 0 {
		out.Buttons = b
	} else if s := a.Secrets(); s != nil {
		out.Secrets = s
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an activity. If both buttons and secrets are
// present, buttons win.
func (a *Activity) UnmarshalJSON(b []byte) error {
	var in activityJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*a = Activity{
		Type:     in.Type,
		Name:     in.Name,
		State:    in.State,
		Details:  in.Details,
		Instance: in.Instance,
		Assets:   in.Assets,
		Party:    in.Party,
	}
	if in.Timestamps != nil {
		a.Timestamps = *in.Timestamps
	}
	switch {
	case len(in.Buttons) > 0:
		a.Extras = Buttons(in.Buttons)
	case in.Secrets != nil:
		a.Extras = *in.Secrets
	}
	return nil
}

// Clone returns a deep copy of a.
func (a *Activity) Clone() *Activity {
	if a == nil {
		return nil
	}
	c := *a
	if a.Assets != nil {
		assets := *a.Assets
		c.Assets = &assets
	}
	if a.Party != nil {
		party := *a.Party
		c.Party = &party
	}
	switch x := a.Extras.(type) {
	case Buttons:
		c.Extras = append(Buttons(nil), x...)
	case *Secrets:
		c.Extras = *x
	}
	return &c
}

// String returns a short description for logs.
func (a *Activity) String() string {
	if a == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s %q %q", a.Type, a.Details, a.State)
}
