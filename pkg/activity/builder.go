package activity

import "time"

// Builder assembles an Activity. Switching between AddButton and Secrets
// replaces the previous choice.
type Builder struct {
	a   Activity
	err error
}

// NewBuilder returns an empty builder for a PLAYING activity.
func NewBuilder() *Builder {
	return &Builder{}
}

// Type sets the activity type.
func (b *Builder) Type(t Type) *Builder {
	b.a.Type = t
	return b
}

func (b *Builder) Playing() *Builder   { return b.Type(TypePlaying) }
func (b *Builder) Streaming() *Builder { return b.Type(TypeStreaming) }
func (b *Builder) Listening() *Builder { return b.Type(TypeListening) }
func (b *Builder) Watching() *Builder  { return b.Type(TypeWatching) }
func (b *Builder) Custom() *Builder    { return b.Type(TypeCustom) }
func (b *Builder) Competing() *Builder { return b.Type(TypeCompeting) }

// Name sets the activity name. The companion usually shows the
// application name instead.
func (b *Builder) Name(s string) *Builder {
	b.a.Name = s
	return b
}

// State sets the second line of text.
func (b *Builder) State(s string) *Builder {
	b.a.State = s
	return b
}

// Details sets the first line of text.
func (b *Builder) Details(s string) *Builder {
	b.a.Details = s
	return b
}

// Instance marks the activity as an instanced session.
func (b *Builder) Instance(v bool) *Builder {
	b.a.Instance = v
	return b
}

// StartAt sets the start timestamp.
func (b *Builder) StartAt(t time.Time) *Builder {
	b.a.Timestamps.Start = t
	return b
}

// StartNow sets the start timestamp to the current time.
func (b *Builder) StartNow() *Builder {
	return b.StartAt(time.Now())
}

// EndAt sets the end timestamp.
func (b *Builder) EndAt(t time.Time) *Builder {
	b.a.Timestamps.End = t
	return b
}

// LargeImage sets the large image key and its hover text.
func (b *Builder) LargeImage(key, text string) *Builder {
	b.assets().LargeImage = key
	b.assets().LargeText = text
	return b
}

// SmallImage sets the small image key and its hover text.
func (b *Builder) SmallImage(key, text string) *Builder {
	b.assets().SmallImage = key
	b.assets().SmallText = text
	return b
}

func (b *Builder) assets() *Assets {
	if b.a.Assets == nil {
		b.a.Assets = &Assets{}
	}
	return b.a.Assets
}

// Party sets the party id and size.
func (b *Builder) Party(id string, current, max int) *Builder {
	b.a.Party = &Party{ID: id, Current: current, Max: max}
	return b
}

// AddButton appends a button, dropping any secrets.
func (b *Builder) AddButton(label, url string) *Builder {
	buttons := b.a.Buttons()
	if len(buttons) >= MaxButtons {
		b.err = ErrTooManyButtons
		return b
	}
	b.a.Extras = append(buttons, Button{Label: label, URL: url})
	return b
}

// Secrets sets the secrets, dropping any buttons.
func (b *Builder) Secrets(s Secrets) *Builder {
	b.a.Extras = s
	return b
}

// Build validates and returns the activity.
func (b *Builder) Build() (*Activity, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.a.Validate(); err != nil {
		return nil, err
	}
	return b.a.Clone(), nil
}
