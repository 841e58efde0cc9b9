package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, "853387211897700394", s.ClientID)
	assert.True(t, s.Reconnect)
	assert.Equal(t, 20, s.HideAfterMinutes)
	assert.Equal(t, 20*time.Minute, s.HideAfter())
	assert.Equal(t, DisplayDocument, s.DisplayMode)
	require.NoError(t, s.Validate())
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{
			name:   "YAML",
			format: FormatYAML,
			data: `client_id: "1234"
reconnect_on_activity_update: false
hide_after_minutes: 5
display_mode: project
`,
		},
		{
			name:   "TOML",
			format: FormatTOML,
			data: `client_id = "1234"
reconnect_on_activity_update = false
hide_after_minutes = 5
display_mode = "PROJECT"
`,
		},
		{
			name:   "JSONC",
			format: FormatJSONC,
			data: `{
  // application id
  "client_id": "1234",
  "reconnect_on_activity_update": false,
  "hide_after_minutes": 5,
  "display_mode": "Project", /* case is ignored */
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.Equal(t, "1234", s.ClientID)
			assert.False(t, s.Reconnect)
			assert.Equal(t, 5*time.Minute, s.HideAfter())
			assert.Equal(t, DisplayProject, s.DisplayMode)
			assert.Equal(t, DefaultLargeImage, s.LargeImage)
		})
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatTOML, FormatJSONC} {
		s, err := Parse(nil, format)
		require.NoError(t, err)
		assert.Equal(t, Default(), s)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
		want   error
	}{
		{"UnknownYAMLKey", FormatYAML, "colour: red\n", nil},
		{"UnknownTOMLKey", FormatTOML, "colour = \"red\"\n", ErrUnknownKey},
		{"UnknownJSONKey", FormatJSONC, `{"colour": "red"}`, nil},
		{"BlankClientID", FormatYAML, "client_id: \"  \"\n", ErrInvalidClientID},
		{"NonNumericClientID", FormatTOML, "client_id = \"abc\"\n", ErrInvalidClientID},
		{"NegativeHide", FormatJSONC, `{"hide_after_minutes": -1}`, ErrInvalidHideAfter},
		{"BadMode", FormatYAML, "display_mode: everything\n", ErrInvalidDisplayMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			require.Error(t, err)
			var le *LoadError
			assert.True(t, errors.As(err, &le))
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "presence.yml")
	require.NoError(t, os.WriteFile(path, []byte("hide_after_minutes: 0\n"), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), s.HideAfter())

	_, err = Load(filepath.Join(dir, "missing.toml"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Error(), "missing.toml")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(filepath.Join(dir, "presence.ini"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	bad := filepath.Join(dir, "bad.jsonc")
	require.NoError(t, os.WriteFile(bad, []byte(`{"client_id": ""}`), 0o644))
	_, err = Load(bad)
	require.ErrorAs(t, err, &le)
	assert.Equal(t, bad, le.File)
	assert.ErrorIs(t, err, ErrInvalidClientID)
}

func TestDisplayModeDetails(t *testing.T) {
	tests := []struct {
		mode          DisplayMode
		project, file string
		want          string
	}{
		{DisplayDocument, "railroad", "main.go", "In railroad\nEditing main.go"},
		{DisplayDocument, "", "main.go", "Editing main.go"},
		{DisplayDocument, "railroad", "", "Working on railroad"},
		{DisplayProject, "railroad", "main.go", "Working on railroad"},
		{DisplayApplication, "railroad", "main.go", "Idling"},
		{DisplayProject, "", "", "Idling"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mode.Details(tt.project, tt.file), "%s %q %q", tt.mode, tt.project, tt.file)
	}
}

func TestSettingsSet(t *testing.T) {
	s := Default()
	require.NoError(t, s.Set("hide_after_minutes", "3"))
	require.NoError(t, s.Set("reconnect_on_activity_update", "false"))
	require.NoError(t, s.Set("display_mode", "application"))
	require.NoError(t, s.Set("client_id", " 42 "))
	require.NoError(t, s.Validate())

	assert.Equal(t, 3, s.HideAfterMinutes)
	assert.False(t, s.Reconnect)
	assert.Equal(t, DisplayApplication, s.DisplayMode)
	assert.Equal(t, "42", s.ClientID)

	assert.Error(t, s.Set("hide_after_minutes", "soon"))
	assert.ErrorIs(t, s.Set("colour", "red"), ErrUnknownKey)
}

func TestStore(t *testing.T) {
	st := NewStore(Default())

	var changes []Settings
	st.OnChange(func(old, updated Settings) {
		assert.NotEqual(t, old, updated)
		// The new settings are already visible to readers.
		assert.Equal(t, updated, st.Get())
		changes = append(changes, updated)
	})

	require.NoError(t, st.Set("hide_after_minutes", "1"))
	assert.Equal(t, time.Minute, st.HideAfter())

	require.NoError(t, st.Set("client_id", "99"))
	assert.Equal(t, "99", st.ClientID())

	// Invalid updates leave the settings untouched and notify nobody.
	assert.ErrorIs(t, st.Set("client_id", ""), ErrInvalidClientID)
	assert.Equal(t, "99", st.ClientID())
	assert.Len(t, changes, 2)

	next := Default()
	next.Reconnect = false
	require.NoError(t, st.Replace(next))
	assert.False(t, st.Reconnect())
	assert.Len(t, changes, 3)
}

func TestSaveRoundTrip(t *testing.T) {
	s := Default()
	s.ClientID = "4242"
	s.Reconnect = false
	s.HideAfterMinutes = 9
	s.DisplayMode = DisplayApplication
	s.ProtocolLog = "/tmp/session.plog"

	for _, name := range []string{"presence.yaml", "presence.toml", "presence.jsonc"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, Save(path, s))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, s, loaded)

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
		})
	}

	assert.ErrorIs(t, Save(filepath.Join(t.TempDir(), "presence.ini"), s), ErrUnknownFormat)
}
