package wire

import "fmt"

// Result is the outcome of a remote command.
type Result int

// Results. Numeric values other than ResultOK and ResultUnknown are the
// error codes the companion reports in ErrorData.Code.
const (
	ResultOK      Result = 0
	ResultUnknown Result = -1

	ResultUnknownError             Result = 1000
	ResultInvalidPayload           Result = 4000
	ResultInvalidCommand           Result = 4002
	ResultInvalidGuild             Result = 4003
	ResultInvalidEvent             Result = 4004
	ResultInvalidChannel           Result = 4005
	ResultInvalidPermissions       Result = 4006
	ResultInvalidClientID          Result = 4007
	ResultInvalidOrigin            Result = 4008
	ResultInvalidToken             Result = 4009
	ResultInvalidUser              Result = 4010
	ResultOAuth2Error              Result = 5000
	ResultSelectChannelTimeout     Result = 5001
	ResultGetGuildTimeout          Result = 5002
	ResultSelectVoiceForceRequired Result = 5003
	ResultCaptureShortcutListening Result = 5004
)

var resultNames = map[Result]string{
	ResultOK:                       "OK",
	ResultUnknown:                  "UNKNOWN_RESULT",
	ResultUnknownError:             "UNKNOWN_ERROR",
	ResultInvalidPayload:           "INVALID_PAYLOAD",
	ResultInvalidCommand:           "INVALID_COMMAND",
	ResultInvalidGuild:             "INVALID_GUILD",
	ResultInvalidEvent:             "INVALID_EVENT",
	ResultInvalidChannel:           "INVALID_CHANNEL",
	ResultInvalidPermissions:       "INVALID_PERMISSIONS",
	ResultInvalidClientID:          "INVALID_CLIENT_ID",
	ResultInvalidOrigin:            "INVALID_ORIGIN",
	ResultInvalidToken:             "INVALID_TOKEN",
	ResultInvalidUser:              "INVALID_USER",
	ResultOAuth2Error:              "OAUTH2_ERROR",
	ResultSelectChannelTimeout:     "SELECT_CHANNEL_TIMEOUT",
	ResultGetGuildTimeout:          "GET_GUILD_TIMEOUT",
	ResultSelectVoiceForceRequired: "SELECT_VOICE_FORCE_REQUIRED",
	ResultCaptureShortcutListening: "CAPTURE_SHORTCUT_ALREADY_LISTENING",
}

// ResultFromCode maps a numeric code to a Result. Codes without a mapping
// return ResultUnknown and false; callers must treat that as a failure.
func ResultFromCode(code int) (Result, bool) {
	r := Result(code)
	if r == ResultUnknown {
		return ResultUnknown, false
	}
	if _, ok := resultNames[r]; !ok {
		return ResultUnknown, false
	}
	return r, true
}

// IsSuccess reports whether r is ResultOK.
func (r Result) IsSuccess() bool {
	return r == ResultOK
}

// String returns the result name.
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RESULT(%d)", int(r))
}

// ErrorData is the payload of an ERROR envelope.
type ErrorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Result maps the error code. An unmapped code yields ResultUnknown, and
// so does a zero code: an error payload never reads as success.
func (d ErrorData) Result() Result {
	r, ok := ResultFromCode(d.Code)
	if !ok || r.IsSuccess() {
		return ResultUnknown
	}
	return r
}

func (d ErrorData) String() string {
	return fmt.Sprintf("Error %d: %s", d.Code, d.Message)
}
