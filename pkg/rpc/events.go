package rpc

// User is the account signed in to the companion.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator,omitempty"`
	GlobalName    string `json:"global_name,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Bot           bool   `json:"bot,omitempty"`
	PremiumType   int    `json:"premium_type,omitempty"`
}

// DisplayName returns the global name, falling back to the username.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// ServerConfig describes the companion's environment.
type ServerConfig struct {
	CDNHost     string `json:"cdn_host"`
	APIEndpoint string `json:"api_endpoint"`
	Environment string `json:"environment"`
}

// ReadyData is the payload of READY.
type ReadyData struct {
	Version int          `json:"v"`
	Config  ServerConfig `json:"config"`
	User    User         `json:"user"`
}

// ActivitySecretData is the payload of ACTIVITY_JOIN and ACTIVITY_SPECTATE.
type ActivitySecretData struct {
	Secret string `json:"secret"`
}

// ActivityJoinRequestData is the payload of ACTIVITY_JOIN_REQUEST.
type ActivityJoinRequestData struct {
	User User `json:"user"`
}

// SpeakingData is the payload of SPEAKING_START and SPEAKING_STOP.
type SpeakingData struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id,omitempty"`
}
