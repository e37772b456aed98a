package buildinfo

// Set at build time via -ldflags.
var (
	Version    = "dev"
	CommitHash = "unknown"
)

type Info struct {
	About      string `json:"about,omitempty"`
	Service    string `json:"service,omitempty"`
	Version    string `json:"version,omitempty"`
	CommitHash string `json:"commit_hash,omitempty"`
}

func GetBuildInfo() Info {
	return Info{
		About:      "https://github.com/darmiel/callsign",
		Service:    "callsign",
		Version:    Version,
		CommitHash: CommitHash,
	}
}

// UserAgent is sent by the client library and outgoing identity requests.
func UserAgent() string {
	return "callsign/" + Version
}
