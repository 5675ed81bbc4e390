package item

// CredentialsKind discriminates the variant carried in Credentials.
type CredentialsKind string

const (
	CredentialsAbsent   CredentialsKind = "absent"
	CredentialsOAuth1   CredentialsKind = "oauth1"
	CredentialsOAuth2   CredentialsKind = "oauth2"
	CredentialsPassword CredentialsKind = "password"
)

// Credentials is the (back-end, account) authentication variant obtained
// from the external authentication broker (see internal/authbroker). The
// runtime never persists these beyond the AccountSession that owns them,
// and never writes them to disk itself — spec.md's non-goal that "the core
// does not itself store credentials."
type Credentials struct {
	Kind CredentialsKind

	// OAuth1 fields.
	ConsumerKey, ConsumerSecret string
	Token, TokenSecret          string

	// OAuth2 fields.
	AccessToken string

	// Password fields.
	Username, Password string
}

// PeerInfo is the resolved identity of an IPC peer: (uid, pid, security
// label), as produced by internal/peercache.
type PeerInfo struct {
	UID   uint32
	PID   int32
	Label string
}

// Context is the per-call bundle handed to Provider methods so back-ends
// can perform ACL checks, per spec.md section 3.
type Context struct {
	Peer        PeerInfo
	Credentials Credentials
}
