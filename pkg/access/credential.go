package access

// TrustRoot identifies which authority vouched for a caller.
type TrustRoot int

const (
	// NoTrust means no credential was accepted.
	NoTrust TrustRoot = iota
	// IdentityRoot is the identity provider session.
	IdentityRoot
	// BreakGlassRoot is the fixed-credential admin marker.
	BreakGlassRoot
)

// String returns the string representation of the trust root.
func (t TrustRoot) String() string {
	switch t {
	case IdentityRoot:
		return "identity"
	case BreakGlassRoot:
		return "break-glass"
	default:
		return "none"
	}
}

// Credential is what a caller presents to a guard. It is one of
// IdentitySession or SharedSecretMarker.
type Credential interface {
	// Root returns the trust root that can vouch for the credential.
	Root() TrustRoot
	// Empty reports whether nothing was presented.
	Empty() bool

	credential()
}

// IdentitySession is a session token issued by the identity provider.
type IdentitySession struct {
	Token string
}

// Root implements Credential.
func (IdentitySession) Root() TrustRoot { return IdentityRoot }

// Empty implements Credential.
func (c IdentitySession) Empty() bool { return c.Token == "" }

func (IdentitySession) credential() {}

// SharedSecretMarker is a signed break-glass admin marker.
type SharedSecretMarker struct {
	Token string
}

// Root implements Credential.
func (SharedSecretMarker) Root() TrustRoot { return BreakGlassRoot }

// Empty implements Credential.
func (c SharedSecretMarker) Empty() bool { return c.Token == "" }

func (SharedSecretMarker) credential() {}

var (
	_ Credential = IdentitySession{}
	_ Credential = SharedSecretMarker{}
)
