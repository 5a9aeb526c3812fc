package constants

// FIL-SPID-V0 header constants
// These describe the textual credential handed to relying HTTP services
const (
	// AuthScheme opens every credential value, followed by a single space
	AuthScheme = "FIL-SPID-V0"

	// FieldSeparator delimits epoch, provider, signature and payload fields
	FieldSeparator = ";"

	// HeaderAuthorization is the header the credential is attached to by default
	HeaderAuthorization = "Authorization"
)
