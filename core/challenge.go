package core

// Challenge represents a transient authentication message to be signed by
// the wallet. IssuedAt keeps its RFC3339 textual form so that serializing
// and re-parsing a challenge reproduces the struct exactly.
type Challenge struct {
	Domain    string
	Address   string
	Statement string
	URI       string
	Version   string
	ChainID   int
	Nonce     string
	IssuedAt  string
}
