package repository

// Keys builds the store keys used by the application under one prefix.
type Keys struct {
	prefix string
}

// NewKeys returns a key builder. An empty prefix defaults to "marketplace".
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = "marketplace"
	}
	return Keys{prefix: prefix}
}

func (k Keys) Listings() string      { return k.prefix + ":listings" }
func (k Keys) HeaderRow() string     { return k.prefix + ":layout:header" }
func (k Keys) PreHeaderRows() string { return k.prefix + ":layout:preheader" }
func (k Keys) LastSync() string      { return k.prefix + ":sync:last" }
func (k Keys) AccessToken() string   { return k.prefix + ":auth:token" }

// AuthState is the key of a pending login nonce.
func (k Keys) AuthState(nonce string) string {
	return k.prefix + ":auth:state:" + nonce
}
