package domain

// Hasher derives stable keys from arbitrary input, e.g. retrieval cache keys.
type Hasher interface {
	Hash(data []byte) string
}
