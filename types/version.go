package types

// Version is the canonical icupack version.
// It is stamped into build records and reported by `icupack version`.
const Version = "0.3.0"
