package models

// FingerprintSource records which strategy produced a fingerprint.
type FingerprintSource string

const (
	FingerprintLibrary  FingerprintSource = "library"
	FingerprintFallback FingerprintSource = "fallback"
)

// DeviceFingerprint is an opaque, stable string identifying a device
// installation. Only Value travels on the wire (the X-Device-Fingerprint
// header); Source is diagnostic.
type DeviceFingerprint struct {
	Value  string
	Source FingerprintSource
}

// CooldownState mirrors the authority's "can this identity redeem now"
// answer. Invariant: HasToken == (Remaining == 0).
type CooldownState struct {
	HasToken  bool
	Remaining int // seconds
}
