package version

// Version is the current release version of whisperact.
// Overridden at build time via -ldflags "-X .../internal/version.Version=...".
var Version = "0.3.0"
