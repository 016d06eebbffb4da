package reshape

// Version is the release version, overridden at build time via
// -ldflags "-X github.com/aretw0/reshape.Version=...".
var Version = "dev"
