package marionette

// Version is the library version. Release builds override it via
// -ldflags "-X github.com/puppetwire/marionette.Version=...".
var Version = "0.1.0"
