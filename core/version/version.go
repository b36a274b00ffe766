package version

const (
	// ManifestVersion is the layout version of .manifest files; bump when keys change.
	ManifestVersion = "v1"
	// CoreVersion tracks the harness itself.
	CoreVersion = "v0.4.0"
)
