package version

const (
	AppName    = "Soundkeeper"
	AppVersion = "0.3.1"
)
