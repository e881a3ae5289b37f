package streamtest

const (
	Name    = "streamtest"
	Version = "0.1.0"
)
