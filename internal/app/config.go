package app

// Config holds runtime wiring options for building the app.
type Config struct {
	Home      string // config directory, e.g. $HOME/.parley
	RelayAddr string // relay TCP address, e.g. 127.0.0.1:8080
}
