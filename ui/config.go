package ui

// Config contains TUI-specific configuration.
type Config struct {
	HomeDir      string `env:"HOME"`
	GlamourStyle string `env:"GLAMOUR_STYLE" envDefault:"auto"`
	EnableMouse  bool

	// Backend base URL, shown in the status bar.
	Server string

	// Silent is set when no audio device is used.
	Silent bool

	// Words per minute used by the silent backend to time segments.
	SilentRateWPM int `env:"ASHTRA_SILENT_RATE_WPM" envDefault:"150"`

	// Width of the history sidebar in cells.
	SidebarWidth int `env:"ASHTRA_SIDEBAR_WIDTH" envDefault:"28"`
}
