package config

// Config is the top-level configuration carrier for sigflow.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Purge     PurgeConfig     `mapstructure:"purge"`
	Backfill  BackfillConfig  `mapstructure:"backfill"`
	PriceFeed PriceFeedConfig `mapstructure:"pricefeed"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
	LogPath  string `mapstructure:"log_path"`
}

type StorageConfig struct {
	// EventsPath is the sqlite file holding the append-only event log.
	EventsPath string `mapstructure:"events_path"`
	// BarsPath is the sqlite file receiving hygiene-accepted bars.
	BarsPath string `mapstructure:"bars_path"`
}

type IngestConfig struct {
	// Strict additionally validates flat-format payloads against a JSON
	// schema before normalization.
	Strict bool `mapstructure:"strict"`
}

type ReconcileConfig struct {
	Enabled              bool `mapstructure:"enabled"`
	SweepIntervalSeconds int  `mapstructure:"sweep_interval_seconds"`
	IdleWindowMinutes    int  `mapstructure:"idle_window_minutes"`
	PriceTimeoutSeconds  int  `mapstructure:"price_timeout_seconds"`
	// StaleExitMinutes is the minimum idle age before the operator-confirmed
	// stale cleanup may force an EXIT_SL. Never applied automatically.
	StaleExitMinutes int `mapstructure:"stale_exit_minutes"`
	// ReplayWindowSeconds flags trades whose whole event history spans less
	// than this as replay-suspected.
	ReplayWindowSeconds int `mapstructure:"replay_window_seconds"`
}

type PurgeConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

type BackfillConfig struct {
	// PriceFloor rejects bars whose prices sit below the instrument's sanity
	// floor (catches decimal-shift corruption).
	PriceFloor float64 `mapstructure:"price_floor"`
	// MaxJump is the largest accepted |close - prev_good_close|.
	MaxJump float64 `mapstructure:"max_jump"`
}

type PriceFeedConfig struct {
	RESTBaseURL    string `mapstructure:"rest_base_url"`
	Symbol         string `mapstructure:"symbol"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}
