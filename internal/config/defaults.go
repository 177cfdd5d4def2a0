package config

const (
	defaultEnv                 = "dev"
	defaultLogLevel            = "info"
	defaultHTTPAddr            = ":9980"
	defaultEventsPath          = "data/signal_events.db"
	defaultBarsPath            = "data/bar_history.db"
	defaultSweepInterval       = 300
	defaultIdleWindowMinutes   = 10
	defaultPriceTimeout        = 5
	defaultStaleExitMinutes    = 120
	defaultReplayWindowSeconds = 2
	defaultPurgeInterval       = 60
	defaultPriceFloor          = 1000
	defaultMaxJump             = 500
	defaultPriceFeedURL        = "https://fapi.binance.com"
	defaultPriceFeedSymbol     = "BTCUSDT"
	defaultPriceFeedTimeout    = 5
)

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = defaultEnv
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultLogLevel
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = defaultHTTPAddr
	}
	if c.Storage.EventsPath == "" {
		c.Storage.EventsPath = defaultEventsPath
	}
	if c.Storage.BarsPath == "" {
		c.Storage.BarsPath = defaultBarsPath
	}
	if c.Reconcile.SweepIntervalSeconds <= 0 {
		c.Reconcile.SweepIntervalSeconds = defaultSweepInterval
	}
	if c.Reconcile.IdleWindowMinutes <= 0 {
		c.Reconcile.IdleWindowMinutes = defaultIdleWindowMinutes
	}
	if c.Reconcile.PriceTimeoutSeconds <= 0 {
		c.Reconcile.PriceTimeoutSeconds = defaultPriceTimeout
	}
	if c.Reconcile.StaleExitMinutes <= 0 {
		c.Reconcile.StaleExitMinutes = defaultStaleExitMinutes
	}
	if c.Reconcile.ReplayWindowSeconds <= 0 {
		c.Reconcile.ReplayWindowSeconds = defaultReplayWindowSeconds
	}
	if c.Purge.IntervalMinutes <= 0 {
		c.Purge.IntervalMinutes = defaultPurgeInterval
	}
	if c.Backfill.PriceFloor <= 0 {
		c.Backfill.PriceFloor = defaultPriceFloor
	}
	if c.Backfill.MaxJump <= 0 {
		c.Backfill.MaxJump = defaultMaxJump
	}
	if c.PriceFeed.RESTBaseURL == "" {
		c.PriceFeed.RESTBaseURL = defaultPriceFeedURL
	}
	if c.PriceFeed.Symbol == "" {
		c.PriceFeed.Symbol = defaultPriceFeedSymbol
	}
	if c.PriceFeed.TimeoutSeconds <= 0 {
		c.PriceFeed.TimeoutSeconds = defaultPriceFeedTimeout
	}
}
