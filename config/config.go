package config

// Config contains all application settings
type Config struct {
	BindPort      int    `mapstructure:"PORT" yaml:"port"`
	BindHost      string `mapstructure:"HOST" yaml:"host"`
	DatabaseURL   string `mapstructure:"DATABASE_URL" yaml:"database_url"`
	NATSServerURL string `mapstructure:"NATS_URL" yaml:"nats_url"`

	// Upstream market-data API
	FMPBaseURL string `mapstructure:"FMP_BASE_URL" yaml:"fmp_base_url"`
	FMPAPIKey  string `mapstructure:"FMP_API_KEY" yaml:"fmp_api_key"`

	// Local economic-calendar extract. When set, the CSV file replaces the
	// live macro calendar as the macro source.
	CalendarCSVPath string `mapstructure:"CALENDAR_CSV" yaml:"calendar_csv"`

	FetchTimeoutSeconds int `mapstructure:"FETCH_TIMEOUT" yaml:"fetch_timeout"`
	FetchConcurrency    int `mapstructure:"FETCH_CONCURRENCY" yaml:"fetch_concurrency"`

	// Version
	BuildVersion string `yaml:"-"`
	BuildHash    string `yaml:"-"`
	BuildTime    string `yaml:"-"`
}
