package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "/usr/local/var/recallsearch/data/recalls.db"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 50
	}
	if cfg.Search.OverfetchMultiplier == 0 {
		cfg.Search.OverfetchMultiplier = 3
	}
	if cfg.Search.OverfetchCap == 0 {
		cfg.Search.OverfetchCap = 150
	}
	if cfg.Search.StoreTimeoutSeconds == 0 {
		cfg.Search.StoreTimeoutSeconds = 5
	}
	cfg.Ranking.ApplyDefaults()
}
