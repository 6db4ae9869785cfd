package backend

type BackendConfig struct {
	port    int32
	cluster *EggRateClusterConfig
}

func (c *BackendConfig) Port() int32 {
	return c.port
}

func (c *BackendConfig) Cluster() *EggRateClusterConfig {
	return c.cluster
}

// Configuration for the egg-rate service.
//
// to get `EggRateClusterConfig` instance, use `EggRateClusterConfigMarshall.TrySeal()` .
type EggRateClusterConfig struct {
	database  string
	loglevel  string
	backfill  *BackfillConfig
	retention *RetentionConfig
}

// Connection string for database.
func (c *EggRateClusterConfig) Database() string {
	return c.database
}

// Log verbosity of the daemon. default = "info"
func (c *EggRateClusterConfig) LogLevel() string {
	return c.loglevel
}

// Configuration for the daily backfill job.
func (c *EggRateClusterConfig) Backfill() *BackfillConfig {
	return c.backfill
}

// Configuration for the retention job.
func (c *EggRateClusterConfig) Retention() *RetentionConfig {
	return c.retention
}

type BackfillConfig struct {
	lookbackDays int
	schedule     string
}

// How many days the per-city historical walk may reach back.
func (b *BackfillConfig) LookbackDays() int {
	return b.lookbackDays
}

// Cron expression deciding when the job fires. default = "30 0 * * *"
func (b *BackfillConfig) Schedule() string {
	return b.schedule
}

type RetentionConfig struct {
	windowDays int
	schedule   string
}

// Rows older than this many days are archived and purged.
func (r *RetentionConfig) WindowDays() int {
	return r.windowDays
}

// Cron expression deciding when the job fires. default = "0 2 * * *"
func (r *RetentionConfig) Schedule() string {
	return r.schedule
}
