package backend

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/backend.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

type BackendConfigMarshall struct {
	Port    int32                         `yaml:"port"`
	Cluster *EggRateClusterConfigMarshall `yaml:"cluster"`
}

var _ Marshalled[*BackendConfig] = &BackendConfigMarshall{}

func (b *BackendConfigMarshall) trySeal(path string) *BackendConfig {
	return &BackendConfig{
		port:    b.Port,
		cluster: nonnil(b.Cluster, path+".cluster").trySeal(path + ".cluster"),
	}
}

// Configuration of the egg-rate service.
//
// This type is marshalling value and mutable.
// Consider to use immutable version, `EggRateClusterConfig`.
// You can get `EggRateClusterConfig` instance with `EggRateClusterConfigMarshall.TrySeal()`
type EggRateClusterConfigMarshall struct {
	Database  string                   `yaml:"database"`
	LogLevel  string                   `yaml:"loglevel,omitempty"`
	Backfill  *BackfillConfigMarshall  `yaml:"backfill"`
	Retention *RetentionConfigMarshall `yaml:"retention"`
}

// verify configuration value and create "readonly" version of this.
//
// IT WILL PANIC if any misconfiguration is found.
func (cm *EggRateClusterConfigMarshall) TrySeal() *EggRateClusterConfig {
	return cm.trySeal("(root)")
}

func (cm *EggRateClusterConfigMarshall) trySeal(path string) *EggRateClusterConfig {
	loglevel := cm.LogLevel
	if loglevel == "" {
		loglevel = "info"
	}
	return &EggRateClusterConfig{
		database:  required(cm.Database, path+".database"),
		loglevel:  loglevel,
		backfill:  nonnil(cm.Backfill, path+".backfill").trySeal(path + ".backfill"),
		retention: nonnil(cm.Retention, path+".retention").trySeal(path + ".retention"),
	}
}

type BackfillConfigMarshall struct {
	LookbackDays int    `yaml:"lookbackDays,omitempty"`
	Schedule     string `yaml:"schedule,omitempty"`
}

func (bm *BackfillConfigMarshall) trySeal(path string) *BackfillConfig {
	lookbackDays := bm.LookbackDays
	if lookbackDays == 0 {
		lookbackDays = 30
	}
	if lookbackDays < 0 {
		panic(path + ".lookbackDays must be positive")
	}
	schedule := bm.Schedule
	if schedule == "" {
		schedule = "30 0 * * *"
	}
	return &BackfillConfig{
		lookbackDays: lookbackDays,
		schedule:     schedule,
	}
}

type RetentionConfigMarshall struct {
	WindowDays int    `yaml:"windowDays"`
	Schedule   string `yaml:"schedule,omitempty"`
}

func (rm *RetentionConfigMarshall) trySeal(path string) *RetentionConfig {
	windowDays := required(rm.WindowDays, path+".windowDays")
	if windowDays < 0 {
		panic(path + ".windowDays must be positive")
	}
	schedule := rm.Schedule
	if schedule == "" {
		schedule = "0 2 * * *"
	}
	return &RetentionConfig{
		windowDays: windowDays,
		schedule:   schedule,
	}
}

func nonnil[T any](v *T, path string) *T {
	if v == nil {
		panic(path + " is required")
	}
	return v
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}
