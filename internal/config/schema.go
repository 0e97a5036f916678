package config

// File is the top-level YAML structure of the rule seed file.
type File struct {
	Version string     `yaml:"version" json:"version"`
	Engine  EngineConf `yaml:"engine" json:"engine"`
	Rules   []RuleDef  `yaml:"rules" json:"rules"`
}

// EngineConf holds tunable engine settings.
type EngineConf struct {
	SweepWorkers    int    `yaml:"sweep_workers" json:"sweep_workers"`
	ActionTimeoutMs int    `yaml:"action_timeout_ms" json:"action_timeout_ms"`
	SubjectKind     string `yaml:"subject_kind" json:"subject_kind"`
	SweepCron       string `yaml:"sweep_cron" json:"sweep_cron"`
}

// RuleDef is one rule as it appears in config or the registration API.
type RuleDef struct {
	ID         string         `yaml:"id" json:"id"`
	Name       string         `yaml:"name" json:"name"`
	Enabled    bool           `yaml:"enabled" json:"enabled"`
	Trigger    TriggerDef     `yaml:"trigger" json:"trigger"`
	Conditions []ConditionDef `yaml:"conditions" json:"conditions"`
	Actions    []ActionDef    `yaml:"actions" json:"actions"`
}

// TriggerDef is a discriminated union: exactly one field is set.
type TriggerDef struct {
	Schedule   *ScheduleDef   `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	DataChange *DataChangeDef `yaml:"data_change,omitempty" json:"data_change,omitempty"`
	Event      *EventDef      `yaml:"event,omitempty" json:"event,omitempty"`
}

// ScheduleDef declares an hourly-resolution time window.
type ScheduleDef struct {
	Cadence   string `yaml:"cadence" json:"cadence"` // daily | weekly
	DayOfWeek *int   `yaml:"day_of_week,omitempty" json:"day_of_week,omitempty"`
	Hour      int    `yaml:"hour" json:"hour"`
}

// DataChangeDef declares a watched entity field.
type DataChangeDef struct {
	Entity string `yaml:"entity" json:"entity"`
	Field  string `yaml:"field" json:"field"`
}

// EventDef declares a named domain event.
type EventDef struct {
	Name string `yaml:"name" json:"name"`
}

// ConditionDef is a single guard: field <operator> value.
type ConditionDef struct {
	Field string `yaml:"field" json:"field"`
	Op    string `yaml:"operator" json:"operator"`
	Value any    `yaml:"value" json:"value"`
}

// ActionDef is one action with kind-specific params.
type ActionDef struct {
	Kind     string         `yaml:"kind" json:"kind"`
	Priority string         `yaml:"priority" json:"priority"`
	Params   map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}
