package models

// These five structs are the named config blobs the Config Loader
// reads from the Store's config table (spec §6): prefilter-policy,
// match-policy, worker-settings, ai-settings, personal-info. Required
// inner keys carry `validate` tags so the loader can fail fast on
// missing fields rather than let a zero value silently pass through
// the Filter/Scoring Engines.

// PrefilterPolicyKey / MatchPolicyKey / etc. are the Store config keys
// these blobs are persisted and looked up under.
const (
	PrefilterPolicyKey = "prefilter-policy"
	MatchPolicyKey     = "match-policy"
	WorkerSettingsKey  = "worker-settings"
	AISettingsKey      = "ai-settings"
	PersonalInfoKey    = "personal-info"
)

// PrefilterPolicy configures the Filter Engine (spec §4.2).
type PrefilterPolicy struct {
	ExcludedJobTypes     []string `json:"excluded_job_types"`
	ExcludedSeniorities  []string `json:"excluded_seniorities"`
	ExcludedCompanies    []string `json:"excluded_companies"`
	ExcludedKeywords     []string `json:"excluded_keywords"`
	ExcludedDomains      []string `json:"excluded_domains"`
	RejectDays           int      `json:"reject_days" validate:"required,min=1"`
	MinSalaryFloor       int      `json:"min_salary_floor"`
	RequiredTechnologies []string `json:"required_technologies"`
	MinDescriptionLength int      `json:"min_description_length"`

	StrikeThreshold          int `json:"strike_threshold" validate:"required,min=1"`
	LowSalaryStrikes         int `json:"low_salary_strikes"`
	LowExperienceStrikes     int `json:"low_experience_strikes"`
	NonIdealSeniorityStrikes int `json:"non_ideal_seniority_strikes"`
	MissingTechStrikes       int `json:"missing_tech_strikes"`
	ShortDescriptionStrikes  int `json:"short_description_strikes"`
	StaleDayStrikes          int `json:"stale_day_strikes"`
}

// SeniorityBucket is one entry of MatchPolicy.SeniorityBuckets.
type SeniorityBucket struct {
	Seniority string `json:"seniority" validate:"required"`
	Score     int    `json:"score"`
	Rejected  bool   `json:"rejected"`
}

// SkillWeight configures per-skill scoring for MatchPolicy.
type SkillWeight struct {
	Skill           string  `json:"skill" validate:"required"`
	BaseScore       int     `json:"base_score"`
	YearsMultiplier float64 `json:"years_multiplier"`
	Required        bool    `json:"required"`
	AnalogGroup     string  `json:"analog_group,omitempty"`
}

// MatchPolicy configures the Scoring Engine (spec §4.3).
type MatchPolicy struct {
	MinScore               int               `json:"min_score" validate:"required"`
	SeniorityBuckets       []SeniorityBucket `json:"seniority_buckets" validate:"required,min=1"`
	UserTimezone           string            `json:"user_timezone" validate:"required"`
	MaxTimezoneDiffHours   float64           `json:"max_timezone_diff_hours"`
	TimezonePenaltyPerHour int               `json:"timezone_penalty_per_hour"`
	RemoteAllowed          bool              `json:"remote_allowed"`
	HybridAllowed          bool              `json:"hybrid_allowed"`

	SkillWeights           []SkillWeight `json:"skill_weights"`
	MaxYearsBonus          int           `json:"max_years_bonus"`
	MissingRequiredPenalty int           `json:"missing_required_penalty"`
	MaxBonus               int           `json:"max_bonus"`
	MaxPenalty             int           `json:"max_penalty"`

	SalaryWeight       int `json:"salary_weight"`
	FreshnessWeight    int `json:"freshness_weight"`
	RoleFitWeight      int `json:"role_fit_weight"`
	CompanyBonusWeight int `json:"company_bonus_weight"`

	MinMatchScore int `json:"min_match_score" validate:"required"`
}

// BackoffPolicy configures exponential backoff with jitter, used both
// by the dispatcher's task retry and the job-listing company-wait requeue.
type BackoffPolicy struct {
	BaseSeconds    int     `json:"base_seconds" validate:"required,min=1"`
	MaxSeconds     int     `json:"max_seconds" validate:"required,min=1"`
	JitterFraction float64 `json:"jitter_fraction"`
}

// WorkerSettings configures dispatcher/processor runtime behavior.
type WorkerSettings struct {
	MaxSpawnDepth            int           `json:"max_spawn_depth" validate:"required,min=1"`
	MaxRetries               int           `json:"max_retries" validate:"required,min=0"`
	ProcessingTimeoutSeconds int           `json:"processing_timeout_seconds" validate:"required,min=1"`
	RetryBackoff             BackoffPolicy `json:"retry_backoff"`
	CompanyWaitBackoff       BackoffPolicy `json:"company_wait_backoff"`
	MaxCompanyWaitRetries    int           `json:"max_company_wait_retries" validate:"required,min=1"`
	NFailDisable             int           `json:"n_fail_disable" validate:"required,min=1"`
	HealthSweepCron          string        `json:"health_sweep_cron,omitempty"`
	CompanySizeSmallMax      int           `json:"company_size_small_max"`
	CompanySizeMediumMax     int           `json:"company_size_medium_max"`
	DailySearchBudget        int           `json:"daily_search_budget"`

	// CompanyNameOverrides lets operators add job-board slug -> canonical
	// company name mappings without a redeploy, layered on top of the
	// built-in table in common.CanonicalCompanyFromJobBoardURL.
	CompanyNameOverrides map[string]string `json:"company_name_overrides,omitempty"`
}

// AgentConfig is one entry of AISettings.Agents, keyed by task kind.
type AgentConfig struct {
	Provider   string  `json:"provider" validate:"required,oneof=claude gemini"`
	Interface  string  `json:"interface" validate:"required,oneof=api cli"`
	Model      string  `json:"model" validate:"required"`
	MaxTokens  int     `json:"max_tokens"`
	MaxCostUSD float64 `json:"max_cost_usd"`
}

// AISettings configures the AI Agent Manager (spec §4.5) and web
// search provider selection.
type AISettings struct {
	Agents           map[string]AgentConfig `json:"agents" validate:"required"`
	SearchProvider   string                 `json:"search_provider" validate:"required,oneof=gemini http"`
	SearchMaxResults int                    `json:"search_max_results"`
	SearchDailyCap   int                    `json:"search_daily_cap"`
}

// AgentFor looks up the agent config for a task kind, e.g.
// "company_extraction", "job_extraction", "match_analysis".
func (a AISettings) AgentFor(taskKind string) (AgentConfig, bool) {
	cfg, ok := a.Agents[taskKind]
	return cfg, ok
}

// The AI task kinds the AI Agent Manager serves (spec §4.5, plus
// source_discovery for §4.8's AI-driven selector discovery fallback):
// keys into AISettings.Agents and the values AgentRequest.TaskKind
// carries, distinct from TaskKind (the dispatcher's queue-item kind).
const (
	AITaskCompanyExtraction = "company_extraction"
	AITaskJobExtraction     = "job_extraction"
	AITaskMatchAnalysis     = "match_analysis"
	AITaskSourceDiscovery   = "source_discovery"
)

// PersonalInfo is the user profile the Scoring Engine and match_analysis
// agent score candidate jobs against.
type PersonalInfo struct {
	Name               string             `json:"name"`
	Timezone           string             `json:"timezone" validate:"required"`
	YearsExperience    map[string]float64 `json:"years_experience"` // skill -> years
	Skills             []string           `json:"skills"`
	PreferredSeniority []string           `json:"preferred_seniority"`
	RemotePreference   string             `json:"remote_preference,omitempty"` // "remote", "hybrid", "onsite", ""
	MinSalary          int                `json:"min_salary,omitempty"`
}
