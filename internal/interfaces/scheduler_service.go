package interfaces

// SchedulerService runs the periodic health-sweep (spec §5): requeue
// (or fail, once retries are spent) stuck Processing tasks, and surface
// medium/low-confidence PendingValidation job_sources for operator
// review. Disabled sources are not re-enabled by the sweep.
type SchedulerService interface {
	// Start the scheduler with a cron expression (WorkerSettings.HealthSweepCron)
	Start(cronExpr string) error

	// Stop the scheduler
	Stop() error

	// TriggerHealthSweepNow runs one sweep immediately, outside its schedule
	TriggerHealthSweepNow() error

	// IsRunning returns true if scheduler is active
	IsRunning() bool
}
