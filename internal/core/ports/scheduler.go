package ports

// SchedulerService runs recurring background tasks, the auto-pilot
// poller among them.
type SchedulerService interface {
	Start()
	Stop()

	ScheduleTask(interval int64, immediate bool, task func()) error
}
