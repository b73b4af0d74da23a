package interfaces

type SchedulerInterface interface {
	Init()
	Stop()
	Enabled() bool
	Toggle() bool
}
