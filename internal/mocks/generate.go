package mocks

//go:generate mockgen -destination=task_repository.go -package=mocks -mock_names=Repository=MockTaskRepository github.com/alanyang/shiftdesk/internal/port/task Repository
//go:generate mockgen -destination=agent_repository.go -package=mocks -mock_names=Repository=MockAgentRepository github.com/alanyang/shiftdesk/internal/port/agent Repository
//go:generate mockgen -destination=eventbus.go -package=mocks github.com/alanyang/shiftdesk/internal/port/eventbus EventBus,Subscription
//go:generate mockgen -destination=locker.go -package=mocks github.com/alanyang/shiftdesk/internal/port/locker AdvisoryLocker
//go:generate mockgen -destination=notifier.go -package=mocks github.com/alanyang/shiftdesk/internal/port/notifier AgentNotifier
//go:generate mockgen -destination=distributor.go -package=mocks github.com/alanyang/shiftdesk/internal/port/distributor Distributor
//go:generate mockgen -destination=idempotency.go -package=mocks -mock_names=Store=MockIdempotencyStore github.com/alanyang/shiftdesk/internal/port/idempotency Store
