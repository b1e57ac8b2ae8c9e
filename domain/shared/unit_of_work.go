package shared

import "context"

// UnitOfWork 管理事务边界与聚合事件收集。
// Execute 内的仓储调用共享同一事务；fn 成功后注册聚合的事件被写入 outbox（或交给进程内总线）。
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
	RegisterNew(aggregate AggregateRoot)
	RegisterDirty(aggregate AggregateRoot)
	RegisterRemoved(aggregate AggregateRoot)
}

// UnitOfWorkFactory 每个用例创建独立的 UnitOfWork，避免并发请求共享聚合列表。
type UnitOfWorkFactory interface {
	New() UnitOfWork
}

type OutboxRepository interface {
	SaveEvent(ctx context.Context, event DomainEvent) error
}

// Compensating 由不具备回滚能力的 UnitOfWork 实现（如内存存储）。
// 调用方在 fn 失败前需要自行撤销已写入的数据。
type Compensating interface {
	RequiresCompensation() bool
}

// RequiresCompensation true when uow cannot roll back writes made inside Execute.
func RequiresCompensation(uow UnitOfWork) bool {
	c, ok := uow.(Compensating)
	return ok && c.RequiresCompensation()
}
