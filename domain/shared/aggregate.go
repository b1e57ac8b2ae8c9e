package shared

// AggregateRoot 聚合根接口
// 所有修改必须经由聚合根进行；聚合根记录领域事件，由 UnitOfWork 在提交前取走。
type AggregateRoot interface {
	ID() string

	// Version 乐观锁版本号
	Version() int

	// PullEvents 获取并清空聚合根记录的领域事件
	PullEvents() []DomainEvent
}

// Entity 通过标识判断相等性
type Entity interface {
	ID() string
}
