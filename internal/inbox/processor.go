package inbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fedinbox/internal/activitypub"
	"fedinbox/internal/gateway"
	"fedinbox/internal/lock"
	"fedinbox/internal/resolver"
)

// Outcome 一条活动的处理结果
type Outcome int

const (
	// OutcomeSkipped 没有产生任何变更：重复投递、目标不存在、锁竞争落败、类型不认识
	OutcomeSkipped Outcome = iota
	// OutcomeApplied 变更已落库
	OutcomeApplied
	// OutcomeDeferred 现在处理不了，转成了延迟删除任务
	OutcomeDeferred
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeDeferred:
		return "deferred"
	default:
		return "skipped"
	}
}

type handlerFunc func(ctx context.Context, env *activitypub.Envelope) (Outcome, error)

// Processor 入站活动的分发与落地。每条活动都是独立的工作单元，
// 失败只影响自己；只有存储这类意外错误才往上抛给任务层重试。
type Processor struct {
	gw          gateway.Gateways
	resolver    *resolver.Resolver
	locks       lock.Manager
	notifier    Notifier
	distributor Redistributor
	deleter     Deleter
	icons       IconMirror
	lockTTL     time.Duration

	handlers map[activitypub.ActivityType]handlerFunc
}

func NewProcessor(
	gw gateway.Gateways,
	res *resolver.Resolver,
	locks lock.Manager,
	notifier Notifier,
	distributor Redistributor,
	deleter Deleter,
	icons IconMirror,
	lockTTL time.Duration,
) *Processor {
	p := &Processor{
		gw:          gw,
		resolver:    res,
		locks:       locks,
		notifier:    notifier,
		distributor: distributor,
		deleter:     deleter,
		icons:       icons,
		lockTTL:     lockTTL,
	}

	// 封闭的分发表，编译期就能看全：目前只落地 Like 和 Undo，
	// 其余类型在这里没挂处理器就是明确的 skip，不会误入兜底链
	p.handlers = map[activitypub.ActivityType]handlerFunc{
		activitypub.TypeLike: p.processLike,
		activitypub.TypeUndo: p.processUndo,
	}
	return p
}

func (p *Processor) Process(ctx context.Context, env *activitypub.Envelope) (Outcome, error) {
	handler, ok := p.handlers[env.Type]
	if !ok {
		zap.L().Debug("no handler for activity type",
			zap.String("type", env.Type.String()), zap.String("activity_id", env.ID))
		return OutcomeSkipped, nil
	}
	return handler(ctx, env)
}
