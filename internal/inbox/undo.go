package inbox

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"fedinbox/internal/activitypub"
	"fedinbox/internal/gateway"
)

// processUndo 按内联对象声明的类型分发；对象只给了个裸引用、
// 没写类型的，进固定顺序的猜测链
func (p *Processor) processUndo(ctx context.Context, env *activitypub.Envelope) (Outcome, error) {
	objURI := env.Object.URI()
	obj := env.Object.Embedded

	declared := ""
	if obj != nil {
		declared = obj.Type
	}
	if declared == "" {
		return p.undoByGuess(ctx, env, objURI)
	}

	switch activitypub.ParseType(declared) {
	case activitypub.TypeAnnounce:
		return p.undoAnnounce(ctx, env, objURI)
	case activitypub.TypeAccept:
		return p.undoAccept(ctx, env, objURI)
	case activitypub.TypeFollow:
		return p.undoFollow(ctx, env, objURI)
	case activitypub.TypeLike:
		return p.undoLike(ctx, env, objURI)
	case activitypub.TypeBlock:
		return p.undoBlock(ctx, env, objURI)
	case activitypub.TypeEmojiReact:
		return p.undoReact(ctx, env, objURI)
	default:
		// 类型写了但不认识：明确跳过，不能当成"没写类型"去猜
		zap.L().Debug("undo object type not handled",
			zap.String("type", declared), zap.String("activity_id", env.ID))
		return OutcomeSkipped, nil
	}
}

// undoByGuess 没有全局对象索引，只能按固定顺序猜这个引用是什么。
// 顺序不能动：announce 必须先于 like，转发和收藏共享 URI 空间；
// 越便宜、越有区分度的查询越靠前，第一个命中的解释生效。
func (p *Processor) undoByGuess(ctx context.Context, env *activitypub.Envelope, uri string) (Outcome, error) {
	if uri == "" {
		return OutcomeSkipped, nil
	}

	guesses := []func(ctx context.Context, actorID uint, uri string) (bool, error){
		p.tryUndoAnnounce,
		p.tryUndoAccept,
		p.tryUndoFollow,
		p.tryUndoLike,
		p.tryUndoReact,
		p.tryUndoBlock,
	}
	for _, guess := range guesses {
		done, err := guess(ctx, env.ActorID, uri)
		if err != nil {
			return OutcomeSkipped, err
		}
		if done {
			return OutcomeApplied, nil
		}
	}

	// 全都不是：当成之后要删的未知对象，尽力而为
	p.deleter.DeleteLater(ctx, uri)
	return OutcomeDeferred, nil
}

func (p *Processor) tryUndoAnnounce(ctx context.Context, actorID uint, uri string) (bool, error) {
	status, err := p.gw.Statuses.FindReblogByURI(ctx, actorID, uri)
	if errors.Is(err, gateway.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, p.gw.Statuses.Delete(ctx, status.ID)
}

func (p *Processor) tryUndoAccept(ctx context.Context, actorID uint, uri string) (bool, error) {
	// Accept 的 uri 从来没记录过，这一步永远猜不中，占位保持链序
	return false, nil
}

func (p *Processor) tryUndoFollow(ctx context.Context, actorID uint, uri string) (bool, error) {
	if request, err := p.gw.Follows.FindRequestByURI(ctx, actorID, uri); err == nil {
		return true, p.gw.Follows.DeleteRequest(ctx, request.ID)
	} else if !errors.Is(err, gateway.ErrNotFound) {
		return false, err
	}

	if follow, err := p.gw.Follows.FindByURI(ctx, actorID, uri); err == nil {
		return true, p.gw.Follows.DeleteFollow(ctx, follow.ID)
	} else if !errors.Is(err, gateway.ErrNotFound) {
		return false, err
	}
	return false, nil
}

func (p *Processor) tryUndoLike(ctx context.Context, actorID uint, uri string) (bool, error) {
	// 收藏表上没有 uri 索引，一个账号的收藏可能非常多，这里查不起
	return false, nil
}

func (p *Processor) tryUndoReact(ctx context.Context, actorID uint, uri string) (bool, error) {
	reaction, err := p.gw.Reactions.FindByURI(ctx, actorID, uri)
	if errors.Is(err, gateway.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, p.gw.Reactions.Delete(ctx, reaction.ID)
}

func (p *Processor) tryUndoBlock(ctx context.Context, actorID uint, uri string) (bool, error) {
	block, err := p.gw.Blocks.FindByURI(ctx, actorID, uri)
	if errors.Is(err, gateway.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, p.gw.Blocks.Delete(ctx, block.ID)
}

func (p *Processor) undoAnnounce(ctx context.Context, env *activitypub.Envelope, objURI string) (Outcome, error) {
	if objURI == "" {
		return OutcomeSkipped, nil
	}

	atomURI := ""
	if env.Object.Embedded != nil {
		atomURI = env.Object.Embedded.AtomURI
	}

	status, err := p.gw.Statuses.FindOwnedByURI(ctx, env.ActorID, objURI, atomURI)
	if errors.Is(err, gateway.ErrNotFound) {
		p.deleter.DeleteLater(ctx, objURI)
		return OutcomeDeferred, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeApplied, p.gw.Statuses.Delete(ctx, status.ID)
}

func (p *Processor) undoAccept(ctx context.Context, env *activitypub.Envelope, objURI string) (Outcome, error) {
	targetURI := p.targetURI(env)
	if targetURI == "" {
		return OutcomeSkipped, nil
	}

	// 撤回自己发过的 Accept：把已建立的关注退回待确认
	follow, err := p.gw.Follows.FindTowards(ctx, env.ActorID, targetURI)
	if errors.Is(err, gateway.ErrNotFound) {
		p.deleter.DeleteLater(ctx, objURI)
		return OutcomeDeferred, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeApplied, p.gw.Follows.RevokeToRequest(ctx, follow)
}

func (p *Processor) undoFollow(ctx context.Context, env *activitypub.Envelope, objURI string) (Outcome, error) {
	target, err := p.resolver.Account(ctx, p.targetURI(env))
	if errors.Is(err, gateway.ErrNotFound) {
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}
	if !target.Local() {
		return OutcomeSkipped, nil
	}

	if follow, err := p.gw.Follows.FindByAccounts(ctx, env.ActorID, target.ID); err == nil {
		return OutcomeApplied, p.gw.Follows.DeleteFollow(ctx, follow.ID)
	} else if !errors.Is(err, gateway.ErrNotFound) {
		return OutcomeSkipped, err
	}

	if request, err := p.gw.Follows.FindRequestByAccounts(ctx, env.ActorID, target.ID); err == nil {
		return OutcomeApplied, p.gw.Follows.DeleteRequest(ctx, request.ID)
	} else if !errors.Is(err, gateway.ErrNotFound) {
		return OutcomeSkipped, err
	}

	p.deleter.DeleteLater(ctx, objURI)
	return OutcomeDeferred, nil
}

// undoLike 撤销收藏或表情回应。重算一遍短码，按当初记下的身份反查
func (p *Processor) undoLike(ctx context.Context, env *activitypub.Envelope, objURI string) (Outcome, error) {
	obj := env.Object.Embedded
	if obj == nil {
		return OutcomeSkipped, nil
	}

	status, err := p.resolver.LocalStatus(ctx, obj.Object)
	if errors.Is(err, gateway.ErrNotFound) {
		// 状态本身已经没了，当成早就撤过
		p.deleter.DeleteLater(ctx, objURI)
		return OutcomeDeferred, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	shortcode := activitypub.Shortcode(obj.Content, obj.MisskeyReaction)
	if shortcode == "" {
		deleted, err := p.gw.Favourites.Delete(ctx, env.ActorID, status.ID)
		if err != nil {
			return OutcomeSkipped, err
		}
		if !deleted {
			p.deleter.DeleteLater(ctx, objURI)
			return OutcomeDeferred, nil
		}
		return OutcomeApplied, nil
	}

	// 表情身份按发起账号的域名查，跟创建时的 (shortcode, domain) 对上
	var emojiID *uint
	if tag := obj.EmojiTag(); tag != nil && tag.ID != "" {
		actor, err := p.gw.Accounts.Find(ctx, env.ActorID)
		if err != nil {
			return OutcomeSkipped, err
		}
		if emoji, err := p.gw.Emojis.Find(ctx, shortcode, actor.Domain); err == nil {
			emojiID = &emoji.ID
		} else if !errors.Is(err, gateway.ErrNotFound) {
			return OutcomeSkipped, err
		}
	}

	exists, err := p.gw.Reactions.Exists(ctx, env.ActorID, status.ID, shortcode, emojiID)
	if err != nil {
		return OutcomeSkipped, err
	}
	if !exists {
		p.deleter.DeleteLater(ctx, objURI)
		return OutcomeDeferred, nil
	}

	if _, err := p.gw.Reactions.DeleteMatching(ctx, env.ActorID, status.ID, shortcode, emojiID); err != nil {
		return OutcomeSkipped, err
	}

	if status.Account.Local() {
		if actor, err := p.gw.Accounts.Find(ctx, env.ActorID); err == nil {
			p.distributor.Redistribute(ctx, env.Raw, status.AccountID, []string{actor.PreferredInboxURL()})
		}
	}
	return OutcomeApplied, nil
}

func (p *Processor) undoBlock(ctx context.Context, env *activitypub.Envelope, objURI string) (Outcome, error) {
	target, err := p.resolver.Account(ctx, p.targetURI(env))
	if errors.Is(err, gateway.ErrNotFound) {
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}
	if !target.Local() {
		return OutcomeSkipped, nil
	}

	block, err := p.gw.Blocks.FindByAccounts(ctx, env.ActorID, target.ID)
	if errors.Is(err, gateway.ErrNotFound) {
		p.deleter.DeleteLater(ctx, objURI)
		return OutcomeDeferred, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeApplied, p.gw.Blocks.Delete(ctx, block.ID)
}

func (p *Processor) undoReact(ctx context.Context, env *activitypub.Envelope, objURI string) (Outcome, error) {
	reaction, err := p.gw.Reactions.FindByURI(ctx, env.ActorID, objURI)
	if errors.Is(err, gateway.ErrNotFound) {
		p.deleter.DeleteLater(ctx, objURI)
		return OutcomeDeferred, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeApplied, p.gw.Reactions.Delete(ctx, reaction.ID)
}

// targetURI 撤销对象自己的 object 字段，即原活动指向的目标
func (p *Processor) targetURI(env *activitypub.Envelope) string {
	if env.Object.Embedded == nil {
		return ""
	}
	return env.Object.Embedded.Object.URI()
}
