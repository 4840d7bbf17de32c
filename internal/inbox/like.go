package inbox

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"fedinbox/internal/activitypub"
	"fedinbox/internal/gateway"
	"fedinbox/internal/lock"
	"fedinbox/internal/models"
)

// processLike 收藏和表情回应走同一个入口，按内容区分：
// 内容为空（或 Misskey 星标）是普通收藏，非空是表情回应
func (p *Processor) processLike(ctx context.Context, env *activitypub.Envelope) (Outcome, error) {
	status, err := p.resolver.Status(ctx, env.Object)
	if errors.Is(err, gateway.ErrNotFound) {
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	// delete 先到的竞态：这条 Like 已经被撤了，什么都不做
	gone, err := p.gw.Tombstones.Exists(ctx, env.ID)
	if err != nil {
		return OutcomeSkipped, err
	}
	if gone {
		return OutcomeSkipped, nil
	}

	unlock, err := p.locks.Acquire(ctx, lock.LikeKey(env.Object.URI()), p.lockTTL)
	if errors.Is(err, lock.ErrLockBusy) {
		// 同一资源有活动在处理中，这条按重复投递丢弃
		zap.L().Info("activity dropped, resource busy",
			zap.String("activity_id", env.ID), zap.String("object", env.Object.URI()))
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}
	defer unlock()

	shortcode := activitypub.Shortcode(env.Content, env.MisskeyReaction)
	if shortcode == "" {
		return p.applyFavourite(ctx, env, status)
	}
	return p.applyReaction(ctx, env, status, shortcode)
}

func (p *Processor) applyFavourite(ctx context.Context, env *activitypub.Envelope, status models.Status) (Outcome, error) {
	exists, err := p.gw.Favourites.Exists(ctx, env.ActorID, status.ID)
	if err != nil {
		return OutcomeSkipped, err
	}
	if exists {
		return OutcomeSkipped, nil
	}

	fav, err := p.gw.Favourites.Create(ctx, env.ActorID, status.ID)
	if err != nil {
		return OutcomeSkipped, err
	}

	if status.Account.Local() {
		p.notifier.Notify(ctx, status.Account, NotifyFavourite, "Favourite", fav.ID)
	}
	return OutcomeApplied, nil
}

func (p *Processor) applyReaction(ctx context.Context, env *activitypub.Envelope, status models.Status, shortcode string) (Outcome, error) {
	var emojiID *uint
	if env.Tag != nil {
		// 标签残缺（缺 id/name/icon.url 任一）整条活动作废，不留半截状态
		if !env.Tag.Valid() {
			zap.L().Info("malformed emoji tag, activity abandoned", zap.String("activity_id", env.ID))
			return OutcomeSkipped, nil
		}

		emoji, err := p.gw.Emojis.FindOrCreate(ctx, shortcode, env.Tag.Domain(), env.Tag.ID, env.Tag.Icon.URL)
		if err != nil {
			return OutcomeSkipped, err
		}
		emojiID = &emoji.ID

		// 图标镜像是可选基础设施，没配就跳过
		if p.icons != nil {
			p.icons.Mirror(ctx, emoji.Shortcode, emoji.Domain, emoji.ImageRemoteURL)
		}
	}

	exists, err := p.gw.Reactions.Exists(ctx, env.ActorID, status.ID, shortcode, emojiID)
	if err != nil {
		return OutcomeSkipped, err
	}
	if exists {
		return OutcomeSkipped, nil
	}

	// 同一账号对同一状态只保留一个回应，换表情先删旧的
	if _, err := p.gw.Reactions.DeleteForPair(ctx, env.ActorID, status.ID); err != nil {
		return OutcomeSkipped, err
	}

	reaction, err := p.gw.Reactions.Create(ctx, models.Reaction{
		AccountID:     env.ActorID,
		StatusID:      status.ID,
		Name:          shortcode,
		CustomEmojiID: emojiID,
		// 记下活动自己的 id，Undo 按这个反查
		URI: env.ID,
	})
	if err != nil {
		return OutcomeSkipped, err
	}

	if status.Account.Local() {
		p.notifier.Notify(ctx, status.Account, NotifyEmojiReaction, "Reaction", reaction.ID)

		if actor, err := p.gw.Accounts.Find(ctx, env.ActorID); err == nil {
			p.distributor.Redistribute(ctx, env.Raw, status.AccountID, []string{actor.PreferredInboxURL()})
		}
	}
	return OutcomeApplied, nil
}
