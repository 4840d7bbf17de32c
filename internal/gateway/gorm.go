package gateway

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fedinbox/internal/infra/cache"
	"fedinbox/internal/models"
)

// Store 基于 gorm 的网关实现。cache 可以为 nil（单测/降级运行）
type Store struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

func NewStore(db *gorm.DB, cache *cache.RedisCache) Gateways {
	s := &Store{db: db, cache: cache}
	return Gateways{
		Accounts:   accountGateway{s},
		Statuses:   statusGateway{s},
		Favourites: favouriteGateway{s},
		Reactions:  reactionGateway{s},
		Emojis:     emojiGateway{s},
		Follows:    followGateway{s},
		Blocks:     blockGateway{s},
		Tombstones: tombstoneGateway{s},
	}
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// 互动数变了就把状态详情缓存踢掉，下次读取重建
func (s *Store) invalidateStatus(ctx context.Context, statusID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, fmt.Sprintf("status:%d", statusID)); err != nil {
		zap.L().Warn("status cache invalidation failed", zap.Uint("status_id", statusID), zap.Error(err))
	}
}

func (s *Store) bumpCounter(ctx context.Context, statusID uint, column string, delta int) {
	var expr *gorm.DB
	if delta > 0 {
		expr = s.db.WithContext(ctx).Model(&models.Status{}).Where("id = ?", statusID).
			Update(column, gorm.Expr(column+" + 1"))
	} else {
		expr = s.db.WithContext(ctx).Model(&models.Status{}).Where("id = ?", statusID).
			Update(column, gorm.Expr("GREATEST("+column+" - 1, 0)"))
	}
	if expr.Error != nil {
		zap.L().Warn("status counter update failed", zap.Uint("status_id", statusID), zap.String("column", column), zap.Error(expr.Error))
	}
	s.invalidateStatus(ctx, statusID)
}

type accountGateway struct{ *Store }

func (s accountGateway) Find(ctx context.Context, id uint) (models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).First(&account, id).Error
	return account, wrapNotFound(err)
}

func (s accountGateway) FindByURI(ctx context.Context, uri string) (models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Where("uri = ?", uri).First(&account).Error
	return account, wrapNotFound(err)
}

type statusGateway struct{ *Store }

func (s statusGateway) FindByURI(ctx context.Context, uri string) (models.Status, error) {
	var status models.Status
	err := s.db.WithContext(ctx).Preload("Account").Where("uri = ?", uri).First(&status).Error
	return status, wrapNotFound(err)
}

func (s statusGateway) FindOwnedByURI(ctx context.Context, accountID uint, uri, atomURI string) (models.Status, error) {
	var status models.Status
	err := s.db.WithContext(ctx).Preload("Account").
		Where("uri = ? AND account_id = ?", uri, accountID).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && atomURI != "" {
		// 老实现只带 atomUri，不带标准 uri，再试一次
		err = s.db.WithContext(ctx).Preload("Account").
			Where("uri = ? AND account_id = ?", atomURI, accountID).First(&status).Error
	}
	return status, wrapNotFound(err)
}

func (s statusGateway) FindReblogByURI(ctx context.Context, accountID uint, uri string) (models.Status, error) {
	var status models.Status
	err := s.db.WithContext(ctx).Preload("Account").
		Where("uri = ? AND account_id = ? AND reblog_of_id IS NOT NULL", uri, accountID).
		First(&status).Error
	return status, wrapNotFound(err)
}

func (s statusGateway) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Status{}, id).Error
}

type favouriteGateway struct{ *Store }

func (s favouriteGateway) Exists(ctx context.Context, accountID, statusID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Favourite{}).
		Where("account_id = ? AND status_id = ?", accountID, statusID).Count(&count).Error
	return count > 0, err
}

func (s favouriteGateway) Create(ctx context.Context, accountID, statusID uint) (models.Favourite, error) {
	fav := models.Favourite{AccountID: accountID, StatusID: statusID}
	if err := s.db.WithContext(ctx).Create(&fav).Error; err != nil {
		return models.Favourite{}, err
	}

	s.bumpCounter(ctx, statusID, "favourites_count", 1)
	return fav, nil
}

func (s favouriteGateway) Delete(ctx context.Context, accountID, statusID uint) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("account_id = ? AND status_id = ?", accountID, statusID).
		Delete(&models.Favourite{})
	if result.Error != nil || result.RowsAffected == 0 {
		return false, result.Error
	}

	s.bumpCounter(ctx, statusID, "favourites_count", -1)
	return true, nil
}

type reactionGateway struct{ *Store }

func matchEmoji(query *gorm.DB, emojiID *uint) *gorm.DB {
	if emojiID != nil {
		return query.Where("custom_emoji_id = ?", *emojiID)
	}
	return query.Where("custom_emoji_id IS NULL")
}

func (s reactionGateway) Exists(ctx context.Context, accountID, statusID uint, name string, emojiID *uint) (bool, error) {
	query := s.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("account_id = ? AND status_id = ? AND name = ?", accountID, statusID, name)

	var count int64
	err := matchEmoji(query, emojiID).Count(&count).Error
	return count > 0, err
}

func (s reactionGateway) Create(ctx context.Context, reaction models.Reaction) (models.Reaction, error) {
	if err := s.db.WithContext(ctx).Create(&reaction).Error; err != nil {
		return models.Reaction{}, err
	}

	s.bumpCounter(ctx, reaction.StatusID, "reactions_count", 1)
	return reaction, nil
}

func (s reactionGateway) DeleteForPair(ctx context.Context, accountID, statusID uint) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("account_id = ? AND status_id = ?", accountID, statusID).
		Delete(&models.Reaction{})
	if result.Error != nil || result.RowsAffected == 0 {
		return false, result.Error
	}

	s.bumpCounter(ctx, statusID, "reactions_count", -1)
	return true, nil
}

func (s reactionGateway) DeleteMatching(ctx context.Context, accountID, statusID uint, name string, emojiID *uint) (bool, error) {
	query := s.db.WithContext(ctx).
		Where("account_id = ? AND status_id = ? AND name = ?", accountID, statusID, name)

	result := matchEmoji(query, emojiID).Delete(&models.Reaction{})
	if result.Error != nil || result.RowsAffected == 0 {
		return false, result.Error
	}

	s.bumpCounter(ctx, statusID, "reactions_count", -1)
	return true, nil
}

func (s reactionGateway) FindByURI(ctx context.Context, accountID uint, uri string) (models.Reaction, error) {
	var reaction models.Reaction
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND uri = ?", accountID, uri).First(&reaction).Error
	return reaction, wrapNotFound(err)
}

func (s reactionGateway) Delete(ctx context.Context, id uint) error {
	var reaction models.Reaction
	if err := s.db.WithContext(ctx).First(&reaction, id).Error; err != nil {
		return wrapNotFound(err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.Reaction{}, id).Error; err != nil {
		return err
	}

	s.bumpCounter(ctx, reaction.StatusID, "reactions_count", -1)
	return nil
}

type emojiGateway struct{ *Store }

func (s emojiGateway) Find(ctx context.Context, shortcode, domain string) (models.CustomEmoji, error) {
	var emoji models.CustomEmoji
	err := s.db.WithContext(ctx).
		Where("shortcode = ? AND domain = ?", shortcode, domain).First(&emoji).Error
	return emoji, wrapNotFound(err)
}

func (s emojiGateway) FindOrCreate(ctx context.Context, shortcode, domain, uri, imageURL string) (models.CustomEmoji, error) {
	emoji, err := s.Find(ctx, shortcode, domain)
	if err == nil {
		return emoji, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.CustomEmoji{}, err
	}

	emoji = models.CustomEmoji{
		Shortcode:      shortcode,
		Domain:         domain,
		URI:            uri,
		ImageRemoteURL: imageURL,
	}
	if err := s.db.WithContext(ctx).Create(&emoji).Error; err != nil {
		// 并发首见同一个表情：撞唯一键就重查，谁先插入用谁的
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.Find(ctx, shortcode, domain)
		}
		return models.CustomEmoji{}, err
	}
	return emoji, nil
}

type followGateway struct{ *Store }

func (s followGateway) FindByURI(ctx context.Context, accountID uint, uri string) (models.Follow, error) {
	var follow models.Follow
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND uri = ?", accountID, uri).First(&follow).Error
	return follow, wrapNotFound(err)
}

func (s followGateway) FindRequestByURI(ctx context.Context, accountID uint, uri string) (models.FollowRequest, error) {
	var request models.FollowRequest
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND uri = ?", accountID, uri).First(&request).Error
	return request, wrapNotFound(err)
}

func (s followGateway) FindByAccounts(ctx context.Context, accountID, targetAccountID uint) (models.Follow, error) {
	var follow models.Follow
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND target_account_id = ?", accountID, targetAccountID).
		First(&follow).Error
	return follow, wrapNotFound(err)
}

func (s followGateway) FindRequestByAccounts(ctx context.Context, accountID, targetAccountID uint) (models.FollowRequest, error) {
	var request models.FollowRequest
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND target_account_id = ?", accountID, targetAccountID).
		First(&request).Error
	return request, wrapNotFound(err)
}

func (s followGateway) FindTowards(ctx context.Context, targetAccountID uint, uri string) (models.Follow, error) {
	var follow models.Follow
	err := s.db.WithContext(ctx).
		Where("target_account_id = ? AND uri = ?", targetAccountID, uri).First(&follow).Error
	return follow, wrapNotFound(err)
}

func (s followGateway) RevokeToRequest(ctx context.Context, follow models.Follow) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Follow{}, follow.ID).Error; err != nil {
			return err
		}
		request := models.FollowRequest{
			AccountID:       follow.AccountID,
			TargetAccountID: follow.TargetAccountID,
			URI:             follow.URI,
		}
		return tx.Create(&request).Error
	})
}

func (s followGateway) DeleteFollow(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Follow{}, id).Error
}

func (s followGateway) DeleteRequest(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.FollowRequest{}, id).Error
}

type blockGateway struct{ *Store }

func (s blockGateway) FindByURI(ctx context.Context, accountID uint, uri string) (models.Block, error) {
	var block models.Block
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND uri = ?", accountID, uri).First(&block).Error
	return block, wrapNotFound(err)
}

func (s blockGateway) FindByAccounts(ctx context.Context, accountID, targetAccountID uint) (models.Block, error) {
	var block models.Block
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND target_account_id = ?", accountID, targetAccountID).
		First(&block).Error
	return block, wrapNotFound(err)
}

func (s blockGateway) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Block{}, id).Error
}

type tombstoneGateway struct{ *Store }

func (s tombstoneGateway) Exists(ctx context.Context, uri string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Tombstone{}).
		Where("uri = ?", uri).Count(&count).Error
	return count > 0, err
}
