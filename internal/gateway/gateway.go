// Package gateway 把领域实体的存取收敛成一组能力接口，
// 处理核心只面向接口，不碰 SQL。找不到记录返回 ErrNotFound，不算错误。
package gateway

import (
	"context"
	"errors"

	"fedinbox/internal/models"
)

var ErrNotFound = errors.New("record not found")

type Accounts interface {
	Find(ctx context.Context, id uint) (models.Account, error)
	FindByURI(ctx context.Context, uri string) (models.Account, error)
}

type Statuses interface {
	FindByURI(ctx context.Context, uri string) (models.Status, error)
	// FindOwnedByURI 按 (作者, uri) 查，undo 场景下查不到会再试 atomUri
	FindOwnedByURI(ctx context.Context, accountID uint, uri, atomURI string) (models.Status, error)
	// FindReblogByURI 只匹配转发类状态
	FindReblogByURI(ctx context.Context, accountID uint, uri string) (models.Status, error)
	Delete(ctx context.Context, id uint) error
}

type Favourites interface {
	Exists(ctx context.Context, accountID, statusID uint) (bool, error)
	Create(ctx context.Context, accountID, statusID uint) (models.Favourite, error)
	// Delete 返回是否真的删掉了记录
	Delete(ctx context.Context, accountID, statusID uint) (bool, error)
}

type Reactions interface {
	Exists(ctx context.Context, accountID, statusID uint, name string, emojiID *uint) (bool, error)
	Create(ctx context.Context, reaction models.Reaction) (models.Reaction, error)
	// DeleteForPair 删掉该账号在该状态上的任何旧回应（换表情前置步骤）
	DeleteForPair(ctx context.Context, accountID, statusID uint) (bool, error)
	// DeleteMatching 删掉完全匹配 (name, emoji) 的回应
	DeleteMatching(ctx context.Context, accountID, statusID uint, name string, emojiID *uint) (bool, error)
	FindByURI(ctx context.Context, accountID uint, uri string) (models.Reaction, error)
	Delete(ctx context.Context, id uint) error
}

type Emojis interface {
	Find(ctx context.Context, shortcode, domain string) (models.CustomEmoji, error)
	// FindOrCreate 并发首见同一个 (shortcode, domain) 必须安全：
	// 靠唯一约束兜底，撞了重查，不依赖资源锁
	FindOrCreate(ctx context.Context, shortcode, domain, uri, imageURL string) (models.CustomEmoji, error)
}

type Follows interface {
	FindByURI(ctx context.Context, accountID uint, uri string) (models.Follow, error)
	FindRequestByURI(ctx context.Context, accountID uint, uri string) (models.FollowRequest, error)
	FindByAccounts(ctx context.Context, accountID, targetAccountID uint) (models.Follow, error)
	FindRequestByAccounts(ctx context.Context, accountID, targetAccountID uint) (models.FollowRequest, error)
	// FindTowards 按关注方向的接收者查（Undo Accept 用）
	FindTowards(ctx context.Context, targetAccountID uint, uri string) (models.Follow, error)
	// RevokeToRequest 把已接受的关注退回待确认状态
	RevokeToRequest(ctx context.Context, follow models.Follow) error
	DeleteFollow(ctx context.Context, id uint) error
	DeleteRequest(ctx context.Context, id uint) error
}

type Blocks interface {
	FindByURI(ctx context.Context, accountID uint, uri string) (models.Block, error)
	FindByAccounts(ctx context.Context, accountID, targetAccountID uint) (models.Block, error)
	Delete(ctx context.Context, id uint) error
}

type Tombstones interface {
	Exists(ctx context.Context, uri string) (bool, error)
}

// Gateways 打包所有能力，方便整体注入
type Gateways struct {
	Accounts   Accounts
	Statuses   Statuses
	Favourites Favourites
	Reactions  Reactions
	Emojis     Emojis
	Follows    Follows
	Blocks     Blocks
	Tombstones Tombstones
}
