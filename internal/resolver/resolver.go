// Package resolver 把远端对象引用（裸 URI 或内联对象）解析成本地实体。
// 查不到一律返回 gateway.ErrNotFound，由调用方决定这算"已经撤销过"还是真不一致；
// 远端抓取失败也收敛成 NotFound，传输层错误不往上冒。
package resolver

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"fedinbox/internal/activitypub"
	"fedinbox/internal/gateway"
	"fedinbox/internal/models"
)

// RemoteFetcher 远端对象抓取能力，由外部投递层提供。允许为 nil（不抓取）
type RemoteFetcher interface {
	FetchStatus(ctx context.Context, uri string) (models.Status, error)
}

type Resolver struct {
	statuses gateway.Statuses
	accounts gateway.Accounts
	fetcher  RemoteFetcher
}

func New(statuses gateway.Statuses, accounts gateway.Accounts, fetcher RemoteFetcher) *Resolver {
	return &Resolver{statuses: statuses, accounts: accounts, fetcher: fetcher}
}

// Status 先查本地，查不到且配了抓取器就走网络，抓取失败仍按 NotFound 处理
func (r *Resolver) Status(ctx context.Context, ref activitypub.ObjectRef) (models.Status, error) {
	uri := ref.URI()
	if uri == "" {
		return models.Status{}, gateway.ErrNotFound
	}

	status, err := r.statuses.FindByURI(ctx, uri)
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, gateway.ErrNotFound) {
		return models.Status{}, err
	}

	if r.fetcher == nil {
		return models.Status{}, gateway.ErrNotFound
	}

	status, err = r.fetcher.FetchStatus(ctx, uri)
	if err != nil {
		zap.L().Debug("remote status fetch failed", zap.String("uri", uri), zap.Error(err))
		return models.Status{}, gateway.ErrNotFound
	}
	return status, nil
}

// LocalStatus 只查本地缓存的记录，撤销场景不该为此去抓远端
func (r *Resolver) LocalStatus(ctx context.Context, ref activitypub.ObjectRef) (models.Status, error) {
	uri := ref.URI()
	if uri == "" {
		return models.Status{}, gateway.ErrNotFound
	}
	return r.statuses.FindByURI(ctx, uri)
}

// Account 账号只查本地（验签层已经保证 actor 在库里）
func (r *Resolver) Account(ctx context.Context, uri string) (models.Account, error) {
	if uri == "" {
		return models.Account{}, gateway.ErrNotFound
	}
	return r.accounts.FindByURI(ctx, uri)
}
