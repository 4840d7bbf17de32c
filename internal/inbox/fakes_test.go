package inbox

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fedinbox/internal/activitypub"
	"fedinbox/internal/gateway"
	"fedinbox/internal/lock"
	"fedinbox/internal/models"
	"fedinbox/internal/resolver"
)

// 内存版网关，结构上跟 gorm 实现一一对应，测试里不碰数据库

type memState struct {
	mu         sync.Mutex
	nextID     uint
	accounts   map[uint]models.Account
	statuses   []models.Status
	favourites []models.Favourite
	reactions  []models.Reaction
	emojis     []models.CustomEmoji
	follows    []models.Follow
	requests   []models.FollowRequest
	blocks     []models.Block
	tombstones map[string]bool
}

func newMemState() *memState {
	return &memState{
		accounts:   map[uint]models.Account{},
		tombstones: map[string]bool{},
	}
}

func (m *memState) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memState) gateways() gateway.Gateways {
	return gateway.Gateways{
		Accounts:   memAccounts{m},
		Statuses:   memStatuses{m},
		Favourites: memFavourites{m},
		Reactions:  memReactions{m},
		Emojis:     memEmojis{m},
		Follows:    memFollows{m},
		Blocks:     memBlocks{m},
		Tombstones: memTombstones{m},
	}
}

func (m *memState) addAccount(account models.Account) models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	account.ID = m.id()
	m.accounts[account.ID] = account
	return account
}

func (m *memState) addStatus(status models.Status) models.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	status.ID = m.id()
	status.Account = m.accounts[status.AccountID]
	m.statuses = append(m.statuses, status)
	return status
}

func (m *memState) addFollow(follow models.Follow) models.Follow {
	m.mu.Lock()
	defer m.mu.Unlock()
	follow.ID = m.id()
	m.follows = append(m.follows, follow)
	return follow
}

func (m *memState) addRequest(request models.FollowRequest) models.FollowRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	request.ID = m.id()
	m.requests = append(m.requests, request)
	return request
}

func (m *memState) addBlock(block models.Block) models.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	block.ID = m.id()
	m.blocks = append(m.blocks, block)
	return block
}

func (m *memState) addReaction(reaction models.Reaction) models.Reaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	reaction.ID = m.id()
	m.reactions = append(m.reactions, reaction)
	return reaction
}

type memAccounts struct{ *memState }

func (m memAccounts) Find(ctx context.Context, id uint) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account, ok := m.accounts[id]; ok {
		return account, nil
	}
	return models.Account{}, gateway.ErrNotFound
}

func (m memAccounts) FindByURI(ctx context.Context, uri string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.URI == uri {
			return account, nil
		}
	}
	return models.Account{}, gateway.ErrNotFound
}

type memStatuses struct{ *memState }

func (m memStatuses) FindByURI(ctx context.Context, uri string) (models.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, status := range m.statuses {
		if status.URI == uri {
			status.Account = m.accounts[status.AccountID]
			return status, nil
		}
	}
	return models.Status{}, gateway.ErrNotFound
}

func (m memStatuses) FindOwnedByURI(ctx context.Context, accountID uint, uri, atomURI string) (models.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, status := range m.statuses {
		if status.AccountID != accountID {
			continue
		}
		if status.URI == uri || (atomURI != "" && status.URI == atomURI) {
			status.Account = m.accounts[status.AccountID]
			return status, nil
		}
	}
	return models.Status{}, gateway.ErrNotFound
}

func (m memStatuses) FindReblogByURI(ctx context.Context, accountID uint, uri string) (models.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, status := range m.statuses {
		if status.AccountID == accountID && status.URI == uri && status.ReblogOfID != nil {
			status.Account = m.accounts[status.AccountID]
			return status, nil
		}
	}
	return models.Status{}, gateway.ErrNotFound
}

func (m memStatuses) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.statuses[:0]
	for _, status := range m.statuses {
		if status.ID != id {
			kept = append(kept, status)
		}
	}
	m.statuses = kept
	return nil
}

type memFavourites struct{ *memState }

func (m memFavourites) Exists(ctx context.Context, accountID, statusID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fav := range m.favourites {
		if fav.AccountID == accountID && fav.StatusID == statusID {
			return true, nil
		}
	}
	return false, nil
}

func (m memFavourites) Create(ctx context.Context, accountID, statusID uint) (models.Favourite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fav := models.Favourite{ID: m.id(), AccountID: accountID, StatusID: statusID}
	m.favourites = append(m.favourites, fav)
	return fav, nil
}

func (m memFavourites) Delete(ctx context.Context, accountID, statusID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.favourites[:0]
	deleted := false
	for _, fav := range m.favourites {
		if fav.AccountID == accountID && fav.StatusID == statusID {
			deleted = true
			continue
		}
		kept = append(kept, fav)
	}
	m.favourites = kept
	return deleted, nil
}

type memReactions struct{ *memState }

func emojiMatches(reaction models.Reaction, emojiID *uint) bool {
	if emojiID == nil {
		return reaction.CustomEmojiID == nil
	}
	return reaction.CustomEmojiID != nil && *reaction.CustomEmojiID == *emojiID
}

func (m memReactions) Exists(ctx context.Context, accountID, statusID uint, name string, emojiID *uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, reaction := range m.reactions {
		if reaction.AccountID == accountID && reaction.StatusID == statusID &&
			reaction.Name == name && emojiMatches(reaction, emojiID) {
			return true, nil
		}
	}
	return false, nil
}

func (m memReactions) Create(ctx context.Context, reaction models.Reaction) (models.Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reaction.ID = m.id()
	m.reactions = append(m.reactions, reaction)
	return reaction, nil
}

func (m memReactions) DeleteForPair(ctx context.Context, accountID, statusID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.reactions[:0]
	deleted := false
	for _, reaction := range m.reactions {
		if reaction.AccountID == accountID && reaction.StatusID == statusID {
			deleted = true
			continue
		}
		kept = append(kept, reaction)
	}
	m.reactions = kept
	return deleted, nil
}

func (m memReactions) DeleteMatching(ctx context.Context, accountID, statusID uint, name string, emojiID *uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.reactions[:0]
	deleted := false
	for _, reaction := range m.reactions {
		if reaction.AccountID == accountID && reaction.StatusID == statusID &&
			reaction.Name == name && emojiMatches(reaction, emojiID) {
			deleted = true
			continue
		}
		kept = append(kept, reaction)
	}
	m.reactions = kept
	return deleted, nil
}

func (m memReactions) FindByURI(ctx context.Context, accountID uint, uri string) (models.Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, reaction := range m.reactions {
		if reaction.AccountID == accountID && reaction.URI == uri {
			return reaction, nil
		}
	}
	return models.Reaction{}, gateway.ErrNotFound
}

func (m memReactions) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.reactions[:0]
	for _, reaction := range m.reactions {
		if reaction.ID != id {
			kept = append(kept, reaction)
		}
	}
	m.reactions = kept
	return nil
}

type memEmojis struct{ *memState }

func (m memEmojis) Find(ctx context.Context, shortcode, domain string) (models.CustomEmoji, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, emoji := range m.emojis {
		if emoji.Shortcode == shortcode && emoji.Domain == domain {
			return emoji, nil
		}
	}
	return models.CustomEmoji{}, gateway.ErrNotFound
}

func (m memEmojis) FindOrCreate(ctx context.Context, shortcode, domain, uri, imageURL string) (models.CustomEmoji, error) {
	if emoji, err := m.Find(ctx, shortcode, domain); err == nil {
		return emoji, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	emoji := models.CustomEmoji{
		ID:             m.id(),
		Shortcode:      shortcode,
		Domain:         domain,
		URI:            uri,
		ImageRemoteURL: imageURL,
	}
	m.emojis = append(m.emojis, emoji)
	return emoji, nil
}

type memFollows struct{ *memState }

func (m memFollows) FindByURI(ctx context.Context, accountID uint, uri string) (models.Follow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, follow := range m.follows {
		if follow.AccountID == accountID && follow.URI == uri {
			return follow, nil
		}
	}
	return models.Follow{}, gateway.ErrNotFound
}

func (m memFollows) FindRequestByURI(ctx context.Context, accountID uint, uri string) (models.FollowRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, request := range m.requests {
		if request.AccountID == accountID && request.URI == uri {
			return request, nil
		}
	}
	return models.FollowRequest{}, gateway.ErrNotFound
}

func (m memFollows) FindByAccounts(ctx context.Context, accountID, targetAccountID uint) (models.Follow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, follow := range m.follows {
		if follow.AccountID == accountID && follow.TargetAccountID == targetAccountID {
			return follow, nil
		}
	}
	return models.Follow{}, gateway.ErrNotFound
}

func (m memFollows) FindRequestByAccounts(ctx context.Context, accountID, targetAccountID uint) (models.FollowRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, request := range m.requests {
		if request.AccountID == accountID && request.TargetAccountID == targetAccountID {
			return request, nil
		}
	}
	return models.FollowRequest{}, gateway.ErrNotFound
}

func (m memFollows) FindTowards(ctx context.Context, targetAccountID uint, uri string) (models.Follow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, follow := range m.follows {
		if follow.TargetAccountID == targetAccountID && follow.URI == uri {
			return follow, nil
		}
	}
	return models.Follow{}, gateway.ErrNotFound
}

func (m memFollows) RevokeToRequest(ctx context.Context, follow models.Follow) error {
	if err := m.DeleteFollow(ctx, follow.ID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, models.FollowRequest{
		ID:              m.id(),
		AccountID:       follow.AccountID,
		TargetAccountID: follow.TargetAccountID,
		URI:             follow.URI,
	})
	return nil
}

func (m memFollows) DeleteFollow(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.follows[:0]
	for _, follow := range m.follows {
		if follow.ID != id {
			kept = append(kept, follow)
		}
	}
	m.follows = kept
	return nil
}

func (m memFollows) DeleteRequest(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.requests[:0]
	for _, request := range m.requests {
		if request.ID != id {
			kept = append(kept, request)
		}
	}
	m.requests = kept
	return nil
}

type memBlocks struct{ *memState }

func (m memBlocks) FindByURI(ctx context.Context, accountID uint, uri string) (models.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, block := range m.blocks {
		if block.AccountID == accountID && block.URI == uri {
			return block, nil
		}
	}
	return models.Block{}, gateway.ErrNotFound
}

func (m memBlocks) FindByAccounts(ctx context.Context, accountID, targetAccountID uint) (models.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, block := range m.blocks {
		if block.AccountID == accountID && block.TargetAccountID == targetAccountID {
			return block, nil
		}
	}
	return models.Block{}, gateway.ErrNotFound
}

func (m memBlocks) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.blocks[:0]
	for _, block := range m.blocks {
		if block.ID != id {
			kept = append(kept, block)
		}
	}
	m.blocks = kept
	return nil
}

type memTombstones struct{ *memState }

func (m memTombstones) Exists(ctx context.Context, uri string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tombstones[uri], nil
}

// 出站端口的记录桩

type notifyCall struct {
	accountID  uint
	kind       string
	recordType string
	recordID   uint
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (f *fakeNotifier) Notify(ctx context.Context, account models.Account, kind, recordType string, recordID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{account.ID, kind, recordType, recordID})
}

type distCall struct {
	originAccountID uint
	inboxes         []string
}

type fakeDistributor struct {
	mu    sync.Mutex
	calls []distCall
}

func (f *fakeDistributor) Redistribute(ctx context.Context, raw json.RawMessage, originAccountID uint, inboxes []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, distCall{originAccountID, inboxes})
}

type fakeDeleter struct {
	mu   sync.Mutex
	uris []string
}

func (f *fakeDeleter) DeleteLater(ctx context.Context, uri string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uris = append(f.uris, uri)
}

type mirrorCall struct {
	shortcode string
	domain    string
	imageURL  string
}

type fakeIcons struct {
	mu    sync.Mutex
	calls []mirrorCall
}

func (f *fakeIcons) Mirror(ctx context.Context, shortcode, domain, imageURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, mirrorCall{shortcode, domain, imageURL})
}

type testEnv struct {
	state    *memState
	notifier *fakeNotifier
	dist     *fakeDistributor
	deleter  *fakeDeleter
	icons    *fakeIcons
	locks    *lock.MemoryManager
	p        *Processor
}

func newTestEnv() *testEnv {
	state := newMemState()
	gw := state.gateways()
	env := &testEnv{
		state:    state,
		notifier: &fakeNotifier{},
		dist:     &fakeDistributor{},
		deleter:  &fakeDeleter{},
		icons:    &fakeIcons{},
		locks:    lock.NewMemoryManager(),
	}
	res := resolver.New(gw.Statuses, gw.Accounts, nil)
	env.p = NewProcessor(gw, res, env.locks, env.notifier, env.dist, env.deleter, env.icons, time.Minute)
	return env
}

func mustEnvelope(t *testing.T, raw string, actorID uint) *activitypub.Envelope {
	t.Helper()
	env, err := activitypub.ParseEnvelope(json.RawMessage(raw), actorID)
	require.NoError(t, err)
	return env
}
