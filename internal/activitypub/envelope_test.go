package activitypub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelopeBareObjectRef(t *testing.T) {
	raw := `{"id":"https://remote.example/likes/1","type":"Like","object":"https://local.example/statuses/1","content":":joy:"}`
	env, err := ParseEnvelope(json.RawMessage(raw), 7)
	require.NoError(t, err)

	assert.Equal(t, "https://remote.example/likes/1", env.ID)
	assert.Equal(t, TypeLike, env.Type)
	assert.Equal(t, uint(7), env.ActorID)
	assert.Equal(t, "https://local.example/statuses/1", env.Object.URI())
	assert.Nil(t, env.Object.Embedded)
	assert.Equal(t, ":joy:", env.Content)
	assert.JSONEq(t, raw, string(env.Raw))
}

func TestParseEnvelopeEmbeddedObject(t *testing.T) {
	raw := `{"id":"https://remote.example/undo/1","type":"Undo","object":{"id":"https://remote.example/likes/1","type":"Like","object":"https://local.example/statuses/1","atomUri":"tag:remote.example:1","content":"⭐","_misskey_reaction":"⭐"}}`
	env, err := ParseEnvelope(json.RawMessage(raw), 1)
	require.NoError(t, err)

	require.NotNil(t, env.Object.Embedded)
	obj := env.Object.Embedded
	assert.Equal(t, "Like", obj.Type)
	// value_or_id：内联对象时取它的 id
	assert.Equal(t, "https://remote.example/likes/1", env.Object.URI())
	assert.Equal(t, "https://local.example/statuses/1", obj.Object.URI())
	assert.Equal(t, "tag:remote.example:1", obj.AtomURI)
	assert.Equal(t, "⭐", obj.MisskeyReaction)
}

func TestParseEnvelopeMissingIDOrType(t *testing.T) {
	_, err := ParseEnvelope(json.RawMessage(`{"type":"Like","object":"x"}`), 1)
	assert.Error(t, err)

	_, err = ParseEnvelope(json.RawMessage(`{"id":"https://x/1","object":"x"}`), 1)
	assert.Error(t, err)
}

func TestParseEnvelopeTagArrayOrSingle(t *testing.T) {
	asArray := `{"id":"https://x/1","type":"Like","object":"https://y/1","tag":[{"id":"https://x/emoji/joy","name":":joy:","icon":{"url":"https://x/joy.png"}}]}`
	env, err := ParseEnvelope(json.RawMessage(asArray), 1)
	require.NoError(t, err)
	require.NotNil(t, env.Tag)
	assert.Equal(t, ":joy:", env.Tag.Name)

	asSingle := `{"id":"https://x/1","type":"Like","object":"https://y/1","tag":{"id":"https://x/emoji/joy","name":":joy:","icon":{"url":"https://x/joy.png"}}}`
	env, err = ParseEnvelope(json.RawMessage(asSingle), 1)
	require.NoError(t, err)
	require.NotNil(t, env.Tag)
	assert.Equal(t, "https://x/emoji/joy", env.Tag.ID)

	noTag := `{"id":"https://x/1","type":"Like","object":"https://y/1"}`
	env, err = ParseEnvelope(json.RawMessage(noTag), 1)
	require.NoError(t, err)
	assert.Nil(t, env.Tag)
}

func TestParseTypeClosedSet(t *testing.T) {
	assert.Equal(t, TypeLike, ParseType("Like"))
	assert.Equal(t, TypeUndo, ParseType("Undo"))
	assert.Equal(t, TypeAnnounce, ParseType("Announce"))
	assert.Equal(t, TypeAccept, ParseType("Accept"))
	assert.Equal(t, TypeFollow, ParseType("Follow"))
	assert.Equal(t, TypeBlock, ParseType("Block"))
	assert.Equal(t, TypeEmojiReact, ParseType("EmojiReact"))

	// 不认识的和大小写不对的都归 Unknown
	assert.Equal(t, TypeUnknown, ParseType("Create"))
	assert.Equal(t, TypeUnknown, ParseType("like"))
	assert.Equal(t, TypeUnknown, ParseType(""))
}

func TestShortcode(t *testing.T) {
	assert.Equal(t, "", Shortcode("", ""))
	assert.Equal(t, "joy", Shortcode(":joy:", ""))
	assert.Equal(t, "❤", Shortcode("❤", ""))
	// Misskey 星标等价于收藏
	assert.Equal(t, "", Shortcode("⭐", "⭐"))
	// 只有 _misskey_reaction 是星标才特判，普通内容照常转
	assert.Equal(t, "⭐", Shortcode("⭐", ""))
}

func TestEmojiTagValid(t *testing.T) {
	tag := EmojiTag{ID: "https://x/emoji/joy", Name: ":joy:"}
	tag.Icon.URL = "https://x/joy.png"
	assert.True(t, tag.Valid())

	for _, broken := range []EmojiTag{
		{},
		{ID: "https://x/emoji/joy"},
		{ID: "https://x/emoji/joy", Name: ":joy:"},
	} {
		assert.False(t, broken.Valid())
	}
}

func TestEmojiTagDomain(t *testing.T) {
	tag := EmojiTag{ID: "https://remote.example/emoji/joy"}
	assert.Equal(t, "remote.example", tag.Domain())

	tag.ID = "not a url at all\x7f"
	assert.Equal(t, "", tag.Domain())
}

func TestObjectRefIsZero(t *testing.T) {
	var ref ObjectRef
	assert.True(t, ref.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`"https://x/1"`), &ref))
	assert.False(t, ref.IsZero())
}
