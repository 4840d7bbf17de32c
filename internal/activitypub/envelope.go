package activitypub

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
)

// Envelope 是已经过上游验签、actor 已解析成本地账号的入站活动
type Envelope struct {
	ID              string
	Type            ActivityType
	ActorID         uint
	Object          ObjectRef
	Content         string
	MisskeyReaction string
	Tag             *EmojiTag

	// 原始载荷，转发时原样带走
	Raw json.RawMessage
}

// ObjectRef 兼容两种写法：裸 URI 字符串，或内联的对象
type ObjectRef struct {
	Ref      string
	Embedded *EmbeddedObject
}

func (r *ObjectRef) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.Ref)
	}
	var obj EmbeddedObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.Embedded = &obj
	return nil
}

// URI 即 value_or_id：裸引用直接用，内联对象取它的 id
func (r ObjectRef) URI() string {
	if r.Embedded != nil {
		return r.Embedded.ID
	}
	return r.Ref
}

func (r ObjectRef) IsZero() bool {
	return r.Ref == "" && r.Embedded == nil
}

type EmbeddedObject struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Object          ObjectRef       `json:"object"`
	AtomURI         string          `json:"atomUri"`
	Content         string          `json:"content"`
	MisskeyReaction string          `json:"_misskey_reaction"`
	RawTag          json.RawMessage `json:"tag"`
}

func (o *EmbeddedObject) EmojiTag() *EmojiTag {
	return firstEmojiTag(o.RawTag)
}

// EmojiTag 自定义表情标签。三个字段都非空才算合法
type EmojiTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon struct {
		URL string `json:"url"`
	} `json:"icon"`
}

func (t EmojiTag) Valid() bool {
	return t.ID != "" && t.Name != "" && t.Icon.URL != ""
}

// Domain 从标签 id 的 authority 部分取表情所属域名
func (t EmojiTag) Domain() string {
	u, err := url.Parse(t.ID)
	if err != nil {
		return ""
	}
	return u.Host
}

const misskeyStar = "⭐"

// Shortcode 从活动内容推导表情短码。空串表示这是普通收藏而不是表情回应。
// Misskey 的星标等价于收藏，特判掉。
func Shortcode(content, misskeyReaction string) string {
	if misskeyReaction == misskeyStar {
		return ""
	}
	return strings.ReplaceAll(content, ":", "")
}

type wireActivity struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Object          json.RawMessage `json:"object"`
	Content         string          `json:"content"`
	MisskeyReaction string          `json:"_misskey_reaction"`
	Tag             json.RawMessage `json:"tag"`
}

// ParseEnvelope 解出入站活动。actorID 由上游验签层解析好传入
func ParseEnvelope(raw json.RawMessage, actorID uint) (*Envelope, error) {
	var w wireActivity
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	if w.ID == "" || w.Type == "" {
		return nil, errors.New("activity missing id or type")
	}

	env := &Envelope{
		ID:              w.ID,
		Type:            ParseType(w.Type),
		ActorID:         actorID,
		Content:         w.Content,
		MisskeyReaction: w.MisskeyReaction,
		Raw:             raw,
	}

	if len(w.Object) > 0 {
		if err := json.Unmarshal(w.Object, &env.Object); err != nil {
			return nil, err
		}
	}

	env.Tag = firstEmojiTag(w.Tag)
	return env, nil
}

// 有些实现把 tag 写成单个对象而不是数组，两种都接受，只看第一个
func firstEmojiTag(raw json.RawMessage) *EmojiTag {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '[' {
		var tags []EmojiTag
		if err := json.Unmarshal(raw, &tags); err != nil || len(tags) == 0 {
			return nil
		}
		return &tags[0]
	}
	var tag EmojiTag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil
	}
	return &tag
}
