package activitypub

// ActivityType 是收件箱认识的活动类型全集。
// 不认识的字符串一律归到 TypeUnknown，绝不会混进 Undo 的兜底猜测链。
type ActivityType int

const (
	TypeUnknown ActivityType = iota
	TypeLike
	TypeUndo
	TypeAnnounce
	TypeAccept
	TypeFollow
	TypeBlock
	TypeEmojiReact
)

var typeNames = map[ActivityType]string{
	TypeUnknown:    "Unknown",
	TypeLike:       "Like",
	TypeUndo:       "Undo",
	TypeAnnounce:   "Announce",
	TypeAccept:     "Accept",
	TypeFollow:     "Follow",
	TypeBlock:      "Block",
	TypeEmojiReact: "EmojiReact",
}

var typeValues = map[string]ActivityType{
	"Like":       TypeLike,
	"Undo":       TypeUndo,
	"Announce":   TypeAnnounce,
	"Accept":     TypeAccept,
	"Follow":     TypeFollow,
	"Block":      TypeBlock,
	"EmojiReact": TypeEmojiReact,
}

func ParseType(s string) ActivityType {
	if t, ok := typeValues[s]; ok {
		return t
	}
	return TypeUnknown
}

func (t ActivityType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}
