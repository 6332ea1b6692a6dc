package types

// Tag is one of the eight sorting buckets. The zero value means untagged.
type Tag int

const (
	NoTag Tag = iota
	Tag1
	Tag2
	Tag3
	Tag4
	Tag5
	Tag6
	Tag7
	Tag8
)

// TagCount is the number of usable tags.
const TagCount = 8

// AllTags lists the usable tags in display order.
func AllTags() []Tag {
	return []Tag{Tag1, Tag2, Tag3, Tag4, Tag5, Tag6, Tag7, Tag8}
}

// Valid reports whether t is one of Tag1..Tag8.
func (t Tag) Valid() bool {
	return t >= Tag1 && t <= Tag8
}
