package render

// RunStyle captures the inline run formatting of a paragraph.
type RunStyle struct {
	Bold   bool
	Italic bool
	Size   int
	Color  string
}

const (
	HeadingColor = "1F2937"
	NameColor    = "111111"
	MutedColor   = "4B5563"
	HeadingSize  = 24
	NameSize     = 36
)

// StyleMap centralizes the formatting for key CV elements.
var StyleMap = map[string]RunStyle{
	"name": {
		Bold:  true,
		Size:  NameSize,
		Color: NameColor,
	},
	"contact": {
		Color: MutedColor,
	},
	"sectionHeading": {
		Bold:  true,
		Size:  HeadingSize,
		Color: HeadingColor,
	},
	"subHeading": {
		Bold: true,
	},
	"roleLine": {
		Bold: true,
	},
	"meta": {
		Italic: true,
		Color:  MutedColor,
	},
	"body": {},
}
