// Package ui renders flow outcomes into named display regions.
package ui

// Style tints a rendered line.
type Style string

// Line styles. Info lines carry no style.
const (
	StyleInfo    Style = ""
	StyleSuccess Style = "success"
	StyleError   Style = "error"
)

// Line is one rendered row of a region.
type Line struct {
	Text  string `json:"text"`
	Style Style  `json:"style,omitempty"`
}

// Success returns a success-styled line.
func Success(text string) Line { return Line{Text: text, Style: StyleSuccess} }

// Error returns an error-styled line.
func Error(text string) Line { return Line{Text: text, Style: StyleError} }

// Info returns an unstyled line.
func Info(text string) Line { return Line{Text: text} }

// Region names a display area of the kiosk page.
type Region string

// Display regions
const (
	RegionRegisterStatus  Region = "register-status"
	RegionRecognizeStatus Region = "recognize-status"
	RegionPeopleList      Region = "people-list"
	RegionLogList         Region = "log-list"
)

// Regions returns every display region in page order.
func Regions() []Region {
	return []Region{RegionRegisterStatus, RegionRecognizeStatus, RegionPeopleList, RegionLogList}
}

// Renderer is the status renderer every flow reports through.
type Renderer interface {
	// Render replaces the contents of region with lines. No lines leaves it empty.
	Render(region Region, lines ...Line)
	// Clear empties region.
	Clear(region Region)
}

// Multi fans every call out to each renderer in order.
type Multi []Renderer

func (m Multi) Render(region Region, lines ...Line) {
	for _, r := range m {
		r.Render(region, lines...)
	}
}

func (m Multi) Clear(region Region) {
	for _, r := range m {
		r.Clear(region)
	}
}
