package xarray

import (
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Options are process-wide settings that change library behaviour
type Options struct {
	// DisplayWidth is the maximum width, in characters, of the text
	// representation of arrays, indexes and mappings
	DisplayWidth int `yaml:"display_width"`
	// EnableCFTimeIndex turns object indexes of calendar dates into a
	// CFTimeIndex
	EnableCFTimeIndex bool `yaml:"enable_cftimeindex"`
}

// DefaultOptions are the settings in effect at startup
func DefaultOptions() Options {
	return Options{
		DisplayWidth:      80,
		EnableCFTimeIndex: true,
	}
}

var (
	optionsLk sync.RWMutex
	options   = DefaultOptions()
)

// room for a truncation marker and at least one character
const minDisplayWidth = 4

// Validate checks option values
func (o Options) Validate() error {
	if o.DisplayWidth < minDisplayWidth {
		return fmt.Errorf("%w: display_width must be at least %d, got %d", ErrInvalidArgument, minDisplayWidth, o.DisplayWidth)
	}
	return nil
}

// GetOptions returns a copy of the current options
func GetOptions() Options {
	optionsLk.RLock()
	defer optionsLk.RUnlock()
	return options
}

// SetOptions applies edit to a copy of the current options and installs the
// result if it validates. The returned func restores the previous options,
// so callers can scope a change with defer:
//
//	restore, err := SetOptions(func(o *Options) { o.EnableCFTimeIndex = false })
//	if err != nil { ... }
//	defer restore()
func SetOptions(edit func(o *Options)) (restore func(), err error) {
	optionsLk.Lock()
	defer optionsLk.Unlock()

	prev := options
	next := options
	edit(&next)
	if err := next.Validate(); err != nil {
		return func() {}, err
	}
	options = next
	log.WithField("options", fmt.Sprintf("%+v", next)).Debug("options updated")

	return func() {
		optionsLk.Lock()
		options = prev
		optionsLk.Unlock()
	}, nil
}

// LoadOptions reads YAML options from r and applies them on top of the
// current options. Fields missing from the document keep their values
func LoadOptions(r io.Reader) (restore func(), err error) {
	next := GetOptions()
	if err := yaml.NewDecoder(r).Decode(&next); err != nil && err != io.EOF {
		return func() {}, fmt.Errorf("reading options: %w", err)
	}
	return SetOptions(func(o *Options) { *o = next })
}

// truncateRepr shortens s to the configured display width. Truncated text
// ends in "..."
func truncateRepr(s string) string {
	width := GetOptions().DisplayWidth
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	return string([]rune(s)[:width-3]) + "..."
}
