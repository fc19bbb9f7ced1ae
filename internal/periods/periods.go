package periods

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/streaks/internal/streak"
)

//go:embed schema.cue
var schemaSource string

// Error codes for input loading.
const (
	ErrCodeRead   = "E201" // File could not be read
	ErrCodeParse  = "E202" // Not valid JSON or YAML
	ErrCodeSchema = "E203" // Document does not match the input schema
	ErrCodeEmpty  = "E204" // Empty document
)

// LoadError describes why an input could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // schema position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLoadError reports whether err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Input is a decoded periods document.
type Input struct {
	Periods [][]streak.Item

	// StartPeriod is 0 when the document does not set one.
	StartPeriod int
}

// Options controls decoding.
type Options struct {
	// NFC normalizes every item to Unicode NFC.
	NFC bool
}

// LoadFile reads and decodes the periods document at path.
func LoadFile(path string, opts Options) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: err.Error()}
	}
	return Parse(data, opts)
}

// Parse decodes a JSON or YAML periods document.
func Parse(data []byte, opts Options) (*Input, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: err.Error()}
	}
	if doc == nil {
		return nil, &LoadError{Code: ErrCodeEmpty, Message: "document is empty"}
	}

	if err := validate(doc); err != nil {
		return nil, err
	}

	in := &Input{}
	var sets []any
	switch d := doc.(type) {
	case []any:
		sets = d
	case map[string]any:
		raw, ok := d["periods"]
		if !ok {
			return nil, &LoadError{Code: ErrCodeSchema, Message: "periods: field is required"}
		}
		sets, _ = raw.([]any)
		if sp, ok := d["start_period"]; ok {
			n, err := toInt(sp)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeSchema, Message: "start_period: " + err.Error()}
			}
			in.StartPeriod = n
		}
	}

	in.Periods = make([][]streak.Item, len(sets))
	for i, raw := range sets {
		list, _ := raw.([]any)
		set := make([]streak.Item, 0, len(list))
		for j, v := range list {
			item, err := toItem(v)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeSchema, Message: fmt.Sprintf("periods[%d][%d]: %v", i, j, err)}
			}
			if opts.NFC {
				item = norm.NFC.String(item)
			}
			set = append(set, streak.Item(item))
		}
		in.Periods[i] = set
	}
	return in, nil
}

// validate checks doc against the embedded schema.
func validate(doc any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile input schema: %w", err)
	}

	v := ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return formatCUEError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Input")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError converts the first CUE error into a *LoadError.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCodeSchema, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: ErrCodeSchema, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

func toItem(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	default:
		return "", fmt.Errorf("item must be a string or integer, got %T", v)
	}
}

func toInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	default:
		return 0, fmt.Errorf("must be an integer, got %T", v)
	}
}
