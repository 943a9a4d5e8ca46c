package sanitize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Arthur2500/ConvertZ/internal/config"
)

// Params is a policy-conforming conversion parameter set, shared by every
// file in a request.
type Params struct {
	Format     string
	Resolution int // percentage of original dimensions
	FPS        int
	Bitrate    int // kbps
}

// ScaleFactor is applied uniformly to width and height, preserving aspect
// ratio.
func (p Params) ScaleFactor() float64 {
	return float64(p.Resolution) / 100
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks raw form values against the fixed policy ranges. It is
// pure: no side effects, and a single invalid field rejects the whole
// request before any work is done.
func Validate(format, resolution, fps, bitrate string) (Params, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if !config.Contains(config.AllowedFormats, format) {
		return Params{}, &ValidationError{"format", fmt.Sprintf("must be one of %s", strings.Join(config.AllowedFormats, ", "))}
	}

	res, err := strconv.Atoi(strings.TrimSpace(resolution))
	if err != nil {
		return Params{}, &ValidationError{"resolution", "must be an integer percentage"}
	}
	if res < config.ResolutionMin || res > config.ResolutionMax {
		return Params{}, &ValidationError{"resolution", fmt.Sprintf("must be between %d and %d", config.ResolutionMin, config.ResolutionMax)}
	}
	if res%config.ResolutionStep != 0 {
		return Params{}, &ValidationError{"resolution", fmt.Sprintf("must be a multiple of %d", config.ResolutionStep)}
	}

	frames, err := strconv.Atoi(strings.TrimSpace(fps))
	if err != nil {
		return Params{}, &ValidationError{"fps", "must be an integer"}
	}
	if frames < config.FpsMin || frames > config.FpsMax {
		return Params{}, &ValidationError{"fps", fmt.Sprintf("must be between %d and %d", config.FpsMin, config.FpsMax)}
	}

	rate, err := strconv.Atoi(strings.TrimSpace(bitrate))
	if err != nil {
		return Params{}, &ValidationError{"bitrate", "must be an integer in kbps"}
	}
	if rate < config.BitrateMin || rate > config.BitrateMax {
		return Params{}, &ValidationError{"bitrate", fmt.Sprintf("must be between %d and %d kbps", config.BitrateMin, config.BitrateMax)}
	}
	if rate%config.BitrateStep != 0 {
		return Params{}, &ValidationError{"bitrate", fmt.Sprintf("must be a multiple of %d", config.BitrateStep)}
	}

	return Params{Format: format, Resolution: res, FPS: frames, Bitrate: rate}, nil
}
