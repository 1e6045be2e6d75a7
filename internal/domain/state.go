package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names of the shareable scenario state.
const (
	ParamLevel             = "level"
	ParamGreenRoofs        = "gr"
	ParamPermeablePavement = "pp"
	ParamBarriers          = "tb"
	ParamSeed              = "seed"
)

// EncodeState converts a scenario state into query parameters.
func EncodeState(s ScenarioState) url.Values {
	v := url.Values{}
	v.Set(ParamLevel, strconv.Itoa(s.LevelCm))
	v.Set(ParamGreenRoofs, encodeFlag(s.Mitigation.GreenRoofs))
	v.Set(ParamPermeablePavement, encodeFlag(s.Mitigation.PermeablePavement))
	v.Set(ParamBarriers, encodeFlag(s.Mitigation.Barriers))
	v.Set(ParamSeed, strconv.FormatUint(uint64(s.Seed), 10))
	return v
}

// Query returns the encoded query string of s, without the leading '?'.
func (s ScenarioState) Query() string {
	return EncodeState(s).Encode()
}

// DecodeState rebuilds a scenario state from query parameters. Missing or
// unparsable values take their defaults and the level is clamped.
func DecodeState(v url.Values) ScenarioState {
	return DecodeStateWithDefaults(v, DefaultState())
}

// DecodeStateWithDefaults is DecodeState with caller-supplied defaults for
// level and seed. Flags always default to false.
func DecodeStateWithDefaults(v url.Values, def ScenarioState) ScenarioState {
	s := def

	if raw := v.Get(ParamLevel); raw != "" {
		if level, err := strconv.Atoi(raw); err == nil {
			s.LevelCm = level
		}
	}
	s.Mitigation = Mitigation{
		GreenRoofs:        decodeFlag(v.Get(ParamGreenRoofs)),
		PermeablePavement: decodeFlag(v.Get(ParamPermeablePavement)),
		Barriers:          decodeFlag(v.Get(ParamBarriers)),
	}
	if raw := v.Get(ParamSeed); raw != "" {
		if seed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			s.Seed = uint32(seed)
		}
	}

	return s.Clamped()
}

// ParseQuery decodes a raw query string, with or without a leading '?'.
func ParseQuery(query string) (ScenarioState, error) {
	return ParseQueryWithDefaults(query, DefaultState())
}

// ParseQueryWithDefaults is ParseQuery with caller-supplied defaults.
func ParseQueryWithDefaults(query string, def ScenarioState) (ScenarioState, error) {
	v, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return ScenarioState{}, fmt.Errorf("parse scenario query: %w", err)
	}
	return DecodeStateWithDefaults(v, def), nil
}

func encodeFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func decodeFlag(s string) bool {
	return s == "1"
}
