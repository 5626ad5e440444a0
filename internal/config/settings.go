package config

import (
	"strconv"

	"gopkg.in/ini.v1"

	"github.com/san-kum/enginesim/internal/dynamo"
	"github.com/san-kum/enginesim/internal/system"
)

// SolverSection is the INI section holding the solver settings.
const SolverSection = "solver"

// LoadSettings reads solver settings from an INI file; missing keys keep
// their defaults. An empty path returns the defaults.
func LoadSettings(path string) (system.Settings, error) {
	if path == "" {
		return system.DefaultSettings(), nil
	}
	file, err := ini.Load(path)
	if err != nil {
		return system.Settings{}, err
	}
	return settingsFrom(file)
}

func ParseSettings(data []byte) (system.Settings, error) {
	file, err := ini.Load(data)
	if err != nil {
		return system.Settings{}, dynamo.Configf("settings: %v", err)
	}
	return settingsFrom(file)
}

func settingsFrom(file *ini.File) (system.Settings, error) {
	sec := file.Section(SolverSection)
	for _, k := range sec.Keys() {
		if _, ok := knownKeys[k.Name()]; !ok {
			return system.Settings{}, dynamo.Configf("settings: unknown key %q in [%s]", k.Name(), SolverSection)
		}
	}
	// Must* falls back to the default on a malformed value, so parse present
	// keys strictly first.
	for name, kind := range knownKeys {
		if !sec.HasKey(name) {
			continue
		}
		var err error
		switch kind {
		case "float":
			_, err = sec.Key(name).Float64()
		case "int":
			_, err = sec.Key(name).Int()
		}
		if err != nil {
			return system.Settings{}, dynamo.Configf("settings: %s: %v", name, err)
		}
	}

	def := system.DefaultSettings()
	s := system.Settings{
		CrankStep:    sec.Key("crank_step").MustFloat64(def.CrankStep),
		MaxCycles:    sec.Key("max_cycles").MustInt(def.MaxCycles),
		MaxTime:      sec.Key("max_time").MustFloat64(def.MaxTime),
		FallbackStep: sec.Key("fallback_step").MustFloat64(def.FallbackStep),
		MaxSamples:   sec.Key("max_samples").MustInt(def.MaxSamples),
		Integrator:   sec.Key("integrator").MustString(def.Integrator),
	}
	if err := s.Validate(); err != nil {
		return system.Settings{}, err
	}
	return s, nil
}

var knownKeys = map[string]string{
	"crank_step":    "float",
	"max_cycles":    "int",
	"max_time":      "float",
	"fallback_step": "float",
	"max_samples":   "int",
	"integrator":    "string",
}

// SaveSettings writes s to path in the layout LoadSettings reads.
func SaveSettings(path string, s system.Settings) error {
	file := ini.Empty()
	sec, err := file.NewSection(SolverSection)
	if err != nil {
		return err
	}
	sec.Key("crank_step").SetValue(strconv.FormatFloat(s.CrankStep, 'g', -1, 64))
	sec.Key("max_cycles").SetValue(strconv.Itoa(s.MaxCycles))
	sec.Key("max_time").SetValue(strconv.FormatFloat(s.MaxTime, 'g', -1, 64))
	sec.Key("fallback_step").SetValue(strconv.FormatFloat(s.FallbackStep, 'g', -1, 64))
	sec.Key("max_samples").SetValue(strconv.Itoa(s.MaxSamples))
	sec.Key("integrator").SetValue(s.Integrator)
	return file.SaveTo(path)
}
