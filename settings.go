package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"dscheirer.com/shifttimer/sevenseg"
	"github.com/buger/jsonparser"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "/etc/default/shifttimer/shifttimer.conf"

// setting keys
const (
	sBridge          = "bridge"
	sHubIndex        = "hubIndex"
	sI2CAddress      = "i2cAddress"
	sI2CClockRate    = "i2cClockRate"
	sI2CPreset       = "i2cPreset"
	sI2CSimulated    = "i2cSimulated"
	sSegmentPins     = "segmentPins"
	sPollTime        = "pollTime"
	sHoldTime        = "holdTime"
	sInvalidHoldTime = "invalidHoldTime"
	sBlinkTime       = "blinkTime"
	sBlinkCount      = "blinkCount"
	sDebug           = "debugDump"
	sLogFile         = "logFile"
	sLogMaxSize      = "logMaxSizeMB"
	sLogMaxBackups   = "logMaxBackups"
	sLogMaxAge       = "logMaxAgeDays"
)

// keep settings generic, the default value fixes the type of each key
type configSettings struct {
	settings map[string]interface{}
}

func defaultSettings() *configSettings {
	s := make(map[string]interface{})

	s[sBridge] = "sim"
	s[sHubIndex] = 0
	s[sI2CAddress] = byte(0x27)
	s[sI2CClockRate] = 0
	s[sI2CPreset] = 1
	// empty means the wiring default for the bridge
	s[sSegmentPins] = ""
	s[sPollTime] = 20 * time.Millisecond
	s[sHoldTime] = 1500 * time.Millisecond
	s[sInvalidHoldTime] = 2 * time.Second
	s[sBlinkTime] = 200 * time.Millisecond
	s[sBlinkCount] = 6
	s[sDebug] = false
	s[sLogFile] = ""
	s[sLogMaxSize] = 1
	s[sLogMaxBackups] = 3
	s[sLogMaxAge] = 28

	on := true
	if runtime.GOARCH == "arm" {
		on = false
	}
	s[sI2CSimulated] = on

	return &configSettings{settings: s}
}

// loadSettings reads path over the defaults. A missing file is only an
// error when the caller asked for it by name.
func loadSettings(path string, explicit bool) (*configSettings, error) {
	s := defaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			log.Printf("No config at '%s', using defaults", path)
			return s, nil
		}
		return nil, fmt.Errorf("could not load config file '%s': %w", path, err)
	}
	log.Printf("Reading configuration from '%s'", path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = s.fromYAML(data)
	default:
		err = s.fromJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *configSettings) fromJSON(data []byte) error {
	return jsonparser.ObjectEach(data, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
		if _, ok := s.settings[string(key)]; !ok {
			log.Printf("Skipping unknown key %s", key)
			return nil
		}
		var v interface{}
		var err error
		switch dataType {
		case jsonparser.String:
			v, err = jsonparser.ParseString(value)
		case jsonparser.Number:
			var n int64
			if n, err = jsonparser.ParseInt(value); err != nil {
				v, err = jsonparser.ParseFloat(value)
			} else {
				v = n
			}
		case jsonparser.Boolean:
			v, err = jsonparser.ParseBoolean(value)
		case jsonparser.Array:
			var items []interface{}
			_, err = jsonparser.ArrayEach(value, func(item []byte, t jsonparser.ValueType, _ int, _ error) {
				items = append(items, string(item))
			})
			v = items
		default:
			return fmt.Errorf("%s: unsupported value %s", key, dataType)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return s.set(string(key), v)
	})
}

func (s *configSettings) fromYAML(data []byte) error {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.set(k, raw[k]); err != nil {
			return err
		}
	}
	return nil
}

// set converts v to the type of the key's default.
func (s *configSettings) set(key string, v interface{}) error {
	initVal, ok := s.settings[key]
	if !ok {
		log.Printf("Skipping unknown key %s", key)
		return nil
	}

	switch initVal.(type) {
	case byte:
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if n < 0 || n > 0xFF {
			return fmt.Errorf("%s: %d out of range", key, n)
		}
		s.settings[key] = byte(n)
	case int:
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.settings[key] = n
	case bool:
		switch b := v.(type) {
		case bool:
			s.settings[key] = b
		case string:
			pb, err := strconv.ParseBool(b)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			s.settings[key] = pb
		default:
			return fmt.Errorf("%s: bad type %T", key, v)
		}
	case time.Duration:
		str, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: want a duration string, got %T", key, v)
		}
		d, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.settings[key] = d
	case string:
		switch sv := v.(type) {
		case string:
			s.settings[key] = sv
		case []interface{}:
			parts := make([]string, len(sv))
			for i, p := range sv {
				parts[i] = fmt.Sprint(p)
			}
			s.settings[key] = strings.Join(parts, ",")
		default:
			s.settings[key] = fmt.Sprint(v)
		}
	default:
		return fmt.Errorf("bad type: %T", initVal)
	}
	return nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
		return int(n), nil
	case string:
		// allows "0x27"
		i, err := strconv.ParseInt(n, 0, 64)
		return int(i), err
	}
	return 0, fmt.Errorf("bad type %T", v)
}

func (s *configSettings) GetString(key string) string {
	switch v := s.settings[key].(type) {
	case string:
		return v
	default:
		return ""
	}
}

func (s *configSettings) GetBool(key string) bool {
	switch v := s.settings[key].(type) {
	case bool:
		return v
	default:
		return false
	}
}

func (s *configSettings) GetDuration(key string) time.Duration {
	switch v := s.settings[key].(type) {
	case time.Duration:
		return v
	default:
		return -1
	}
}

func (s *configSettings) GetByte(key string) byte {
	switch v := s.settings[key].(type) {
	case byte:
		return v
	case int:
		return byte(v)
	default:
		return 0
	}
}

func (s *configSettings) GetInt(key string) int {
	switch v := s.settings[key].(type) {
	case int:
		return v
	default:
		return 0
	}
}

// BCM lines for segments A..G on a Pi header.
var rpiPins = sevenseg.Pins{17, 27, 22, 5, 6, 13, 19}

// GetPins parses segmentPins, seven comma separated GPIO numbers A..G.
// Unset, it is the usual wiring for the configured bridge.
func (s *configSettings) GetPins() (sevenseg.Pins, error) {
	var pins sevenseg.Pins
	list := strings.TrimSpace(s.GetString(sSegmentPins))
	if list == "" {
		if s.GetString(sBridge) == bridgeRPi {
			return rpiPins, nil
		}
		return sevenseg.DefaultPins(), nil
	}
	parts := strings.Split(list, ",")
	if len(parts) != len(pins) {
		return pins, fmt.Errorf("%s: want %d pins, got %d", sSegmentPins, len(pins), len(parts))
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return pins, fmt.Errorf("%s: segment %c: %w", sSegmentPins, 'A'+i, err)
		}
		pins[i] = n
	}
	return pins, nil
}

func (s *configSettings) Dump() {
	keys := make([]string, 0, len(s.settings))
	for k := range s.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := s.settings[k]
		log.Printf("%s : %T: %v\n", k, v, v)
	}
}
