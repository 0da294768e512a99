package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"

	"gopkg.in/yaml.v3"
)

// Sections lists the file base names LoadAppConfig reads from a config dir.
var Sections = []string{"server", "log", "webrtc", "quality", "broadcast", "turn"}

func LoadAppConfig(dir string) (*AppConfig, error) {
	cfg := DefaultAppConfig()

	var rawServer RawServerConfig
	if err := loadFileInto(dir, "server", &rawServer); err != nil {
		return nil, err
	}
	mergeInto(&cfg.Server, rawServer.ToDomain())

	var rawLog RawLogConfig
	if err := loadFileInto(dir, "log", &rawLog); err != nil {
		return nil, err
	}
	parsedLog, err := rawLog.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("log config: %w", err)
	}
	mergeInto(&cfg.Log, parsedLog)

	var rawWebRTC RawWebRTCConfig
	if err := loadFileInto(dir, "webrtc", &rawWebRTC); err != nil {
		return nil, err
	}
	parsedWebRTC, err := rawWebRTC.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("webrtc config: %w", err)
	}
	mergeInto(&cfg.WebRTC, parsedWebRTC)

	var rawQuality RawQualityConfig
	if err := loadFileInto(dir, "quality", &rawQuality); err != nil {
		return nil, err
	}
	mergeInto(&cfg.Quality, rawQuality.ToDomain())

	var rawBroadcast RawBroadcastConfig
	if err := loadFileInto(dir, "broadcast", &rawBroadcast); err != nil {
		return nil, err
	}
	mergeInto(&cfg.Broadcast, rawBroadcast.ToDomain())

	var rawTurn RawTurnConfig
	if err := loadFileInto(dir, "turn", &rawTurn); err != nil {
		return nil, err
	}
	mergeInto(&cfg.Turn, rawTurn.ToDomain())

	return &cfg, nil
}

func loadFileInto(dir, filenameBase string, target interface{}) error {
	basePath := filepath.Join(dir, filenameBase)

	if f, err := os.Open(basePath + ".yaml"); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(target); err != nil {
			if errors.Is(err, io.EOF) {
				slog.Warn("config file is empty, using defaults", "file", basePath+".yaml")
				return nil
			}
			return fmt.Errorf("can not decode %s.yaml: %w", basePath, err)
		}
		return nil
	}

	if f, err := os.Open(basePath + ".json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(target); err != nil {
			if errors.Is(err, io.EOF) {
				slog.Warn("config file is empty, using defaults", "file", basePath+".json")
				return nil
			}
			return fmt.Errorf("can not decode %s.json: %w", basePath, err)
		}
		return nil
	}

	return nil
}

func mergeInto(dst, src interface{}) {
	dstVal := reflect.ValueOf(dst).Elem()
	srcVal := reflect.ValueOf(src)

	mergeValues(dstVal, srcVal)
}

func mergeValues(dstVal, srcVal reflect.Value) {
	for i := 0; i < srcVal.NumField(); i++ {
		srcField := srcVal.Field(i)
		dstField := dstVal.Field(i)

		switch srcField.Kind() {
		case reflect.Struct:
			mergeValues(dstField, srcField)
		case reflect.Slice:
			if !srcField.IsNil() && srcField.Len() > 0 {
				dstField.Set(srcField)
			}
		case reflect.Pointer:
			if !srcField.IsNil() {
				dstField.Set(srcField)
			}
		default:
			if !srcField.IsZero() {
				dstField.Set(srcField)
			}
		}
	}
}
