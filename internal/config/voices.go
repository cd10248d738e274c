package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// VoiceManifest maps short voice identifiers to on-disk style assets.
type VoiceManifest struct {
	Default string            `yaml:"default"`
	Voices  map[string]string `yaml:"voices"`
}

// builtinVoices is the stock voice set shipped with the engine assets.
var builtinVoices = []string{"F1", "F2", "M1", "M2"}

// LoadVoiceManifest reads a YAML voice manifest. When path is empty it falls
// back to the built-in voice layout under assetDir.
func LoadVoiceManifest(path, assetDir, defaultVoice string) (VoiceManifest, error) {
	if strings.TrimSpace(path) == "" {
		return builtinManifest(assetDir, defaultVoice), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return VoiceManifest{}, fmt.Errorf("read voice manifest: %w", err)
	}
	var m VoiceManifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return VoiceManifest{}, fmt.Errorf("parse voice manifest %s: %w", path, err)
	}
	if len(m.Voices) == 0 {
		return VoiceManifest{}, fmt.Errorf("voice manifest %s declares no voices", path)
	}
	if strings.TrimSpace(m.Default) == "" {
		m.Default = defaultVoice
	}
	if _, ok := m.Voices[m.Default]; !ok {
		return VoiceManifest{}, fmt.Errorf("voice manifest %s: default voice %q is not declared", path, m.Default)
	}
	return m, nil
}

// IDs returns the declared voice identifiers in sorted order.
func (m VoiceManifest) IDs() []string {
	ids := make([]string, 0, len(m.Voices))
	for id := range m.Voices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func builtinManifest(assetDir, defaultVoice string) VoiceManifest {
	voices := make(map[string]string, len(builtinVoices))
	for _, id := range builtinVoices {
		voices[id] = filepath.Join(assetDir, id+".json")
	}
	if strings.TrimSpace(defaultVoice) == "" {
		defaultVoice = "F1"
	}
	if _, ok := voices[defaultVoice]; !ok {
		voices[defaultVoice] = filepath.Join(assetDir, defaultVoice+".json")
	}
	return VoiceManifest{Default: defaultVoice, Voices: voices}
}
