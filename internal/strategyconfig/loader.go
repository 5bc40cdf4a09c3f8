package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/algosim/internal/metrics"
)

// Load reads a YAML run file and returns Config with raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, data, nil
}

// Parse decodes and validates YAML bytes.
// Keys left out of the file keep the defaults below.
func Parse(data []byte) (*Config, error) {
	cfg := Config{
		Data:     Data{Interval: "1d"},
		Backtest: Backtest{RiskFreeRate: metrics.DefaultRiskFreeRate},
		Report:   Report{Dir: "reports"},
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Data.Interval == "" {
		cfg.Data.Interval = "1d"
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// RunSnapshot records which configuration produced a report
type RunSnapshot struct {
	ConfigHash string    `yaml:"config_hash" json:"config_hash"`
	StrategyID string    `yaml:"strategy_id" json:"strategy_id"`
	Version    string    `yaml:"version" json:"version"`
	CreatedAt  time.Time `yaml:"created_at" json:"created_at"`
}

// NewRunSnapshot hashes cfg for a report
func NewRunSnapshot(cfg *Config) (*RunSnapshot, error) {
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}

	return &RunSnapshot{
		ConfigHash: hash,
		StrategyID: cfg.Meta.StrategyID,
		Version:    cfg.Meta.Version,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
