package reward

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EntryConfig is the on-disk form of a prize table row.
type EntryConfig struct {
	Label  string `mapstructure:"label"`
	Value  string `mapstructure:"value"`
	Weight int64  `mapstructure:"weight"`
}

// ParseTable converts configured rows into a validated Table.
func ParseTable(rows []EntryConfig) (*Table, error) {
	entries := make([]PrizeEntry, 0, len(rows))
	for i, row := range rows {
		value, err := decimal.NewFromString(row.Value)
		if err != nil {
			return nil, fmt.Errorf("prize table row %d (%s): invalid value %q: %w", i, row.Label, row.Value, err)
		}
		entries = append(entries, PrizeEntry{
			Label:  row.Label,
			Value:  value,
			Weight: row.Weight,
		})
	}
	return NewTable(entries)
}

// LoadTable loads a prize table from a standalone YAML file.
//
// Expected shape:
//
//	prize_table:
//	  - label: "30"
//	    value: "30"
//	    weight: 30
func LoadTable(configPath string) (*Table, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read prize table config: %w", err)
	}

	var out struct {
		PrizeTable []EntryConfig `mapstructure:"prize_table"`
	}
	if err := v.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prize table config: %w", err)
	}

	return ParseTable(out.PrizeTable)
}
