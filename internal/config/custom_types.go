// Package config handles application configuration.
package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FlexDuration is a duration that can be unmarshalled from a Go duration
// string ("90s", "23h"), an integer number of seconds, or a float number
// of seconds.
type FlexDuration time.Duration

// Duration returns the value as a time.Duration.
func (fd FlexDuration) Duration() time.Duration {
	return time.Duration(fd)
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for FlexDuration.
func (fd *FlexDuration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Tag {
	case "!!str":
		d, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("cannot unmarshal string %q into FlexDuration: %w", value.Value, err)
		}
		*fd = FlexDuration(d)
	case "!!int":
		i, err := strconv.ParseInt(value.Value, 10, 64)
		if err != nil {
			return err
		}
		*fd = FlexDuration(time.Duration(i) * time.Second)
	case "!!float":
		f, err := strconv.ParseFloat(value.Value, 64)
		if err != nil {
			return err
		}
		*fd = FlexDuration(time.Duration(f * float64(time.Second)))
	default:
		return fmt.Errorf("cannot unmarshal %s into FlexDuration", value.Tag)
	}
	return nil
}
