package metrics

import (
	"regexp"
	"strings"

	"github.com/ygrebnov/errorc"
)

var (
	metricNamePattern = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)
	labelNamePattern  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// Validate checks that name is a Prometheus-compatible metric identity, e.g.
//
//	foo
//	foo{bar="baz"}
//	foo{bar="baz", a="b"}
//
// Label values are scanned shallowly: commas or escaped quotes inside a value
// are not treated specially.
func Validate(name string) error {

	if name == "" {
		return ErrEmptyName
	}

	index := strings.IndexByte(name, '{')
	if index < 0 {
		return validateMetricName(name)
	}

	if err := validateMetricName(name[:index]); err != nil {
		return err
	}

	if !strings.HasSuffix(name, "}") {
		return invalidName(name, "no closing curly brace")
	}

	labels := name[index+1 : len(name)-1]
	if labels == "" {
		return nil
	}
	return validateLabels(name, labels)
}

func validateLabels(name, input string) error {

	for _, label := range strings.Split(input, ",") {

		delimiter := strings.IndexByte(label, '=')
		if delimiter < 0 {
			return invalidName(name, "missing delimiter '=' after '"+label+"'")
		}

		labelName := strings.TrimSpace(label[:delimiter])
		if !labelNamePattern.MatchString(labelName) {
			return invalidName(name, "invalid label name '"+labelName+"'")
		}

		value := label[delimiter+1:]
		if value == "" || value[0] != '"' {
			return invalidName(name, "missing starting '\"' for '"+labelName+"' label")
		}
		if !strings.Contains(value[1:], `"`) {
			return invalidName(name, "missing trailing '\"' for '"+labelName+"' label")
		}
	}
	return nil
}

func validateMetricName(name string) error {

	if !metricNamePattern.MatchString(name) {
		return invalidName(name, "invalid metric name")
	}
	return nil
}

func invalidName(name, reason string) error {
	return errorc.With(ErrInvalidName, errorc.String("name", name), errorc.String("reason", reason))
}
