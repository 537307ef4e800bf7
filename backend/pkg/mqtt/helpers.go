package mqtt

import (
	"errors"
	"fmt"
	"strings"
)

// isValidParameterName reports whether a topic parameter name starts with a
// letter and contains only alphanumeric characters and underscores.
func isValidParameterName(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'

		if i == 0 && !isLetter {
			return false
		}

		if !isLetter && !isDigit && r != '_' {
			return false
		}
	}

	return true
}

// validateTopicPattern validates an MQTT topic pattern with {param} placeholders.
// Valid patterns:
// - Parameters must be in {paramName} format (e.g., dispenser/{sensor}/reading)
// - Parameter names must start with a letter and contain only alphanumeric characters and underscores
// - Multi-level wildcards '#' are NOT supported for explicitness.
func validateTopicPattern(topic string) error {
	if topic == "" {
		return errors.New("topic cannot be empty")
	}

	if strings.HasPrefix(topic, "/") {
		return errors.New("leading slash is not allowed")
	}

	if strings.HasSuffix(topic, "/") {
		return errors.New("trailing slash is not allowed")
	}

	for segment := range strings.SplitSeq(topic, "/") {
		if segment == "" {
			return errors.New("empty segments are not allowed")
		}

		// Check for multi-level wildcard - not allowed
		if strings.Contains(segment, "#") {
			return errors.New("multi-level wildcard '#' is not supported - use explicit parameters {param} instead")
		}

		// Check for single-level wildcard - should use {param} instead
		if strings.Contains(segment, "+") {
			return errors.New("wildcard '+' is not supported - use parameter syntax {param} instead")
		}

		// Check for parameter syntax
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			paramName := segment[1 : len(segment)-1]
			if !isValidParameterName(paramName) {
				return fmt.Errorf("invalid parameter name '%s' - must start with a letter and contain only alphanumeric characters and underscores", paramName)
			}
		} else if strings.Contains(segment, "{") || strings.Contains(segment, "}") {
			return errors.New("invalid parameter syntax - use {paramName} format")
		}
	}

	return nil
}

// convertTopicToMQTT converts a parameterized topic (dispenser/{sensor}/reading)
// to an MQTT wildcard pattern (dispenser/+/reading).
func convertTopicToMQTT(topic string) string {
	segments := strings.Split(topic, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			segments[i] = "+"
		}
	}

	return strings.Join(segments, "/")
}

// validateQoS validates a QoS level.
func validateQoS(qos QoS) error {
	if qos != QoSAtMostOnce && qos != QoSAtLeastOnce && qos != QoSExactlyOnce {
		return errors.New("qos must be 0, 1, or 2")
	}

	return nil
}

// validateTopicParameters checks that every {param} in the topic is documented
// and every documented parameter appears in the topic.
func validateTopicParameters(topic string, topicParams []TopicParameter) error {
	params := map[string]struct{}{}
	documented := map[string]struct{}{}

	for segment := range strings.SplitSeq(topic, "/") {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			params[segment[1:len(segment)-1]] = struct{}{}
		}
	}

	for _, paramSpec := range topicParams {
		if paramSpec.Name == "" {
			return fmt.Errorf("parameter name required for topic %s", topic)
		}

		if paramSpec.Description == "" {
			return fmt.Errorf("parameter Description required for topic %s", topic)
		}

		if _, exists := params[paramSpec.Name]; !exists {
			return fmt.Errorf("documented parameter %s not found in topic", paramSpec.Name)
		}

		documented[paramSpec.Name] = struct{}{}
	}

	for name := range params {
		if _, exists := documented[name]; !exists {
			return fmt.Errorf("topic parameter %s not documented", name)
		}
	}

	return nil
}

// validatePublicationSpec validates a publication specification.
func (mb *MQTTBuilder) validatePublicationSpec(spec PublicationSpec) error {
	if spec.OperationID == "" {
		return errors.New("operationID is required")
	}

	if spec.Summary == "" {
		return errors.New("summary is required")
	}

	if spec.Description == "" {
		return errors.New("description is required")
	}

	if spec.Group == "" {
		return errors.New("group is required")
	}

	if err := validateQoS(spec.QoS); err != nil {
		return err
	}

	return nil
}

// validateSubscriptionSpec validates a subscription specification.
func (mb *MQTTBuilder) validateSubscriptionSpec(spec SubscriptionSpec) error {
	if spec.OperationID == "" {
		return errors.New("operationID is required")
	}

	if spec.Summary == "" {
		return errors.New("summary is required")
	}

	if spec.Description == "" {
		return errors.New("description is required")
	}

	if spec.Group == "" {
		return errors.New("group is required")
	}

	if spec.Handler == nil {
		return errors.New("handler is required")
	}

	if err := validateQoS(spec.QoS); err != nil {
		return err
	}

	return nil
}
