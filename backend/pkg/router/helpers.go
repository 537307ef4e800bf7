package router

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// validateRouteSpec validates a RouteSpec.
func validateRouteSpec(spec RouteSpec) error {
	if spec.OperationID == "" {
		return errors.New("field OperationID required")
	}

	if spec.Summary == "" {
		return errors.New("field Summary required")
	}

	if spec.Description == "" {
		return errors.New("field Description required")
	}

	if spec.Group == "" {
		return errors.New("field Group required")
	}

	if spec.Handler == nil {
		return errors.New("field Handler required")
	}

	if len(spec.Responses) == 0 {
		return errors.New("field Responses required")
	}

	return nil
}

// extractParamNames returns the chi-style {param} names in a path segment.
// Regex constraints ({id:[0-9]+}) are stripped to the bare name.
func extractParamNames(segment string) ([]string, error) {
	var names []string

	for {
		open := strings.Index(segment, "{")
		if open == -1 {
			if strings.Contains(segment, "}") {
				return nil, errors.New("unbalanced '}' in path segment")
			}

			return names, nil
		}

		closing := strings.Index(segment[open:], "}")
		if closing == -1 {
			return nil, errors.New("unbalanced '{' in path segment")
		}

		name := segment[open+1 : open+closing]
		if colon := strings.Index(name, ":"); colon != -1 {
			name = name[:colon]
		}

		names = append(names, name)
		segment = segment[open+closing+1:]
	}
}

// isValidParameterName reports whether a parameter name starts with a letter
// and contains only alphanumeric characters and underscores.
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

// validateParameters checks that every path parameter is documented and every
// documented parameter is valid.
func validateParameters(spec RouteSpec) error {
	paramsInPath := map[string]struct{}{}
	documentedPathParams := map[string]struct{}{}

	// Extract param names from path
	for section := range strings.SplitSeq(spec.fullPath, "/") {
		paramNames, err := extractParamNames(section)
		if err != nil {
			return fmt.Errorf("invalid path %s: %w", spec.fullPath, err)
		}

		for _, paramName := range paramNames {
			if !isValidParameterName(paramName) {
				return fmt.Errorf("invalid parameter name %s in path %s", paramName, spec.fullPath)
			}
			paramsInPath[paramName] = struct{}{}
		}
	}

	// For each documented parameter, validate and record
	for name, paramSpec := range spec.Parameters {
		if name == "" {
			return fmt.Errorf("parameter name required for %s %s", spec.method, spec.fullPath)
		}

		if paramSpec.Description == "" {
			return fmt.Errorf("parameter Description required for %s %s", spec.method, spec.fullPath)
		}

		if paramSpec.Type == nil {
			return fmt.Errorf("parameter Type required for %s %s", spec.method, spec.fullPath)
		}

		validInValues := []ParameterIn{ParameterInPath, ParameterInQuery, ParameterInHeader}
		if !slices.Contains(validInValues, paramSpec.In) {
			return fmt.Errorf("parameter In must be one of %v for %s %s", validInValues, spec.method, spec.fullPath)
		}

		if paramSpec.In == ParameterInPath {
			if _, exists := paramsInPath[name]; !exists {
				return fmt.Errorf("documented path parameter %s not found in path", name)
			}

			if !paramSpec.Required {
				return fmt.Errorf("path parameter %s must be required", name)
			}

			documentedPathParams[name] = struct{}{}
		}
	}

	// Now go over all discovered path parameters and validate that they are documented
	for name := range paramsInPath {
		if _, exists := documentedPathParams[name]; !exists {
			return fmt.Errorf("path parameter %s not documented", name)
		}
	}

	return nil
}
