/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package cluster

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// ParseNodeSelectors parses node selector strings in format "key=value".
func ParseNodeSelectors(selectors []string) (map[string]string, error) {
	if len(selectors) == 0 {
		return nil, nil
	}
	result := make(map[string]string)
	for _, s := range selectors {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid node selector %q, expected key=value", s)
		}
		result[parts[0]] = parts[1]
	}
	return result, nil
}

// ParseTolerations parses toleration strings in format "key=value:Effect".
// The value may be empty ("key=:NoSchedule" tolerates any value via Exists).
func ParseTolerations(tolerations []string) ([]corev1.Toleration, error) {
	if len(tolerations) == 0 {
		return nil, nil
	}
	result := make([]corev1.Toleration, 0, len(tolerations))
	for _, s := range tolerations {
		kv, effect, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("invalid toleration %q, expected key=value:Effect", s)
		}

		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid toleration %q, expected key=value:Effect", s)
		}

		switch corev1.TaintEffect(effect) {
		case corev1.TaintEffectNoSchedule, corev1.TaintEffectPreferNoSchedule, corev1.TaintEffectNoExecute:
		default:
			return nil, fmt.Errorf("invalid toleration effect %q in %q", effect, s)
		}

		tol := corev1.Toleration{
			Key:    key,
			Effect: corev1.TaintEffect(effect),
		}
		if value == "" {
			tol.Operator = corev1.TolerationOpExists
		} else {
			tol.Operator = corev1.TolerationOpEqual
			tol.Value = value
		}
		result = append(result, tol)
	}
	return result, nil
}
