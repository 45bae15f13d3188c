// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

// Package query holds small parsers for query-string and configuration values.
package query

import (
	"strings"
)

// StringSlice parses a comma-separated string into a trimmed slice.
// Empty segments are dropped, so "a,,b" and "a, b" both yield ["a" "b"].
// Used for list filters such as ?actions=auth.login,auth.logout and for
// comma-separated configuration values.
func StringSlice(value string) []string {
	if value == "" {
		return nil
	}
	var parts []string
	for _, segment := range strings.Split(value, ",") {
		segment = strings.TrimSpace(segment)
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return parts
}
