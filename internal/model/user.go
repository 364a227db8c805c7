// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model holds the constants and small domain rules shared by the
// page tree admin: user roles, event levels, page languages and history
// actions.
package model

// User roles, from most to least privileged.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// RoleLevel returns the privilege level of a role. Unknown roles get 0.
func RoleLevel(role string) int {
	switch role {
	case RoleAdmin:
		return 2
	case RoleEditor:
		return 1
	default:
		return 0
	}
}

// HasRole reports whether role grants at least the privileges of required.
func HasRole(role, required string) bool {
	level := RoleLevel(role)
	return level > 0 && level >= RoleLevel(required)
}
