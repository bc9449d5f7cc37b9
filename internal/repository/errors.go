// Package repository contains the data access layer. Repositories speak
// plain database/sql and surface sentinel errors so that the service and
// handler layers can map failures without inspecting driver messages.
package repository

import (
	"errors"
	"strings"
)

// ErrEmailExists is returned by UserRepo.Create when the unique email
// constraint is violated.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// isDuplicateKey detects a MySQL unique-constraint violation (error 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
