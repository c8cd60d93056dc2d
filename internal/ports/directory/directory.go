package directory

import (
	"context"
	"errors"
)

// UnknownDepartment is reported for employees without a department or missing from the directory.
const UnknownDepartment = "Unknown"

var ErrEmployeeNotFound = errors.New("employee not found")

// Employee is the directory entry the attendance service needs for reports and emails.
type Employee struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Department string `json:"department" yaml:"department"`
	Email      string `json:"email" yaml:"email"`
}

// Directory resolves employees. Implementations must be safe for concurrent use.
type Directory interface {
	List(ctx context.Context) ([]Employee, error)
	Get(ctx context.Context, id string) (Employee, error)
}

// DepartmentOf returns the department of an employee, UnknownDepartment when empty.
func (e Employee) DepartmentOf() string {
	if e.Department == "" {
		return UnknownDepartment
	}
	return e.Department
}

// Index maps employee ids to entries.
func Index(employees []Employee) map[string]Employee {
	out := make(map[string]Employee, len(employees))
	for _, e := range employees {
		out[e.ID] = e
	}
	return out
}
