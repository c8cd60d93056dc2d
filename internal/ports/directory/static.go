package directory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type staticFile struct {
	Employees []Employee `yaml:"employees"`
}

// StaticDirectory serves a fixed employee list, usually read from a YAML file.
type StaticDirectory struct {
	employees []Employee
	byID      map[string]Employee
}

func NewStaticDirectory(employees []Employee) *StaticDirectory {
	return &StaticDirectory{employees: employees, byID: Index(employees)}
}

// LoadStaticDirectory reads a file of the form:
//
//	employees:
//	  - id: emp-1
//	    name: Ana
//	    department: Engineering
//	    email: ana@example.com
func LoadStaticDirectory(path string) (*StaticDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory file: %w", err)
	}
	defer f.Close()

	var file staticFile
	if err := yaml.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode directory file %s: %w", path, err)
	}
	for i, e := range file.Employees {
		if e.ID == "" {
			return nil, fmt.Errorf("directory file %s: employee #%d has no id", path, i+1)
		}
	}
	return NewStaticDirectory(file.Employees), nil
}

func (d *StaticDirectory) List(_ context.Context) ([]Employee, error) {
	out := make([]Employee, len(d.employees))
	copy(out, d.employees)
	return out, nil
}

func (d *StaticDirectory) Get(_ context.Context, id string) (Employee, error) {
	e, ok := d.byID[id]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, nil
}
