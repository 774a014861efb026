// Package taskset loads declarative task definitions from YAML files, so
// annotation sessions can be configured without code changes. Example:
//
//	version: "1"
//	name: adverse-media
//	tasks:
//	  - name: adverse
//	    kind: choice
//	    choices: ["0", "1", "3"]
//	    labels:
//	      "0": not adverse media
//	      "1": adverse media
//	      "3": exclude from dataset
//	  - name: political
//	    kind: bool
//	    nullable: true
//	    instruction: Is the topic political?
package taskset

import (
	"fmt"
	"os"
	"strings"

	"github.com/labelloop/labelloop/core"
	"gopkg.in/yaml.v3"
)

// Definition is the YAML-backed description of one task.
type Definition struct {
	Name        string            `yaml:"name"`
	Kind        string            `yaml:"kind"`
	Choices     []string          `yaml:"choices,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Nullable    bool              `yaml:"nullable,omitempty"`
	Default     any               `yaml:"default,omitempty"`
	Instruction string            `yaml:"instruction,omitempty"`
}

// File is the YAML-backed description of a whole task set.
type File struct {
	Version string       `yaml:"version,omitempty"`
	Name    string       `yaml:"name,omitempty"`
	Tasks   []Definition `yaml:"tasks"`
}

// Load reads and validates a task set from a YAML file.
func Load(path string) ([]core.Task, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("task set path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task set: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a task set from YAML bytes.
func Parse(data []byte) ([]core.Task, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode task set: %w", err)
	}
	if len(file.Tasks) == 0 {
		return nil, fmt.Errorf("task set defines no tasks")
	}

	tasks := make([]core.Task, 0, len(file.Tasks))
	for _, def := range file.Tasks {
		task, err := def.toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (d Definition) toTask() (core.Task, error) {
	if strings.TrimSpace(d.Name) == "" {
		return core.Task{}, fmt.Errorf("task name is required")
	}

	kindName := d.Kind
	if kindName == "" {
		kindName = "str"
	}
	kind, err := core.KindByName(kindName, d.Choices)
	if err != nil {
		return core.Task{}, fmt.Errorf("task %q: %w", d.Name, err)
	}
	if ck, ok := kind.(core.ChoiceKind); ok && len(d.Labels) > 0 {
		ck.Labels = d.Labels
		kind = ck
	}

	return core.NewTask(d.Name, kind, func(o *core.Task) {
		o.Nullable = d.Nullable
		o.Default = d.Default
		o.Instruction = d.Instruction
	})
}
