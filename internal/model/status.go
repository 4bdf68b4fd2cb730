package model

import (
	"encoding/json"
	"fmt"
)

// ProjectStatus is the lifecycle state of a construction project.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "Planning"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectOnHold     ProjectStatus = "On Hold"
	ProjectCompleted  ProjectStatus = "Completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectInProgress, ProjectOnHold, ProjectCompleted:
		return true
	}
	return false
}

func ParseProjectStatus(raw string) (ProjectStatus, error) {
	s := ProjectStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: project status %q", ErrInvalidEnum, raw)
	}
	return s, nil
}

func (s *ProjectStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParseProjectStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// TaskStatus is one of exactly four board columns. Any status may move to any other.
type TaskStatus string

const (
	TaskToDo       TaskStatus = "To Do"
	TaskInProgress TaskStatus = "In Progress"
	TaskReview     TaskStatus = "Review"
	TaskDone       TaskStatus = "Done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskToDo, TaskInProgress, TaskReview, TaskDone:
		return true
	}
	return false
}

func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: task status %q", ErrInvalidEnum, raw)
	}
	return s, nil
}

func (s *TaskStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParseTaskStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type TaskPriority string

const (
	PriorityLow      TaskPriority = "Low"
	PriorityMedium   TaskPriority = "Medium"
	PriorityHigh     TaskPriority = "High"
	PriorityCritical TaskPriority = "Critical"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func ParseTaskPriority(raw string) (TaskPriority, error) {
	p := TaskPriority(raw)
	if !p.Valid() {
		return "", fmt.Errorf("%w: task priority %q", ErrInvalidEnum, raw)
	}
	return p, nil
}

func (p *TaskPriority) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParseTaskPriority(raw)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

type DocumentType string

const (
	DocumentPDF   DocumentType = "PDF"
	DocumentExcel DocumentType = "EXCEL"
	DocumentDWG   DocumentType = "DWG"
	DocumentImage DocumentType = "IMAGE"
	DocumentOther DocumentType = "OTHER"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentPDF, DocumentExcel, DocumentDWG, DocumentImage, DocumentOther:
		return true
	}
	return false
}

func ParseDocumentType(raw string) (DocumentType, error) {
	t := DocumentType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: document type %q", ErrInvalidEnum, raw)
	}
	return t, nil
}

func (t *DocumentType) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParseDocumentType(raw)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
