package progress

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/maendeleo/core"
)

// Statuses. Wire values match the stored values, space included.
const (
	StatusLocked     = "Locked"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// Item types, in curriculum depth order. Depth is NOT enforced against
// ParentID: a Task may sit directly under a Milestone.
const (
	TypeMilestone = "Milestone"
	TypeStage     = "Stage"
	TypeTask      = "Task"
	TypeSubtask   = "Subtask"
)

var (
	Statuses  = []string{StatusLocked, StatusInProgress, StatusCompleted}
	ItemTypes = []string{TypeMilestone, TypeStage, TypeTask, TypeSubtask}
)

// Item is a node in exactly one student's progress tree. The collection of a
// student's items forms a forest: multiple Milestone roots are allowed.
//
// Ancestors is the denormalized root-first path of ancestor IDs. It is
// established at creation time (Ancestors = parent.Ancestors + [ParentID])
// and is never rewritten: reparenting is not supported. It exists so that
// "all descendants of X" is a single indexed filter instead of a recursive
// child-by-child walk.
type Item struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ItemType    string    `json:"item_type"`
	Status      string    `json:"status"`
	ParentID    string    `json:"parent_id,omitempty"` // empty for a root
	Ancestors   []string  `json:"ancestors"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (it Item) IsRoot() bool {
	return it.ParentID == ""
}

// IsSelfReportable reports whether a student may mark this item complete
// themselves. Only the leaf types qualify; Milestones and Stages are rolled
// up from their children or forced by faculty.
func (it Item) IsSelfReportable() bool {
	return it.ItemType == TypeTask || it.ItemType == TypeSubtask
}

// NewItem contains information needed to create a new Item.
type NewItem struct {
	StudentID   string `json:"student_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ItemType    string `json:"item_type" validate:"required,itemtype"`
	ParentID    string `json:"parent_id"`
}

func (ni *NewItem) Validate(validate *validator.Validate) error {
	ni.StudentID = core.CleanString(ni.StudentID)
	ni.Name = core.CleanString(ni.Name)
	ni.Description = core.CleanString(ni.Description)
	ni.ItemType = core.CleanString(ni.ItemType)
	ni.ParentID = core.CleanString(ni.ParentID)
	return validate.Struct(ni)
}

// StatusUpdate is the body of both the student self-report and the faculty
// override requests.
type StatusUpdate struct {
	Status string `json:"status" validate:"required,itemstatus"`
}

func (su *StatusUpdate) Validate(validate *validator.Validate) error {
	su.Status = core.CleanString(su.Status)
	return validate.Struct(su)
}

// Node is an Item materialized into its tree position.
type Node struct {
	Item
	Children []*Node `json:"children"`
}
