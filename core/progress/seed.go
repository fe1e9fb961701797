package progress

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// TemplateNode is one node of a curriculum template.
type TemplateNode struct {
	Name        string
	Description string
	ItemType    string
	Children    []TemplateNode
}

// DefaultTemplate is the standard curriculum assigned to new students.
var DefaultTemplate = TemplateNode{
	Name:     "Thesis Submission",
	ItemType: TypeMilestone,
	Children: []TemplateNode{
		{
			Name:     "Proposal Approval",
			ItemType: TypeStage,
			Children: []TemplateNode{
				{Name: "Write Literature Review", ItemType: TypeTask},
				{Name: "Submit Proposal Draft", ItemType: TypeTask},
			},
		},
		{
			Name:     "Final Defense",
			ItemType: TypeStage,
			Children: []TemplateNode{
				{Name: "Submit Final Thesis", ItemType: TypeTask},
				{Name: "Prepare Presentation", ItemType: TypeTask},
			},
		},
	},
}

// SeedTemplate creates the template's item hierarchy for a student, parents
// before children so the Ancestors invariant holds at every insert. Every
// item starts Locked and no reconciliation runs: a freshly seeded tree is
// consistent by construction, and this is the one write path that opts out
// of the roll-up pipeline.
func (svc *Service) SeedTemplate(ctx context.Context, studentID string, tpl TemplateNode) ([]Item, error) {
	ctx, cancel := svc.stage(ctx)
	defer cancel()

	if _, err := svc.getStudent(ctx, studentID); err != nil {
		return nil, err
	}

	var created []Item
	var plant func(node TemplateNode, parent *Item) error
	plant = func(node TemplateNode, parent *Item) error {
		now := time.Now().UTC()
		item := Item{
			StudentID:   studentID,
			Name:        node.Name,
			Description: node.Description,
			ItemType:    node.ItemType,
			Status:      StatusLocked,
			Ancestors:   []string{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if parent != nil {
			item.ParentID = parent.ID
			item.Ancestors = append(append(item.Ancestors, parent.Ancestors...), parent.ID)
		}

		item, err := svc.repo.CreateItem(ctx, item)
		if err != nil {
			return errors.Wrapf(err, "seeding item %q", node.Name)
		}
		created = append(created, item)

		for _, child := range node.Children {
			if err = plant(child, &item); err != nil {
				return err
			}
		}
		return nil
	}

	if err := plant(tpl, nil); err != nil {
		return nil, err
	}
	return created, nil
}
