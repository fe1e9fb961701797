package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/maendeleo/core"
	"github.com/trezcool/maendeleo/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("progress item not found")
	ErrParentNotFound  = errors.New("parent item not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrNotItemOwner    = errors.New("progress item belongs to another student")
	ErrNotSelfService  = errors.New("only own tasks and subtasks can be marked completed")
)

// maxClimbDepth bounds the upward reconciliation walk. Curricula are four
// levels deep in practice; anything past this indicates a corrupted
// ancestors path.
const maxClimbDepth = 32

type (
	Repository interface {
		CreateItem(ctx context.Context, item Item) (Item, error)
		GetItemByID(ctx context.Context, id string) (Item, error)
		// QueryItemsByStudent returns all of a student's items ordered by
		// creation time.
		QueryItemsByStudent(ctx context.Context, studentID string) ([]Item, error)
		// QueryItemsByParent returns the direct children of an item ordered by
		// creation time.
		QueryItemsByParent(ctx context.Context, parentID string) ([]Item, error)
		UpdateItemStatus(ctx context.Context, id, status string) (Item, error)
		// UpdateStatusByAncestor sets the status of every item whose ancestors
		// path contains ancestorID, in a single bulk write. It reports the
		// number of items written.
		UpdateStatusByAncestor(ctx context.Context, ancestorID, status string) (int, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, ni NewItem) (Item, error)
		QueryByStudent(ctx context.Context, studentID string) ([]Item, error)
		Complete(ctx context.Context, studentID, itemID string) (Item, error)
		Override(ctx context.Context, itemID, status string) (Item, error)
		SeedTemplate(ctx context.Context, studentID string, tpl TemplateNode) ([]Item, error)
	}

	Service struct {
		repo    Repository
		usrRepo user.Repository
		mailSvc core.EmailService
		logger  core.Logger
		timeout time.Duration
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, usrRepo user.Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		usrRepo: usrRepo,
		mailSvc: mailSvc,
		logger:  logger,
		timeout: conf.Database.Timeout,
	}
}

func (svc *Service) stage(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, svc.timeout)
}

// getStudent fetches the owning student, mapping missing users and
// non-student roles to ErrStudentNotFound.
func (svc *Service) getStudent(ctx context.Context, id string) (user.User, error) {
	usr, err := svc.usrRepo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, ErrStudentNotFound
		}
		return user.User{}, errors.Wrap(err, "finding student")
	}
	if !usr.IsStudent() {
		return user.User{}, ErrStudentNotFound
	}
	return usr, nil
}

// Create inserts a new item under the given parent, establishing the
// Ancestors invariant: Ancestors = parent.Ancestors + [ParentID]. The write
// is reconciled upward: a fresh Locked child under an all-Completed sibling
// set moves the parent back to In Progress.
func (svc *Service) Create(ctx context.Context, ni NewItem) (Item, error) {
	ctx, cancel := svc.stage(ctx)
	defer cancel()

	if _, err := svc.getStudent(ctx, ni.StudentID); err != nil {
		return Item{}, err
	}

	ancestors := []string{}
	if ni.ParentID != "" {
		parent, err := svc.repo.GetItemByID(ctx, ni.ParentID)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				return Item{}, ErrParentNotFound
			}
			return Item{}, errors.Wrap(err, "finding parent item")
		}
		ancestors = append(append(ancestors, parent.Ancestors...), parent.ID)
	}

	now := time.Now().UTC()
	item, err := svc.repo.CreateItem(ctx, Item{
		StudentID:   ni.StudentID,
		Name:        ni.Name,
		Description: ni.Description,
		ItemType:    ni.ItemType,
		Status:      StatusLocked,
		ParentID:    ni.ParentID,
		Ancestors:   ancestors,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Item{}, errors.Wrap(err, "creating progress item")
	}

	svc.reconcile(ctx, item.ParentID)
	return item, nil
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID string) ([]Item, error) {
	ctx, cancel := svc.stage(ctx)
	defer cancel()
	return svc.repo.QueryItemsByStudent(ctx, studentID)
}

// Complete is the student self-report path: a student marks one of their own
// Task/Subtask items Completed. No downward cascade, no reopen rule; just
// the write followed by the upward reconciliation.
func (svc *Service) Complete(ctx context.Context, studentID, itemID string) (Item, error) {
	ctx, cancel := svc.stage(ctx)
	defer cancel()

	item, err := svc.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return Item{}, err
	}
	if item.StudentID != studentID {
		return Item{}, ErrNotItemOwner
	}
	if !item.IsSelfReportable() {
		return Item{}, ErrNotSelfService
	}

	item, err = svc.repo.UpdateItemStatus(ctx, itemID, StatusCompleted)
	if err != nil {
		return Item{}, errors.Wrap(err, "completing progress item")
	}

	svc.reconcile(ctx, item.ParentID)
	return item, nil
}

// Override is the faculty entry point combining both cascades:
//
//  1. Reopen rule: forcing In Progress on a Completed item first reopens its
//     most recently created Completed child, so the sibling set no longer
//     reads "all Completed" and the next roll-up cannot flip the item
//     straight back.
//  2. Downward cascade: a forced Completed/Locked is applied to every
//     descendant via the ancestors index, in one bulk write. The bulk write
//     does not re-trigger per-item roll-ups; a subtree that was already
//     internally inconsistent below the forced level stays that way.
//  3. The target itself is written, then its ancestors are reconciled
//     upward.
func (svc *Service) Override(ctx context.Context, itemID, status string) (Item, error) {
	ctx, cancel := svc.stage(ctx)
	defer cancel()

	item, err := svc.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return Item{}, err
	}

	if status == StatusInProgress && item.Status == StatusCompleted {
		if err = svc.reopenLastCompletedChild(ctx, item); err != nil {
			return Item{}, err
		}
	}

	if status == StatusCompleted || status == StatusLocked {
		if _, err = svc.repo.UpdateStatusByAncestor(ctx, itemID, status); err != nil {
			return Item{}, errors.Wrap(err, "cascading status to descendants")
		}
	}

	item, err = svc.repo.UpdateItemStatus(ctx, itemID, status)
	if err != nil {
		return Item{}, errors.Wrap(err, "overriding progress item")
	}

	svc.reconcile(ctx, item.ParentID)
	svc.notifyOverride(ctx, item)
	return item, nil
}

// reopenLastCompletedChild sets the target's most recently created Completed
// child (latest CreatedAt breaks ties) back to In Progress, reconciling
// upward from it. A childless or all-reopened target is left alone.
func (svc *Service) reopenLastCompletedChild(ctx context.Context, item Item) error {
	children, err := svc.repo.QueryItemsByParent(ctx, item.ID)
	if err != nil {
		return errors.Wrap(err, "querying children for reopening")
	}

	var last *Item
	for i := range children {
		child := &children[i]
		if child.Status != StatusCompleted {
			continue
		}
		if last == nil || child.CreatedAt.After(last.CreatedAt) {
			last = child
		}
	}
	if last == nil {
		return nil
	}

	if _, err = svc.repo.UpdateItemStatus(ctx, last.ID, StatusInProgress); err != nil {
		return errors.Wrap(err, "reopening last completed child")
	}
	svc.reconcile(ctx, last.ParentID)
	return nil
}

// reconcile walks from the given parent toward the root, recomputing each
// level's status from its direct children and stopping at the first level
// that does not change (or at the root, or at maxClimbDepth).
//
// The climb is best-effort: each level is an independent read-modify-write
// with no cross-record transaction. A failure is logged and the climb is
// abandoned at that level; the write that triggered it stands, and the stale
// ancestors self-heal on the next mutation touching the subtree. A dangling
// parent ID is a no-op.
func (svc *Service) reconcile(ctx context.Context, parentID string) {
	for depth := 0; parentID != "" && depth < maxClimbDepth; depth++ {
		parent, err := svc.repo.GetItemByID(ctx, parentID)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				return
			}
			svc.logger.Error(fmt.Sprintf("roll-up abandoned: loading ancestor %s: %v", parentID, err), err)
			return
		}

		children, err := svc.repo.QueryItemsByParent(ctx, parentID)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("roll-up abandoned: querying children of %s: %v", parentID, err), err)
			return
		}

		next := RollUp(parent.Status, children)
		if next == parent.Status {
			return
		}
		if _, err = svc.repo.UpdateItemStatus(ctx, parentID, next); err != nil {
			svc.logger.Error(fmt.Sprintf("roll-up abandoned: updating ancestor %s: %v", parentID, err), err)
			return
		}
		parentID = parent.ParentID
	}
}

// RollUp computes a parent's status from its direct children:
// all Completed -> Completed; all Locked -> Locked; any mixture ->
// In Progress. An empty child set yields the current status unchanged.
func RollUp(current string, children []Item) string {
	if len(children) == 0 {
		return current
	}

	allCompleted, allLocked := true, true
	for _, child := range children {
		if child.Status != StatusCompleted {
			allCompleted = false
		}
		if child.Status != StatusLocked {
			allLocked = false
		}
	}

	switch {
	case allCompleted:
		return StatusCompleted
	case allLocked:
		return StatusLocked
	default:
		return StatusInProgress
	}
}
