package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

// TaskUpdate carries the mutable task fields; nil means unchanged.
type TaskUpdate struct {
	Title          *string
	Description    *string
	Status         *model.TaskStatus
	Priority       *model.TaskPriority
	AssignedTo     *UUIDPatch
	DueDate        *TimePatch
	EstimatedHours *DecimalPatch
}

// UUIDPatch wraps an optional uuid field in an update: a nil patch leaves
// the field unchanged, a patch with a nil Value clears it.
type UUIDPatch struct {
	Value *uuid.UUID
}

// TaskService manages tasks, their workflow transitions and comments.
type TaskService interface {
	List(ctx context.Context, actor authz.Actor, q repository.TaskQuery) ([]model.Task, int64, error)
	Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Task, error)
	Create(ctx context.Context, actor authz.Actor, task *model.Task) error
	Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	AddComment(ctx context.Context, actor authz.Actor, taskID uuid.UUID, content string) (*model.Comment, error)
	ListComments(ctx context.Context, actor authz.Actor, taskID uuid.UUID) ([]model.Comment, error)
}

type taskService struct {
	taskRepo       repository.TaskRepository
	projectRepo    repository.ProjectRepository
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	engine         *authz.Engine
	notifier       Notifier
}

// NewTaskService creates a new task service.
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	membershipRepo repository.MembershipRepository,
	userRepo repository.UserRepository,
	engine *authz.Engine,
	notifier Notifier,
) TaskService {
	return &taskService{
		taskRepo:       taskRepo,
		projectRepo:    projectRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		engine:         engine,
		notifier:       notifier,
	}
}

func (s *taskService) List(ctx context.Context, actor authz.Actor, q repository.TaskQuery) ([]model.Task, int64, error) {
	scope, err := s.engine.ScopeCompanies(ctx, actor)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve scope: %w", err)
	}
	q.Unrestricted = scope.Unrestricted
	q.CompanyIDs = scope.CompanyIDs
	return s.taskRepo.List(ctx, q)
}

func (s *taskService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("task not found")
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	decision, err := s.engine.CanAccessCompany(ctx, actor, task.Project.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Create(ctx context.Context, actor authz.Actor, task *model.Task) error {
	project, err := s.projectRepo.FindByID(ctx, task.ProjectID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("project not found")
		}
		return fmt.Errorf("find project: %w", err)
	}
	decision, err := s.engine.CanAccessCompany(ctx, actor, project.CompanyID)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return err
	}

	if task.Status == "" {
		task.Status = model.TaskStatusTodo
	}
	if !task.Status.Valid() {
		return errors.ValidationField("status", "unknown task status")
	}
	if task.Priority == "" {
		task.Priority = model.TaskPriorityMedium
	}
	if !task.Priority.Valid() {
		return errors.ValidationField("priority", "unknown task priority")
	}

	if task.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *task.AssignedTo, project.CompanyID); err != nil {
			return err
		}
	}
	if task.ParentTaskID != nil {
		parent, err := s.taskRepo.FindByID(ctx, *task.ParentTaskID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFound("parent task not found")
			}
			return fmt.Errorf("find parent task: %w", err)
		}
		if parent.ProjectID != task.ProjectID {
			return errors.ValidationField("parent_task_id", "parent task must belong to the same project")
		}
	}

	if task.Status == model.TaskStatusCompleted {
		now := time.Now()
		task.CompletedAt = &now
	}

	task.CreatedBy = actor.ID
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	if task.AssignedTo != nil && *task.AssignedTo != actor.ID {
		s.notifier.TaskAssigned(task.ID, *task.AssignedTo, actor.ID)
	}
	return nil
}

// checkAssignee ensures the assignee exists and belongs to the task's
// company, admins being members of everything.
func (s *taskService) checkAssignee(ctx context.Context, assigneeID, companyID uuid.UUID) error {
	assignee, err := s.userRepo.FindByID(ctx, assigneeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("assignee not found")
		}
		return fmt.Errorf("find assignee: %w", err)
	}
	if assignee.Role == model.RoleAdmin {
		return nil
	}
	member, err := s.membershipRepo.IsMember(ctx, assigneeID, companyID)
	if err != nil {
		return fmt.Errorf("check assignee membership: %w", err)
	}
	if !member {
		return errors.ValidationField("assigned_to", "assignee is not a member of the company")
	}
	return nil
}

func (s *taskService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update TaskUpdate) (*model.Task, error) {
	task, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	prevStatus := task.Status
	prevAssignee := task.AssignedTo

	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Priority != nil {
		if !update.Priority.Valid() {
			return nil, errors.ValidationField("priority", "unknown task priority")
		}
		task.Priority = *update.Priority
	}
	if update.AssignedTo != nil {
		if update.AssignedTo.Value != nil {
			if err := s.checkAssignee(ctx, *update.AssignedTo.Value, task.Project.CompanyID); err != nil {
				return nil, err
			}
		}
		task.AssignedTo = update.AssignedTo.Value
	}
	if update.DueDate != nil {
		task.DueDate = update.DueDate.Value
	}
	if update.EstimatedHours != nil {
		task.EstimatedHours = update.EstimatedHours.Value
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, errors.ValidationField("status", "unknown task status")
		}
		task.Status = *update.Status
		// CompletedAt mirrors the COMPLETED status exactly.
		switch {
		case task.Status == model.TaskStatusCompleted && prevStatus != model.TaskStatusCompleted:
			now := time.Now()
			task.CompletedAt = &now
		case task.Status != model.TaskStatusCompleted:
			task.CompletedAt = nil
		}
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if task.AssignedTo != nil && *task.AssignedTo != actor.ID &&
		(prevAssignee == nil || *prevAssignee != *task.AssignedTo) {
		s.notifier.TaskAssigned(task.ID, *task.AssignedTo, actor.ID)
	}
	if task.Status == model.TaskStatusCompleted && prevStatus != model.TaskStatusCompleted {
		s.notifier.TaskCompleted(task.ID, actor.ID)
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	counts, err := s.taskRepo.ChildCounts(ctx, id)
	if err != nil {
		return fmt.Errorf("count child rows: %w", err)
	}
	if !counts.Empty() {
		return errors.Conflict("cannot delete task with subtasks, time entries or comments")
	}
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *taskService) AddComment(ctx context.Context, actor authz.Actor, taskID uuid.UUID, content string) (*model.Comment, error) {
	if _, err := s.Get(ctx, actor, taskID); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, errors.ValidationField("content", "content must not be empty")
	}

	comment := &model.Comment{TaskID: taskID, UserID: actor.ID, Content: content}
	if err := s.taskRepo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.notifier.CommentAdded(taskID, actor.ID)
	return comment, nil
}

func (s *taskService) ListComments(ctx context.Context, actor authz.Actor, taskID uuid.UUID) ([]model.Comment, error) {
	if _, err := s.Get(ctx, actor, taskID); err != nil {
		return nil, err
	}
	return s.taskRepo.ListComments(ctx, taskID)
}
