package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

func newTestTaskService(tasks *MockTaskRepository, projects *MockProjectRepository, memberships *MockMembershipRepository, users *MockUserRepository, notifier *MockNotifier) TaskService {
	return NewTaskService(tasks, projects, memberships, users, authz.NewEngine(memberships), notifier)
}

func TestTaskService_Create(t *testing.T) {
	companyID := uuid.New()
	projectID := uuid.New()
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	project := &model.Project{ID: projectID, CompanyID: companyID}

	t.Run("defaults status and priority", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockProjects := new(MockProjectRepository)

		mockProjects.On("FindByID", mock.Anything, projectID).Return(project, nil)
		mockTasks.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

		service := newTestTaskService(mockTasks, mockProjects, new(MockMembershipRepository), new(MockUserRepository), new(MockNotifier))
		task := &model.Task{ProjectID: projectID, Title: "New task"}
		err := service.Create(context.Background(), admin, task)

		assert.NoError(t, err)
		assert.Equal(t, model.TaskStatusTodo, task.Status)
		assert.Equal(t, model.TaskPriorityMedium, task.Priority)
		assert.Nil(t, task.CompletedAt)
		assert.Equal(t, admin.ID, task.CreatedBy)
	})

	t.Run("created completed gets a completion time", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockProjects := new(MockProjectRepository)

		mockProjects.On("FindByID", mock.Anything, projectID).Return(project, nil)
		mockTasks.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

		service := newTestTaskService(mockTasks, mockProjects, new(MockMembershipRepository), new(MockUserRepository), new(MockNotifier))
		task := &model.Task{ProjectID: projectID, Title: "Done already", Status: model.TaskStatusCompleted}
		err := service.Create(context.Background(), admin, task)

		assert.NoError(t, err)
		assert.NotNil(t, task.CompletedAt)
	})

	t.Run("assignee outside the company is rejected", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockProjects := new(MockProjectRepository)
		mockMemberships := new(MockMembershipRepository)
		mockUsers := new(MockUserRepository)
		assigneeID := uuid.New()

		mockProjects.On("FindByID", mock.Anything, projectID).Return(project, nil)
		mockUsers.On("FindByID", mock.Anything, assigneeID).Return(&model.User{ID: assigneeID, Role: model.RoleFreelancer}, nil)
		mockMemberships.On("IsMember", mock.Anything, assigneeID, companyID).Return(false, nil)

		service := newTestTaskService(mockTasks, mockProjects, mockMemberships, mockUsers, new(MockNotifier))
		task := &model.Task{ProjectID: projectID, Title: "Task", AssignedTo: &assigneeID}
		err := service.Create(context.Background(), admin, task)

		assert.Error(t, err)
		assert.Equal(t, errors.KindValidation, errors.KindOf(err))
		mockTasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("admin assignee needs no membership", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockProjects := new(MockProjectRepository)
		mockUsers := new(MockUserRepository)
		mockNotifier := new(MockNotifier)
		assigneeID := uuid.New()

		mockProjects.On("FindByID", mock.Anything, projectID).Return(project, nil)
		mockUsers.On("FindByID", mock.Anything, assigneeID).Return(&model.User{ID: assigneeID, Role: model.RoleAdmin}, nil)
		mockTasks.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
		mockNotifier.On("TaskAssigned", mock.Anything, assigneeID, admin.ID).Return()

		service := newTestTaskService(mockTasks, mockProjects, new(MockMembershipRepository), mockUsers, mockNotifier)
		task := &model.Task{ProjectID: projectID, Title: "Task", AssignedTo: &assigneeID}
		err := service.Create(context.Background(), admin, task)

		assert.NoError(t, err)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("parent task in another project is rejected", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockProjects := new(MockProjectRepository)
		parentID := uuid.New()

		mockProjects.On("FindByID", mock.Anything, projectID).Return(project, nil)
		mockTasks.On("FindByID", mock.Anything, parentID).Return(&model.Task{ID: parentID, ProjectID: uuid.New()}, nil)

		service := newTestTaskService(mockTasks, mockProjects, new(MockMembershipRepository), new(MockUserRepository), new(MockNotifier))
		task := &model.Task{ProjectID: projectID, Title: "Subtask", ParentTaskID: &parentID}
		err := service.Create(context.Background(), admin, task)

		assert.Error(t, err)
		assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	})
}

func TestTaskService_Update_CompletionMirror(t *testing.T) {
	companyID := uuid.New()
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	newTask := func(status model.TaskStatus, completedAt *time.Time) *model.Task {
		return &model.Task{
			ID:          uuid.New(),
			ProjectID:   uuid.New(),
			Title:       "Task",
			Status:      status,
			Priority:    model.TaskPriorityMedium,
			CompletedAt: completedAt,
			Project:     model.Project{CompanyID: companyID},
		}
	}

	t.Run("transition into completed stamps completedAt and notifies", func(t *testing.T) {
		task := newTask(model.TaskStatusInProgress, nil)
		mockTasks := new(MockTaskRepository)
		mockNotifier := new(MockNotifier)

		mockTasks.On("FindByID", mock.Anything, task.ID).Return(task, nil)
		mockTasks.On("Update", mock.Anything, task).Return(nil)
		mockNotifier.On("TaskCompleted", task.ID, admin.ID).Return()

		service := newTestTaskService(mockTasks, new(MockProjectRepository), new(MockMembershipRepository), new(MockUserRepository), mockNotifier)
		status := model.TaskStatusCompleted
		updated, err := service.Update(context.Background(), admin, task.ID, TaskUpdate{Status: &status})

		assert.NoError(t, err)
		assert.NotNil(t, updated.CompletedAt)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("transition out of completed clears completedAt", func(t *testing.T) {
		done := time.Now()
		task := newTask(model.TaskStatusCompleted, &done)
		mockTasks := new(MockTaskRepository)

		mockTasks.On("FindByID", mock.Anything, task.ID).Return(task, nil)
		mockTasks.On("Update", mock.Anything, task).Return(nil)

		service := newTestTaskService(mockTasks, new(MockProjectRepository), new(MockMembershipRepository), new(MockUserRepository), new(MockNotifier))
		status := model.TaskStatusInProgress
		updated, err := service.Update(context.Background(), admin, task.ID, TaskUpdate{Status: &status})

		assert.NoError(t, err)
		assert.Nil(t, updated.CompletedAt)
	})

	t.Run("completed to completed fires nothing", func(t *testing.T) {
		done := time.Now()
		task := newTask(model.TaskStatusCompleted, &done)
		mockTasks := new(MockTaskRepository)
		mockNotifier := new(MockNotifier)

		mockTasks.On("FindByID", mock.Anything, task.ID).Return(task, nil)
		mockTasks.On("Update", mock.Anything, task).Return(nil)

		service := newTestTaskService(mockTasks, new(MockProjectRepository), new(MockMembershipRepository), new(MockUserRepository), mockNotifier)
		status := model.TaskStatusCompleted
		updated, err := service.Update(context.Background(), admin, task.ID, TaskUpdate{Status: &status})

		assert.NoError(t, err)
		assert.Equal(t, &done, updated.CompletedAt)
		mockNotifier.AssertNotCalled(t, "TaskCompleted", mock.Anything, mock.Anything)
	})

	t.Run("reassignment notifies the new assignee only", func(t *testing.T) {
		task := newTask(model.TaskStatusInProgress, nil)
		previous := uuid.New()
		task.AssignedTo = &previous
		next := uuid.New()
		mockTasks := new(MockTaskRepository)
		mockUsers := new(MockUserRepository)
		mockMemberships := new(MockMembershipRepository)
		mockNotifier := new(MockNotifier)

		mockTasks.On("FindByID", mock.Anything, task.ID).Return(task, nil)
		mockUsers.On("FindByID", mock.Anything, next).Return(&model.User{ID: next, Role: model.RoleEmployee}, nil)
		mockMemberships.On("IsMember", mock.Anything, next, companyID).Return(true, nil)
		mockTasks.On("Update", mock.Anything, task).Return(nil)
		mockNotifier.On("TaskAssigned", task.ID, next, admin.ID).Return()

		service := newTestTaskService(mockTasks, new(MockProjectRepository), mockMemberships, mockUsers, mockNotifier)
		_, err := service.Update(context.Background(), admin, task.ID, TaskUpdate{AssignedTo: &UUIDPatch{Value: &next}})

		assert.NoError(t, err)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("unassignment clears the assignee", func(t *testing.T) {
		task := newTask(model.TaskStatusInProgress, nil)
		previous := uuid.New()
		task.AssignedTo = &previous
		mockTasks := new(MockTaskRepository)
		mockNotifier := new(MockNotifier)

		mockTasks.On("FindByID", mock.Anything, task.ID).Return(task, nil)
		mockTasks.On("Update", mock.Anything, task).Return(nil)

		service := newTestTaskService(mockTasks, new(MockProjectRepository), new(MockMembershipRepository), new(MockUserRepository), mockNotifier)
		updated, err := service.Update(context.Background(), admin, task.ID, TaskUpdate{AssignedTo: &UUIDPatch{}})

		assert.NoError(t, err)
		assert.Nil(t, updated.AssignedTo)
		mockNotifier.AssertNotCalled(t, "TaskAssigned", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTaskService_Delete(t *testing.T) {
	companyID := uuid.New()
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	task := &model.Task{
		ID:      uuid.New(),
		Project: model.Project{CompanyID: companyID},
	}

	t.Run("task with time entries cannot be deleted", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("FindByID", mock.Anything, task.ID).Return(task, nil)
		mockTasks.On("ChildCounts", mock.Anything, task.ID).Return(repository.TaskChildCounts{TimeEntries: 3}, nil)

		service := newTestTaskService(mockTasks, new(MockProjectRepository), new(MockMembershipRepository), new(MockUserRepository), new(MockNotifier))
		err := service.Delete(context.Background(), admin, task.ID)

		assert.Error(t, err)
		assert.Equal(t, errors.KindConflict, errors.KindOf(err))
		mockTasks.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("leaf task is deleted", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockTasks.On("FindByID", mock.Anything, task.ID).Return(task, nil)
		mockTasks.On("ChildCounts", mock.Anything, task.ID).Return(repository.TaskChildCounts{}, nil)
		mockTasks.On("Delete", mock.Anything, task.ID).Return(nil)

		service := newTestTaskService(mockTasks, new(MockProjectRepository), new(MockMembershipRepository), new(MockUserRepository), new(MockNotifier))
		err := service.Delete(context.Background(), admin, task.ID)

		assert.NoError(t, err)
		mockTasks.AssertExpectations(t)
	})
}

func TestTaskService_AddComment(t *testing.T) {
	companyID := uuid.New()
	actor := authz.Actor{ID: uuid.New(), Role: model.RoleEmployee}
	task := &model.Task{
		ID:      uuid.New(),
		Project: model.Project{CompanyID: companyID},
	}

	t.Run("comment is created and fans out", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockMemberships := new(MockMembershipRepository)
		mockNotifier := new(MockNotifier)

		mockTasks.On("FindByID", mock.Anything, task.ID).Return(task, nil)
		mockMemberships.On("IsMember", mock.Anything, actor.ID, companyID).Return(true, nil)
		mockTasks.On("CreateComment", mock.Anything, mock.AnythingOfType("*model.Comment")).Return(nil)
		mockNotifier.On("CommentAdded", task.ID, actor.ID).Return()

		service := newTestTaskService(mockTasks, new(MockProjectRepository), mockMemberships, new(MockUserRepository), mockNotifier)
		comment, err := service.AddComment(context.Background(), actor, task.ID, "looks good")

		assert.NoError(t, err)
		assert.Equal(t, actor.ID, comment.UserID)
		assert.Equal(t, "looks good", comment.Content)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("empty content is rejected", func(t *testing.T) {
		mockTasks := new(MockTaskRepository)
		mockMemberships := new(MockMembershipRepository)

		mockTasks.On("FindByID", mock.Anything, task.ID).Return(task, nil)
		mockMemberships.On("IsMember", mock.Anything, actor.ID, companyID).Return(true, nil)

		service := newTestTaskService(mockTasks, new(MockProjectRepository), mockMemberships, new(MockUserRepository), new(MockNotifier))
		_, err := service.AddComment(context.Background(), actor, task.ID, "")

		assert.Error(t, err)
		assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	})

	t.Run("non-member cannot comment", func(t *testing.T) {
		outsider := authz.Actor{ID: uuid.New(), Role: model.RoleClient}
		mockTasks := new(MockTaskRepository)
		mockMemberships := new(MockMembershipRepository)

		mockTasks.On("FindByID", mock.Anything, task.ID).Return(task, nil)
		mockMemberships.On("IsMember", mock.Anything, outsider.ID, companyID).Return(false, nil)

		service := newTestTaskService(mockTasks, new(MockProjectRepository), mockMemberships, new(MockUserRepository), new(MockNotifier))
		_, err := service.AddComment(context.Background(), outsider, task.ID, "hello")

		assert.Error(t, err)
		assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
	})
}
