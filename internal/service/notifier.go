package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"projecthub/internal/model"
	"projecthub/internal/repository"
)

// Notifier dispatches notifications as a best-effort side effect of state
// transitions. Enqueueing never blocks the triggering operation and every
// dispatch failure is logged and swallowed.
type Notifier interface {
	TaskAssigned(taskID, assigneeID, actorID uuid.UUID)
	TaskCompleted(taskID, actorID uuid.UUID)
	CommentAdded(taskID, authorID uuid.UUID)
	InvoiceCreated(invoiceID, companyID uuid.UUID)
	ContractSigned(contractID, companyID uuid.UUID)
	// Close drains the queue and stops the worker.
	Close()
}

const dispatchTimeout = 10 * time.Second

type notifier struct {
	notificationRepo repository.NotificationRepository
	membershipRepo   repository.MembershipRepository
	taskRepo         repository.TaskRepository
	userRepo         repository.UserRepository
	invoiceRepo      repository.InvoiceRepository
	contractRepo     repository.ContractRepository

	queue chan func(ctx context.Context)
	done  chan struct{}
}

// NewNotifier creates the dispatcher and starts its worker goroutine.
func NewNotifier(
	notificationRepo repository.NotificationRepository,
	membershipRepo repository.MembershipRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	invoiceRepo repository.InvoiceRepository,
	contractRepo repository.ContractRepository,
) Notifier {
	n := &notifier{
		notificationRepo: notificationRepo,
		membershipRepo:   membershipRepo,
		taskRepo:         taskRepo,
		userRepo:         userRepo,
		invoiceRepo:      invoiceRepo,
		contractRepo:     contractRepo,
		queue:            make(chan func(ctx context.Context), 100),
		done:             make(chan struct{}),
	}
	go n.worker()
	return n
}

func (n *notifier) worker() {
	defer close(n.done)
	for job := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		job(ctx)
		cancel()
	}
}

// enqueue hands a job to the worker, dropping it if the queue is full so
// the triggering request is never delayed.
func (n *notifier) enqueue(job func(ctx context.Context)) {
	select {
	case n.queue <- job:
	default:
		log.Printf("notifier: queue full, dropping notification")
	}
}

func (n *notifier) Close() {
	close(n.queue)
	<-n.done
}

func (n *notifier) TaskAssigned(taskID, assigneeID, actorID uuid.UUID) {
	n.enqueue(func(ctx context.Context) {
		task, err := n.taskRepo.FindByID(ctx, taskID)
		if err != nil {
			log.Printf("notifier: task assigned lookup: %v", err)
			return
		}
		actor, err := n.userRepo.FindByID(ctx, actorID)
		if err != nil {
			log.Printf("notifier: task assigned actor lookup: %v", err)
			return
		}
		err = n.notificationRepo.Create(ctx, &model.Notification{
			UserID:      assigneeID,
			Title:       "New task assigned",
			Message:     fmt.Sprintf("%s assigned the task %q in project %q to you.", actor.FullName(), task.Title, task.Project.Name),
			Type:        model.NotificationTypeTask,
			RelatedID:   &task.ID,
			RelatedType: "task",
		})
		if err != nil {
			log.Printf("notifier: task assigned: %v", err)
		}
	})
}

func (n *notifier) TaskCompleted(taskID, actorID uuid.UUID) {
	n.enqueue(func(ctx context.Context) {
		task, err := n.taskRepo.FindByID(ctx, taskID)
		if err != nil {
			log.Printf("notifier: task completed lookup: %v", err)
			return
		}
		actor, err := n.userRepo.FindByID(ctx, actorID)
		if err != nil {
			log.Printf("notifier: task completed actor lookup: %v", err)
			return
		}
		staff, err := n.membershipRepo.ListStaffByCompany(ctx, task.Project.CompanyID)
		if err != nil {
			log.Printf("notifier: task completed staff lookup: %v", err)
			return
		}
		var batch []model.Notification
		for _, m := range staff {
			if m.UserID == actorID {
				continue
			}
			batch = append(batch, model.Notification{
				UserID:      m.UserID,
				Title:       "Task completed",
				Message:     fmt.Sprintf("%s completed the task %q in project %q.", actor.FullName(), task.Title, task.Project.Name),
				Type:        model.NotificationTypeSuccess,
				RelatedID:   &task.ID,
				RelatedType: "task",
			})
		}
		if err := n.notificationRepo.CreateBatch(ctx, batch); err != nil {
			log.Printf("notifier: task completed: %v", err)
		}
	})
}

func (n *notifier) CommentAdded(taskID, authorID uuid.UUID) {
	n.enqueue(func(ctx context.Context) {
		task, err := n.taskRepo.FindByID(ctx, taskID)
		if err != nil {
			log.Printf("notifier: comment lookup: %v", err)
			return
		}
		author, err := n.userRepo.FindByID(ctx, authorID)
		if err != nil {
			log.Printf("notifier: comment author lookup: %v", err)
			return
		}

		// Assignee, creator and every distinct prior commenter, minus the
		// comment's author.
		recipients := make(map[uuid.UUID]struct{})
		if task.AssignedTo != nil && *task.AssignedTo != authorID {
			recipients[*task.AssignedTo] = struct{}{}
		}
		if task.CreatedBy != authorID {
			recipients[task.CreatedBy] = struct{}{}
		}
		commenters, err := n.taskRepo.DistinctCommenters(ctx, taskID, authorID)
		if err != nil {
			log.Printf("notifier: commenters lookup: %v", err)
			return
		}
		for _, id := range commenters {
			recipients[id] = struct{}{}
		}

		var batch []model.Notification
		for id := range recipients {
			batch = append(batch, model.Notification{
				UserID:      id,
				Title:       "New comment",
				Message:     fmt.Sprintf("%s commented on the task %q.", author.FullName(), task.Title),
				Type:        model.NotificationTypeComment,
				RelatedID:   &task.ID,
				RelatedType: "task",
			})
		}
		if err := n.notificationRepo.CreateBatch(ctx, batch); err != nil {
			log.Printf("notifier: comment: %v", err)
		}
	})
}

func (n *notifier) InvoiceCreated(invoiceID, companyID uuid.UUID) {
	n.enqueue(func(ctx context.Context) {
		invoice, err := n.invoiceRepo.FindByID(ctx, invoiceID)
		if err != nil {
			log.Printf("notifier: invoice lookup: %v", err)
			return
		}
		clients, err := n.membershipRepo.ListClientsByCompany(ctx, companyID)
		if err != nil {
			log.Printf("notifier: invoice clients lookup: %v", err)
			return
		}
		var batch []model.Notification
		for _, m := range clients {
			batch = append(batch, model.Notification{
				UserID:      m.UserID,
				Title:       "New invoice available",
				Message:     fmt.Sprintf("A new invoice (%s) was issued for %s.", invoice.InvoiceNumber, invoice.Company.Name),
				Type:        model.NotificationTypeInvoice,
				RelatedID:   &invoice.ID,
				RelatedType: "invoice",
			})
		}
		if err := n.notificationRepo.CreateBatch(ctx, batch); err != nil {
			log.Printf("notifier: invoice created: %v", err)
		}
	})
}

func (n *notifier) ContractSigned(contractID, companyID uuid.UUID) {
	n.enqueue(func(ctx context.Context) {
		contract, err := n.contractRepo.FindByID(ctx, contractID)
		if err != nil {
			log.Printf("notifier: contract lookup: %v", err)
			return
		}
		members, err := n.membershipRepo.ListByCompany(ctx, companyID)
		if err != nil {
			log.Printf("notifier: contract members lookup: %v", err)
			return
		}
		var batch []model.Notification
		for _, m := range members {
			batch = append(batch, model.Notification{
				UserID:      m.UserID,
				Title:       "Contract signed",
				Message:     fmt.Sprintf("The contract %q has been signed.", contract.Title),
				Type:        model.NotificationTypeSuccess,
				RelatedID:   &contract.ID,
				RelatedType: "contract",
			})
		}
		if err := n.notificationRepo.CreateBatch(ctx, batch); err != nil {
			log.Printf("notifier: contract signed: %v", err)
		}
	})
}
