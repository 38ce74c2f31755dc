package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/internal/domain/service"
	"skipped/pkg/errors"
	"skipped/pkg/logger"
)

type DisputeUseCase struct {
	disputeRepo     repository.DisputeRepository
	transactionRepo repository.TransactionRepository
	fileRepo        repository.FileMetadataRepository
	orderUseCase    *OrderUseCase
	gateway         service.PaymentGateway
	fileService     service.FileUploadService
	notifier        service.Notifier
}

func NewDisputeUseCase(
	disputeRepo repository.DisputeRepository,
	transactionRepo repository.TransactionRepository,
	fileRepo repository.FileMetadataRepository,
	orderUseCase *OrderUseCase,
	gateway service.PaymentGateway,
	fileService service.FileUploadService,
	notifier service.Notifier,
) *DisputeUseCase {
	return &DisputeUseCase{
		disputeRepo:     disputeRepo,
		transactionRepo: transactionRepo,
		fileRepo:        fileRepo,
		orderUseCase:    orderUseCase,
		gateway:         gateway,
		fileService:     fileService,
		notifier:        notifier,
	}
}

type OpenDisputeInput struct {
	Reason      string `json:"reason" validate:"required,oneof=not_received not_as_described damaged other"`
	Description string `json:"description" validate:"required,max=4000"`
}

// OpenDispute - Either party freezes the order until an admin resolves it
func (uc *DisputeUseCase) OpenDispute(ctx context.Context, userID, transactionID string, input OpenDisputeInput) (*entity.Dispute, error) {
	transaction, err := uc.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	role := transaction.RoleOf(userID)
	if role == "" {
		return nil, errors.Forbidden("You are not part of this order", nil)
	}
	if transaction.OrderStatus == entity.OrderStatusDisputed {
		return nil, errors.Conflict("This order is already under dispute")
	}
	if !entity.CanTransitionOrder(transaction.OrderStatus, entity.OrderStatusDisputed) {
		return nil, errors.BadRequest(fmt.Sprintf("Orders that are %s cannot be disputed", transaction.OrderStatus), nil)
	}

	now := time.Now()
	dispute := &entity.Dispute{
		ID:            uuid.New().String(),
		TransactionID: transaction.ID,
		ListingID:     transaction.ListingID,
		BuyerID:       transaction.BuyerID,
		SellerID:      transaction.SellerID,
		ReporterID:    userID,
		ReporterRole:  role,
		Reason:        input.Reason,
		Description:   input.Description,
		Evidence:      []entity.DisputeEvidence{},
		Status:        entity.DisputeStatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.disputeRepo.Create(ctx, dispute); err != nil {
		return nil, err
	}

	// the order only freezes once its dispute exists
	if err := uc.orderUseCase.transition(ctx, transaction, entity.OrderStatusDisputed, userID, "Dispute opened: "+input.Reason); err != nil {
		if delErr := uc.disputeRepo.Delete(ctx, dispute.ID); delErr != nil {
			logger.Error("Failed to remove dispute %s after order %s could not be frozen: %v", dispute.ID, transaction.ID, delErr)
		}
		return nil, err
	}

	logger.Info("Dispute %s opened on order %s by %s", dispute.ID, transaction.ID, role)

	other := transaction.SellerID
	if role == entity.RoleSeller {
		other = transaction.BuyerID
	}
	notify(ctx, uc.notifier, other, entity.NotificationDisputeOpened, map[string]interface{}{
		"dispute_id":     dispute.ID,
		"transaction_id": transaction.ID,
		"reason":         dispute.Reason,
	})
	return dispute, nil
}

// AddEvidence uploads a file against an open dispute.
func (uc *DisputeUseCase) AddEvidence(ctx context.Context, userID, disputeID, note string, upload UploadInput) (*entity.Dispute, error) {
	if uc.fileService == nil {
		return nil, errors.Provider("File storage is not configured", nil)
	}

	dispute, err := uc.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !dispute.IsParticipant(userID) {
		return nil, errors.Forbidden("You are not part of this dispute", nil)
	}
	if dispute.Status != entity.DisputeStatusOpen {
		return nil, errors.BadRequest("Evidence can only be added to open disputes", nil)
	}

	uploaded, err := uc.fileService.UploadFile(ctx, upload.File, upload.ContentType, "disputes/"+disputeID)
	if err != nil {
		return nil, errors.Provider("Failed to upload evidence", err)
	}

	now := time.Now()
	evidence := entity.DisputeEvidence{
		ID:         uuid.New().String(),
		FileURL:    uploaded.URL,
		Filename:   filepath.Base(upload.Filename),
		FileType:   upload.ContentType,
		Note:       note,
		UploadedBy: userID,
		UploadedAt: now,
	}
	if err := uc.disputeRepo.AddEvidence(ctx, disputeID, evidence); err != nil {
		if delErr := uc.fileService.DeleteFile(ctx, uploaded.ObjectName); delErr != nil {
			logger.Warn("Failed to delete orphaned evidence %s: %v", uploaded.ObjectName, delErr)
		}
		return nil, err
	}

	metadata := &entity.FileMetadata{
		ID:         evidence.ID,
		URL:        uploaded.URL,
		ObjectName: uploaded.ObjectName,
		EntityType: entity.FileEntityDispute,
		EntityID:   disputeID,
		UploadedBy: userID,
		Filename:   evidence.Filename,
		FileType:   upload.ContentType,
		FileSize:   upload.Size,
		CreatedAt:  now,
	}
	if err := uc.fileRepo.Create(ctx, metadata); err != nil {
		logger.Warn("Failed to record file metadata for %s: %v", uploaded.ObjectName, err)
	}

	return uc.disputeRepo.GetByID(ctx, disputeID)
}

func (uc *DisputeUseCase) GetDispute(ctx context.Context, principal *entity.Principal, id string) (*entity.Dispute, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !dispute.IsParticipant(principal.UID) && !principal.IsAdmin() {
		return nil, errors.Forbidden("You are not part of this dispute", nil)
	}
	return dispute, nil
}

func (uc *DisputeUseCase) ListDisputes(ctx context.Context, status string, limit, offset int) ([]*entity.Dispute, int64, error) {
	return uc.disputeRepo.List(ctx, status, limit, offset)
}

type ResolveDisputeInput struct {
	Resolution string `json:"resolution" validate:"required,oneof=refund_buyer release_seller"`
	Notes      string `json:"notes" validate:"max=4000"`
}

// ResolveDispute - Admin decision. Refunds go back through the payment provider first
// so a failed refund leaves the dispute open.
func (uc *DisputeUseCase) ResolveDispute(ctx context.Context, adminID, id string, input ResolveDisputeInput) (*entity.Dispute, error) {
	dispute, err := uc.disputeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dispute.Status != entity.DisputeStatusOpen {
		return nil, errors.Conflict("Dispute has already been resolved")
	}

	transaction, err := uc.transactionRepo.GetByID(ctx, dispute.TransactionID)
	if err != nil {
		return nil, err
	}

	switch input.Resolution {
	case entity.ResolutionRefundBuyer:
		refund, err := uc.gateway.CreateRefund(ctx, transaction.PaymentIntentID)
		if err != nil {
			return nil, errors.Provider("Failed to refund payment", err)
		}
		logger.Info("Refund %s issued for order %s", refund.ID, transaction.ID)

		transaction.PaymentStatus = entity.PaymentStatusRefunded
		if err := uc.orderUseCase.transition(ctx, transaction, entity.OrderStatusRefunded, adminID, "Dispute resolved: refund to buyer"); err != nil {
			return nil, err
		}
	case entity.ResolutionReleaseSeller:
		if err := uc.orderUseCase.transition(ctx, transaction, entity.OrderStatusCompleted, adminID, "Dispute resolved: funds released to seller"); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Validation("resolution must be one of: refund_buyer release_seller")
	}

	now := time.Now()
	dispute.Status = entity.DisputeStatusResolved
	dispute.Resolution = input.Resolution
	dispute.ResolutionNotes = input.Notes
	dispute.ResolvedBy = adminID
	dispute.ResolvedAt = &now
	dispute.UpdatedAt = now

	if err := uc.disputeRepo.Update(ctx, dispute); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"dispute_id":     dispute.ID,
		"transaction_id": transaction.ID,
		"resolution":     dispute.Resolution,
	}
	notify(ctx, uc.notifier, dispute.BuyerID, entity.NotificationDisputeResolved, data)
	notify(ctx, uc.notifier, dispute.SellerID, entity.NotificationDisputeResolved, data)
	return dispute, nil
}
