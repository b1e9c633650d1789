package marketing

import (
	"context"

	"github.com/storefront/backend/internal/domain/marketing"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ContactService stores contact form submissions for the back office
type ContactService struct {
	repo   marketing.ContactRequestRepository
	logger *zap.Logger
}

// NewContactService creates a new ContactService
func NewContactService(repo marketing.ContactRequestRepository, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{repo: repo, logger: logger}
}

// Submit validates and stores a contact request
func (s *ContactService) Submit(ctx context.Context, input ContactInput) (*ContactResponse, error) {
	req, err := marketing.NewContactRequest(input.Name, input.Email, input.Subject, input.Message, input.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info("Contact request received", zap.String("contact_id", req.ID.String()))
	resp := toContactResponse(req)
	return &resp, nil
}

// List returns contact requests, newest first
func (s *ContactService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[ContactResponse], error) {
	filter = filter.Normalize()
	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		switch marketing.ContactStatus(status) {
		case marketing.ContactStatusNew, marketing.ContactStatusResolved:
		default:
			return nil, shared.NewDomainError(shared.CodeValidation, "Unknown contact status")
		}
	}

	requests, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ContactResponse, 0, len(requests))
	for i := range requests {
		items = append(items, toContactResponse(&requests[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}
