package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/talent-pipeline/internal/db"
	"github.com/jonathan/talent-pipeline/internal/logger"
	"github.com/jonathan/talent-pipeline/internal/notify"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// Manager owns every mutation of offers and JDs outside screening.
type Manager struct {
	store     db.Store
	notifier  notify.Notifier
	generator JDGenerator
	baseURL   string
	newToken  func() (string, error)
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier sets the notifier used for assignment and invite mail.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithGenerator enables AI-assisted JD creation.
func WithGenerator(g JDGenerator) Option {
	return func(m *Manager) { m.generator = g }
}

// WithPublicBaseURL sets the base of public JD links in invitations.
func WithPublicBaseURL(u string) Option {
	return func(m *Manager) { m.baseURL = strings.TrimRight(u, "/") }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger.OrNop(l) }
}

func withTokenSource(f func() (string, error)) Option {
	return func(m *Manager) { m.newToken = f }
}

// NewManager creates a Manager.
func NewManager(store db.Store, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		newToken: NewPublicToken,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = notify.NewLogNotifier(m.logger)
	}
	return m
}

func requireRole(actor *types.Principal, roles ...types.Role) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return &types.ForbiddenError{Reason: fmt.Sprintf("role %q may not perform this action", actor.Role)}
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &types.ValidationError{Field: field, Message: "must be a UUID"}
	}
	return id, nil
}

// loadRecruiter returns the staff user an offer may be assigned to.
func (m *Manager) loadRecruiter(ctx context.Context, id uuid.UUID) (*types.User, error) {
	u, err := m.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignee: %w", err)
	}
	if u == nil {
		return nil, &types.NotFoundError{Kind: "user", ID: id.String()}
	}
	if u.Role == types.RoleCandidate {
		return nil, &types.ValidationError{Field: "assignedTo", Message: "offers can only be assigned to staff"}
	}
	return u, nil
}

func (m *Manager) loadOffer(ctx context.Context, id uuid.UUID) (*types.Offer, error) {
	offer, err := m.store.GetOffer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	if offer == nil {
		return nil, &types.NotFoundError{Kind: "offer", ID: id.String()}
	}
	return offer, nil
}

func (m *Manager) notifyAssignee(ctx context.Context, recruiter *types.User, offer *types.Offer) {
	if err := m.notifier.Send(ctx, notify.OfferAssigned(recruiter, offer)); err != nil {
		m.logger.Warn("assignment notification failed",
			zap.String(logger.FieldOfferID, offer.ID.String()),
			zap.Error(err))
	}
}

// CreateOffer opens an offer in "JD pending" and notifies the assignee.
func (m *Manager) CreateOffer(ctx context.Context, actor *types.Principal, req types.CreateOfferRequest) (*types.Offer, error) {
	if err := requireRole(actor, types.RoleAdmin, types.RoleRMG); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	assigneeID, err := parseID("assignedTo", req.AssignedTo)
	if err != nil {
		return nil, err
	}
	recruiter, err := m.loadRecruiter(ctx, assigneeID)
	if err != nil {
		return nil, err
	}

	offer := &types.Offer{
		JobTitle:          strings.TrimSpace(req.JobTitle),
		Priority:          req.Priority,
		Status:            types.OfferStatusJDPending,
		DueDate:           req.DueDate,
		CreatedBy:         actor.UserID,
		AssignedTo:        recruiter.ID,
		Description:       req.Description,
		Skills:            req.Skills,
		PreferredSkills:   req.PreferredSkills,
		Experience:        req.Experience,
		PositionAvailable: req.PositionAvailable,
		Location:          req.Location,
		City:              req.City,
		State:             req.State,
		Country:           req.Country,
		EmploymentType:    types.EmploymentType(req.EmploymentType),
		Salary:            req.Salary,
		Currency:          strings.ToUpper(req.Currency),
		CompanyName:       req.CompanyName,
	}
	if offer.Priority == "" {
		offer.Priority = types.PriorityMedium
	}
	if offer.Currency == "" {
		offer.Currency = types.DefaultCurrency
	}
	if offer.PositionAvailable == 0 {
		offer.PositionAvailable = 1
	}

	if err := m.store.CreateOffer(ctx, offer); err != nil {
		return nil, err
	}
	m.logger.Info("offer created",
		zap.String(logger.FieldOfferID, offer.ID.String()),
		zap.String("assigned_to", recruiter.ID.String()))
	m.notifyAssignee(ctx, recruiter, offer)
	return offer, nil
}

// AssignRecruiter re-assigns an offer. Its status does not change.
func (m *Manager) AssignRecruiter(ctx context.Context, actor *types.Principal, offerID uuid.UUID, req types.AssignOfferRequest) (*types.Offer, error) {
	if err := requireRole(actor, types.RoleAdmin, types.RoleRMG); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	assigneeID, err := parseID("assignedTo", req.AssignedTo)
	if err != nil {
		return nil, err
	}
	offer, err := m.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status == types.OfferStatusClosed {
		return nil, &InvalidTransitionError{From: offer.Status, To: offer.Status, Reason: "closed offers cannot be re-assigned"}
	}
	recruiter, err := m.loadRecruiter(ctx, assigneeID)
	if err != nil {
		return nil, err
	}

	offer.AssignedTo = recruiter.ID
	if err := m.store.UpdateOffer(ctx, offer); err != nil {
		return nil, err
	}
	m.logger.Info("offer assigned",
		zap.String(logger.FieldOfferID, offer.ID.String()),
		zap.String("assigned_to", recruiter.ID.String()))
	m.notifyAssignee(ctx, recruiter, offer)
	return offer, nil
}

// UpdateStatus performs an administrative forward transition.
func (m *Manager) UpdateStatus(ctx context.Context, actor *types.Principal, offerID uuid.UUID, req types.UpdateOfferStatusRequest) (*types.Offer, error) {
	if err := requireRole(actor, types.RoleAdmin, types.RoleRMG); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	offer, err := m.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	to := types.OfferStatus(req.Status)
	if err := CheckTransition(offer, to); err != nil {
		return nil, err
	}

	from := offer.Status
	offer.Status = to
	if err := m.store.UpdateOffer(ctx, offer); err != nil {
		return nil, err
	}
	m.logger.Info("offer status changed",
		zap.String(logger.FieldOfferID, offer.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return offer, nil
}

// GetOffer returns an offer visible to the actor. Recruiters see only offers assigned to them.
func (m *Manager) GetOffer(ctx context.Context, actor *types.Principal, offerID uuid.UUID) (*types.Offer, error) {
	if err := requireRole(actor, types.RoleAdmin, types.RoleRMG, types.RoleHR); err != nil {
		return nil, err
	}
	offer, err := m.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actor.Role == types.RoleHR && offer.AssignedTo != actor.UserID {
		return nil, &types.ForbiddenError{Reason: "offer is assigned to another recruiter"}
	}
	return offer, nil
}

// ListOffers returns the offers visible to the actor: all for admins, created ones
// for requesters and assigned ones for recruiters.
func (m *Manager) ListOffers(ctx context.Context, actor *types.Principal) ([]types.Offer, error) {
	var filter db.OfferFilter
	switch actor.Role {
	case types.RoleAdmin:
	case types.RoleRMG:
		filter.CreatedBy = &actor.UserID
	case types.RoleHR:
		filter.AssignedTo = &actor.UserID
	default:
		return nil, &types.ForbiddenError{Reason: fmt.Sprintf("role %q may not list offers", actor.Role)}
	}
	return m.store.ListOffers(ctx, filter)
}

// UpdateOffer applies the non-nil fields of req. Requesters may only edit offers
// they created. Closed offers are read-only.
func (m *Manager) UpdateOffer(ctx context.Context, actor *types.Principal, offerID uuid.UUID, req types.UpdateOfferRequest) (*types.Offer, error) {
	if err := requireRole(actor, types.RoleAdmin, types.RoleRMG); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	offer, err := m.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actor.Role == types.RoleRMG && offer.CreatedBy != actor.UserID {
		return nil, &types.ForbiddenError{Reason: "offer was created by another requester"}
	}
	if offer.Status == types.OfferStatusClosed {
		return nil, &InvalidTransitionError{From: offer.Status, To: offer.Status, Reason: "closed offers cannot be edited"}
	}

	from := offer.Status
	if req.Status != nil && types.OfferStatus(*req.Status) != offer.Status {
		to := types.OfferStatus(*req.Status)
		if err := CheckTransition(offer, to); err != nil {
			return nil, err
		}
		offer.Status = to
	}
	applyOfferEdits(offer, &req)

	if err := m.store.UpdateOffer(ctx, offer); err != nil {
		return nil, err
	}
	m.logger.Info("offer updated",
		zap.String(logger.FieldOfferID, offer.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(offer.Status)))
	return offer, nil
}

func applyOfferEdits(offer *types.Offer, req *types.UpdateOfferRequest) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	if req.JobTitle != nil {
		offer.JobTitle = strings.TrimSpace(*req.JobTitle)
	}
	if req.Priority != nil && *req.Priority != "" {
		offer.Priority = *req.Priority
	}
	if req.DueDate != nil {
		d := *req.DueDate
		offer.DueDate = &d
	}
	setString(&offer.Description, req.Description)
	setString(&offer.Experience, req.Experience)
	setString(&offer.Location, req.Location)
	setString(&offer.City, req.City)
	setString(&offer.State, req.State)
	setString(&offer.Country, req.Country)
	setString(&offer.CompanyName, req.CompanyName)
	if req.Skills != nil {
		offer.Skills = req.Skills
	}
	if req.PreferredSkills != nil {
		offer.PreferredSkills = req.PreferredSkills
	}
	if req.PositionAvailable != nil {
		offer.PositionAvailable = *req.PositionAvailable
	}
	if req.EmploymentType != nil {
		offer.EmploymentType = types.EmploymentType(*req.EmploymentType)
	}
	if req.Salary != nil {
		offer.Salary = *req.Salary
	}
	if req.Currency != nil && *req.Currency != "" {
		offer.Currency = strings.ToUpper(*req.Currency)
	}
}

// ListRecruiters returns the users an offer can be assigned to.
func (m *Manager) ListRecruiters(ctx context.Context, actor *types.Principal) ([]types.User, error) {
	if err := requireRole(actor, types.RoleAdmin, types.RoleRMG); err != nil {
		return nil, err
	}
	users, err := m.store.ListUsers(ctx, types.RoleHR)
	if err != nil {
		return nil, fmt.Errorf("failed to list recruiters: %w", err)
	}
	return users, nil
}
