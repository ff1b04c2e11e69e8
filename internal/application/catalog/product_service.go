package catalog

import (
	"context"
	"errors"

	appshared "github.com/ehr/pharmacy/internal/application/shared"
	"github.com/ehr/pharmacy/internal/domain/audit"
	"github.com/ehr/pharmacy/internal/domain/catalog"
	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/domain/schedule"
	"github.com/ehr/pharmacy/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductService registers products and keeps their schedules in step with
// the canonical chemical registry
type ProductService struct {
	repos  appshared.Repositories
	scope  appshared.TransactionScope
	audit  *appshared.AuditRecorder
	clock  shared.Clock
	logger *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	repos appshared.Repositories,
	scope appshared.TransactionScope,
	recorder *appshared.AuditRecorder,
	clock shared.Clock,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		repos:  repos,
		scope:  scope,
		audit:  recorder,
		clock:  clock,
		logger: logger,
	}
}

// RegisterProduct creates a product. If the chemical already has a canonical
// schedule the product must be at least as strict; otherwise the product's
// symbol becomes the chemical's DERIVED schedule.
func (s *ProductService) RegisterProduct(ctx context.Context, actor identity.Actor, req RegisterProductRequest) (*ProductResponse, error) {
	symbol, err := schedule.ParseSymbol(req.ScheduleSymbol)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	product, err := catalog.NewProduct(req.ChemicalName, req.BrandName, req.Strength, req.Form, symbol, now)
	if err != nil {
		return nil, err
	}
	if req.PackSize > 0 {
		if err := product.SetPack(req.PackType, req.PackSize); err != nil {
			return nil, err
		}
	}
	product.RackRef = req.RackRef

	err = s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		canonical, err := findSchedule(ctx, repos, product.ChemicalName)
		if err != nil {
			return err
		}
		if canonical != nil {
			if err := canonical.Admits(product.ScheduleSymbol); err != nil {
				return err
			}
		} else {
			derived, err := schedule.NewChemicalSchedule(product.ChemicalName, product.ScheduleSymbol, schedule.SourceDerived, now)
			if err != nil {
				return err
			}
			if err := repos.Schedules().Save(ctx, derived); err != nil {
				return err
			}
		}
		return repos.Products().Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product registered",
		zap.String("product_id", product.ID.String()),
		zap.String("chemical", product.ChemicalName),
		zap.String("schedule", product.ScheduleSymbol.String()),
	)
	s.audit.Record(ctx, actor, audit.ActionProductRegistered, "product", product.ID.String(), nil, ToProductResponse(product))

	resp := ToProductResponse(product)
	return &resp, nil
}

// SetChemicalSchedule is an admin decision on a chemical's schedule. It is
// propagated to every product of that chemical.
func (s *ProductService) SetChemicalSchedule(ctx context.Context, actor identity.Actor, chemical string, req SetScheduleRequest) (*PropagationResponse, error) {
	if !actor.Role.CanApprove() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only an admin or pharmacist can set chemical schedules")
	}
	symbol, err := schedule.ParseSymbol(req.Symbol)
	if err != nil {
		return nil, err
	}
	return s.PropagateSchedule(ctx, actor, chemical, symbol, schedule.SourceAdmin)
}

// PropagateSchedule runs in two visible steps: the canonical record is
// escalated first, then each product of the chemical is raised to the new
// symbol unless it is already stricter. A downgrade of the canonical record
// fails and nothing changes.
func (s *ProductService) PropagateSchedule(
	ctx context.Context,
	actor identity.Actor,
	chemical string,
	symbol schedule.Symbol,
	source schedule.Source,
) (*PropagationResponse, error) {
	name := schedule.NormalizeChemical(chemical)
	if name == "" {
		return nil, shared.NewValidationError("chemical name cannot be empty")
	}
	now := s.clock.Now()

	var (
		before    *schedule.Symbol
		canonical *schedule.ChemicalSchedule
		resp      PropagationResponse
	)
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		canonical, err = findSchedule(ctx, repos, name)
		if err != nil {
			return err
		}
		if canonical == nil {
			canonical, err = schedule.NewChemicalSchedule(name, symbol, source, now)
			if err != nil {
				return err
			}
		} else {
			prev := canonical.Symbol
			before = &prev
			if err := canonical.Escalate(symbol, source, now); err != nil {
				return err
			}
		}
		if err := repos.Schedules().Save(ctx, canonical); err != nil {
			return err
		}

		products, err := repos.Products().FindByChemical(ctx, name)
		if err != nil {
			return err
		}
		resp.Escalated = make([]ProductResponse, 0, len(products))
		for i := range products {
			p := &products[i]
			if !p.EscalateSchedule(symbol, now) {
				resp.Unchanged++
				continue
			}
			if err := repos.Products().Save(ctx, p); err != nil {
				return err
			}
			resp.Escalated = append(resp.Escalated, ToProductResponse(p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp.Schedule = ToChemicalScheduleResponse(canonical)

	s.logger.Info("chemical schedule propagated",
		zap.String("chemical", name),
		zap.String("symbol", symbol.String()),
		zap.String("source", string(source)),
		zap.Int("escalated", len(resp.Escalated)),
		zap.Int("unchanged", resp.Unchanged),
	)
	var beforeSnap any
	if before != nil {
		beforeSnap = map[string]string{"symbol": before.String()}
	}
	s.audit.Record(ctx, actor, audit.ActionScheduleChanged, "chemical", name, beforeSnap, resp)
	return &resp, nil
}

// GetChemicalSchedule returns the canonical schedule of a chemical
func (s *ProductService) GetChemicalSchedule(ctx context.Context, chemical string) (*ChemicalScheduleResponse, error) {
	cs, err := s.repos.Schedules().FindByChemical(ctx, schedule.NormalizeChemical(chemical))
	if err != nil {
		return nil, err
	}
	resp := ToChemicalScheduleResponse(cs)
	return &resp, nil
}

// GetPolicy returns the dispensing policy of a schedule symbol
func (s *ProductService) GetPolicy(symbol string) (*PolicyResponse, error) {
	sym, err := schedule.ParseSymbol(symbol)
	if err != nil {
		return nil, err
	}
	p := schedule.GetPolicy(sym)
	return &PolicyResponse{
		Symbol:        sym.String(),
		RequiresRx:    p.RequiresRx,
		RetentionDays: p.RetentionDays,
		ExtraFields:   p.ExtraFields,
	}, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.repos.Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(p)
	return &resp, nil
}

// ListProducts lists products with pagination
func (s *ProductService) ListProducts(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	f := shared.DefaultFilter()
	f.OrderBy = "brand_name"
	f.OrderDir = "asc"
	f.Search = filter.Search
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}

	products, err := s.repos.Products().FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Products().Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out, total, nil
}

func findSchedule(ctx context.Context, repos appshared.Repositories, chemical string) (*schedule.ChemicalSchedule, error) {
	cs, err := repos.Schedules().FindByChemical(ctx, chemical)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return cs, err
}
