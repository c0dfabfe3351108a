// Package resolution selects the item that will fulfil a patron request from
// the member records of a bibliographic cluster.
package resolution

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
)

type clusterRepo interface {
	GetCluster(ctx context.Context, id uuid.UUID) (domain.BibCluster, error)
	ListBibs(ctx context.Context, clusterID uuid.UUID) ([]domain.BibRecord, error)
}

type agencyRepo interface {
	GetAgency(ctx context.Context, code string) (domain.Agency, error)
}

type itemMapper interface {
	IsLoanable(ctx context.Context, system, localItemType string) (bool, string, error)
	LocationToAgency(ctx context.Context, system, locationCode string) (string, error)
}

type clientRegistry interface {
	Lookup(code string) (ils.Client, error)
	Statuses(code string) (*ils.StatusTable, error)
}

// maxConcurrentFetches bounds parallel item lookups across member records.
const maxConcurrentFetches = 8

// Parameters describe one resolution.
type Parameters struct {
	PatronRequestID     uuid.UUID
	ClusterID           uuid.UUID
	BorrowingAgencyCode string
	PickupAgencyCode    string
	// RequestedItem pins the selection to one item when set.
	RequestedItem *domain.RequestedItem
}

// Candidate is an available, loanable item that could fulfil the request.
type Candidate struct {
	Item              ils.Item
	HostLmsCode       string
	AgencyCode        string
	Priority          int
	CanonicalItemType string
}

// Resolution is the outcome of Resolve. Chosen is nil when no item is
// available anywhere.
type Resolution struct {
	Chosen     *Candidate
	Candidates []Candidate
	Workflow   domain.Workflow
}

// Resolver selects items. It holds no per-request state.
type Resolver struct {
	clusters            clusterRepo
	agencies            agencyRepo
	mapper              itemMapper
	registry            clientRegistry
	ownLibraryBorrowing bool
	log                 *slog.Logger
}

// NewResolver creates a Resolver. With ownLibraryBorrowing set, items held
// by the borrowing agency are preferred and lead to the local workflow;
// otherwise they are never selected.
func NewResolver(
	log *slog.Logger,
	clusters clusterRepo,
	agencies agencyRepo,
	mapper itemMapper,
	registry clientRegistry,
	ownLibraryBorrowing bool,
) *Resolver {
	return &Resolver{
		clusters:            clusters,
		agencies:            agencies,
		mapper:              mapper,
		registry:            registry,
		ownLibraryBorrowing: ownLibraryBorrowing,
		log:                 log.With("service", "resolution"),
	}
}

// Resolve gathers candidates from every member record of the cluster and
// picks the first in a deterministic order. A missing cluster or a cluster
// without members is a *domain.ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, p Parameters) (Resolution, error) {
	if _, err := r.clusters.GetCluster(ctx, p.ClusterID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Resolution{}, &domain.ResolutionError{ClusterID: p.ClusterID.String(), Reason: "cluster not found"}
		}
		return Resolution{}, fmt.Errorf("load cluster %s: %w", p.ClusterID, err)
	}

	bibs, err := r.clusters.ListBibs(ctx, p.ClusterID)
	if err != nil {
		return Resolution{}, fmt.Errorf("list bibs of cluster %s: %w", p.ClusterID, err)
	}
	if len(bibs) == 0 {
		return Resolution{}, &domain.ResolutionError{ClusterID: p.ClusterID.String(), Reason: "cluster has no member records"}
	}
	if p.RequestedItem != nil {
		bibs = slices.DeleteFunc(bibs, func(b domain.BibRecord) bool {
			return b.SourceSystemCode != p.RequestedItem.LocalSystemCode
		})
	}

	candidates, err := r.gather(ctx, p, bibs)
	if err != nil {
		return Resolution{}, err
	}
	r.sort(candidates, p.BorrowingAgencyCode)

	res := Resolution{Candidates: candidates}
	if len(candidates) > 0 {
		chosen := candidates[0]
		res.Chosen = &chosen
		res.Workflow = DetermineWorkflow(chosen.AgencyCode, p.BorrowingAgencyCode, p.PickupAgencyCode, r.ownLibraryBorrowing)
	}

	r.log.InfoContext(ctx, "resolution complete",
		slog.String("patron_request_id", p.PatronRequestID.String()),
		slog.String("cluster_id", p.ClusterID.String()),
		slog.Int("bibs", len(bibs)),
		slog.Int("candidates", len(candidates)),
		slog.String("workflow", string(res.Workflow)),
	)
	return res, nil
}

// DetermineWorkflow derives the fulfilment path from the agencies involved.
func DetermineWorkflow(supplyingAgency, borrowingAgency, pickupAgency string, ownLibraryBorrowing bool) domain.Workflow {
	switch {
	case ownLibraryBorrowing && borrowingAgency != "" && supplyingAgency == borrowingAgency:
		return domain.WorkflowLocal
	case pickupAgency != "" && pickupAgency != borrowingAgency:
		return domain.WorkflowPickupAnywhere
	default:
		return domain.WorkflowStandard
	}
}

// gather fetches the items of every bib concurrently. A failing system is
// skipped unless every fetch failed.
func (r *Resolver) gather(ctx context.Context, p Parameters, bibs []domain.BibRecord) ([]Candidate, error) {
	var (
		mu         sync.Mutex
		candidates []Candidate
		fetchErrs  []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, bib := range bibs {
		g.Go(func() error {
			found, err := r.candidatesFor(gctx, p, bib)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				r.log.WarnContext(gctx, "skipping member record",
					slog.String("host_lms", bib.SourceSystemCode),
					slog.String("bib_id", bib.SourceRecordID),
					slog.String("error", err.Error()),
				)
				fetchErrs = append(fetchErrs, err)
				return nil
			}
			candidates = append(candidates, found...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(bibs) > 0 && len(fetchErrs) == len(bibs) {
		return nil, fmt.Errorf("fetch items for cluster %s: %w", p.ClusterID, errors.Join(fetchErrs...))
	}
	return candidates, nil
}

func (r *Resolver) candidatesFor(ctx context.Context, p Parameters, bib domain.BibRecord) ([]Candidate, error) {
	client, err := r.registry.Lookup(bib.SourceSystemCode)
	if err != nil {
		return nil, err
	}
	table, err := r.registry.Statuses(bib.SourceSystemCode)
	if err != nil {
		return nil, err
	}

	items, err := client.GetItems(ctx, bib.SourceRecordID)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, item := range items {
		if item.BibID == "" {
			item.BibID = bib.SourceRecordID
		}
		if p.RequestedItem != nil && item.LocalID != p.RequestedItem.LocalID {
			continue
		}
		c, ok, err := r.evaluate(ctx, bib.SourceSystemCode, table, item)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if p.RequestedItem != nil && p.RequestedItem.AgencyCode != "" && c.AgencyCode != p.RequestedItem.AgencyCode {
			continue
		}
		if !r.ownLibraryBorrowing && p.BorrowingAgencyCode != "" && c.AgencyCode == p.BorrowingAgencyCode {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// evaluate reports whether item is requestable and, if so, its candidate form.
func (r *Resolver) evaluate(ctx context.Context, system string, table *ils.StatusTable, item ils.Item) (Candidate, bool, error) {
	if item.Suppressed || item.HoldCount > 0 {
		return Candidate{}, false, nil
	}
	if status, ok := table.MapItemStatus(item.Status); !ok || status != domain.ItemStatusAvailable {
		return Candidate{}, false, nil
	}

	loanable, canonicalType, err := r.mapper.IsLoanable(ctx, system, item.LocalItemType)
	if err != nil {
		return Candidate{}, false, err
	}
	if !loanable {
		return Candidate{}, false, nil
	}

	agencyCode, err := r.mapper.LocationToAgency(ctx, system, item.LocationCode)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		agencyCode = item.AgencyCode
	case err != nil:
		return Candidate{}, false, err
	}
	if agencyCode == "" {
		return Candidate{}, false, nil
	}

	agency, err := r.agencies.GetAgency(ctx, agencyCode)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.log.WarnContext(ctx, "item mapped to unknown agency",
			slog.String("host_lms", system),
			slog.String("item_id", item.LocalID),
			slog.String("agency", agencyCode),
		)
		return Candidate{}, false, nil
	case err != nil:
		return Candidate{}, false, err
	}

	return Candidate{
		Item:              item,
		HostLmsCode:       system,
		AgencyCode:        agency.Code,
		Priority:          agency.Priority,
		CanonicalItemType: canonicalType,
	}, true, nil
}

func (r *Resolver) sort(candidates []Candidate, borrowingAgency string) {
	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		if r.ownLibraryBorrowing && borrowingAgency != "" {
			aLocal, bLocal := a.AgencyCode == borrowingAgency, b.AgencyCode == borrowingAgency
			if aLocal != bLocal {
				if aLocal {
					return -1
				}
				return 1
			}
		}
		return cmp.Or(
			cmp.Compare(a.Priority, b.Priority),
			cmp.Compare(a.AgencyCode, b.AgencyCode),
			cmp.Compare(a.HostLmsCode, b.HostLmsCode),
			cmp.Compare(a.Item.BibID, b.Item.BibID),
			cmp.Compare(a.Item.LocalID, b.Item.LocalID),
		)
	})
}
