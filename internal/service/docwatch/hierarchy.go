package docwatch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/nglaszik/docwatch/internal/config"
	"github.com/nglaszik/docwatch/internal/domain"
	models "github.com/nglaszik/docwatch/internal/domain/models/docwatch"
	"github.com/nglaszik/docwatch/internal/domain/repositories"
	docwatchRepo "github.com/nglaszik/docwatch/internal/domain/repositories/docwatch"
	docwatchSvc "github.com/nglaszik/docwatch/internal/domain/services/docwatch"
)

type hierarchyService struct {
	nodeRepo  docwatchRepo.NodeRepository
	docRepo   docwatchRepo.DocumentRepository
	txManager repositories.TransactionManager
	locks     *keyedMutex
	retry     RetryPolicy
	logger    *slog.Logger
}

// NewHierarchyService creates a new hierarchy service
func NewHierarchyService(
	nodeRepo docwatchRepo.NodeRepository,
	docRepo docwatchRepo.DocumentRepository,
	txManager repositories.TransactionManager,
	retry RetryPolicy,
	logger *slog.Logger,
) docwatchSvc.HierarchyService {
	return &hierarchyService{
		nodeRepo:  nodeRepo,
		docRepo:   docRepo,
		txManager: txManager,
		locks:     newKeyedMutex(),
		retry:     retry,
		logger:    logger,
	}
}

// mutate runs fn as one transaction while holding the owner's hierarchy lock,
// both in-process and in the database.
func (s *hierarchyService) mutate(ctx context.Context, owner, op string, fn func(ctx context.Context) error) error {
	unlock := s.locks.Lock(owner)
	defer unlock()

	return withRetry(ctx, s.retry, s.logger, op, func() error {
		return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
			if err := s.nodeRepo.LockOwner(txCtx, owner); err != nil {
				return err
			}
			return fn(txCtx)
		})
	})
}

// ListChildren lists direct children and the breadcrumb path of parentID
func (s *hierarchyService) ListChildren(ctx context.Context, owner string, parentID *string) (*models.Listing, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	parentID = rootIfEmpty(parentID)

	listing := &models.Listing{Breadcrumbs: []models.Breadcrumb{}}
	err := withRetry(ctx, s.retry, s.logger, "list children", func() error {
		listing.Breadcrumbs = []models.Breadcrumb{}

		if parentID != nil {
			chain, err := s.nodeRepo.ListAncestors(ctx, owner, *parentID, config.MaxHierarchyDepth)
			if err != nil {
				return err
			}
			if !chain[0].IsFolder() {
				return notAFolder(chain[0])
			}
			listing.Breadcrumbs = breadcrumbs(chain)
		}

		children, err := s.nodeRepo.ListChildren(ctx, owner, parentID)
		if err != nil {
			return err
		}
		listing.Nodes = children
		return nil
	})
	if err != nil {
		return nil, err
	}

	return listing, nil
}

// CreateFolder creates a folder under req.ParentID
func (s *hierarchyService) CreateFolder(ctx context.Context, req *docwatchSvc.CreateFolderRequest) (*models.Folder, error) {
	req.Name = trimmed(req.Name)
	req.ParentID = rootIfEmpty(req.ParentID)
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	name := models.DefaultFolderName
	if req.Name != nil {
		name = *req.Name
	}

	now := now()
	folder := &models.Folder{NodeBase: models.NodeBase{
		Owner:     req.Owner,
		ParentID:  req.ParentID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}}

	err := s.mutate(ctx, req.Owner, "create folder", func(ctx context.Context) error {
		if err := s.requireRoomFor(ctx, req.Owner, req.ParentID, 1); err != nil {
			return err
		}
		folder.ID = uuid.NewString()
		return s.nodeRepo.Create(ctx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner", folder.Owner,
		"parent_id", folder.ParentID,
	)

	return folder, nil
}

// PlaceDocument places a tracked document under req.ParentID
func (s *hierarchyService) PlaceDocument(ctx context.Context, req *docwatchSvc.PlaceDocumentRequest) (*models.Placement, error) {
	req.DocID = normalizeDocID(req.DocID)
	req.Name = trimmed(req.Name)
	req.ParentID = rootIfEmpty(req.ParentID)
	if err := s.validatePlaceRequest(req); err != nil {
		return nil, err
	}

	var placement *models.Placement
	err := s.mutate(ctx, req.Owner, "place document", func(ctx context.Context) error {
		doc, err := s.docRepo.GetByID(ctx, req.DocID)
		if err != nil {
			return err
		}
		if err := s.requireRoomFor(ctx, req.Owner, req.ParentID, 1); err != nil {
			return err
		}

		existing, err := s.nodeRepo.FindPlacement(ctx, req.Owner, req.DocID)
		if err != nil {
			return err
		}
		if existing != nil {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document %s is already placed in this hierarchy", req.DocID),
				ResourceType: "placement",
				ResourceID:   existing.ID,
			}
		}

		name := doc.Name
		if req.Name != nil {
			name = *req.Name
		}

		now := now()
		placement = &models.Placement{
			NodeBase: models.NodeBase{
				ID:        uuid.NewString(),
				Owner:     req.Owner,
				ParentID:  req.ParentID,
				Name:      name,
				CreatedAt: now,
				UpdatedAt: now,
			},
			DocID:         doc.DocID,
			DocumentOwner: doc.Owner,
			LastUpdated:   doc.LastUpdated,
		}
		return s.nodeRepo.Create(ctx, placement)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document placed",
		"id", placement.ID,
		"doc_id", placement.DocID,
		"owner", placement.Owner,
		"parent_id", placement.ParentID,
	)

	return placement, nil
}

// Move reparents a node. The new parent's ancestor chain is checked inside the
// same transaction that writes, so no concurrent move can slip a cycle in.
func (s *hierarchyService) Move(ctx context.Context, owner, nodeID string, newParentID *string) (models.Node, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	newParentID = rootIfEmpty(newParentID)

	var node models.Node
	err := s.mutate(ctx, owner, "move node", func(ctx context.Context) error {
		var err error
		if node, err = s.nodeRepo.GetByID(ctx, owner, nodeID); err != nil {
			return err
		}

		if newParentID != nil {
			chain, err := s.nodeRepo.ListAncestors(ctx, owner, *newParentID, config.MaxHierarchyDepth)
			if err != nil {
				return err
			}
			if slices.ContainsFunc(chain, func(n models.Node) bool { return n.Base().ID == nodeID }) {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("cannot move %s into itself or one of its descendants", nodeID),
					ResourceType: "node",
					ResourceID:   *newParentID,
				}
			}
			if !chain[0].IsFolder() {
				return notAFolder(chain[0])
			}
			height, err := s.nodeRepo.SubtreeHeight(ctx, owner, nodeID, config.MaxHierarchyDepth)
			if err != nil {
				return err
			}
			if err := checkDepth(*newParentID, len(chain)+height); err != nil {
				return err
			}
		}

		base := node.Base()
		base.ParentID = newParentID
		base.UpdatedAt = now()
		return s.nodeRepo.UpdateParent(ctx, owner, nodeID, newParentID, base.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("node moved",
		"id", nodeID,
		"owner", owner,
		"parent_id", newParentID,
	)

	return node, nil
}

// Rename changes a node's display name
func (s *hierarchyService) Rename(ctx context.Context, owner, nodeID, name string) (models.Node, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	name = *trimmed(&name)
	if err := asValidation(validation.Errors{"name": validation.Validate(name, nameRules...)}.Filter()); err != nil {
		return nil, err
	}

	var node models.Node
	err := s.mutate(ctx, owner, "rename node", func(ctx context.Context) error {
		if err := s.nodeRepo.UpdateName(ctx, owner, nodeID, name, now()); err != nil {
			return err
		}
		var err error
		node, err = s.nodeRepo.GetByID(ctx, owner, nodeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("node renamed", "id", nodeID, "owner", owner, "name", name)

	return node, nil
}

// Delete removes a node and its whole subtree. Documents and their revisions
// and watchlist entries are not touched.
func (s *hierarchyService) Delete(ctx context.Context, owner, nodeID string) (int, error) {
	if err := validateOwner(owner); err != nil {
		return 0, err
	}

	var removed int
	err := s.mutate(ctx, owner, "delete node", func(ctx context.Context) error {
		var err error
		removed, err = s.nodeRepo.DeleteSubtree(ctx, owner, nodeID)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("node deleted", "id", nodeID, "owner", owner, "removed", removed)

	return removed, nil
}

// requireRoomFor checks that parentID is nil or an existing folder of owner with
// room for height more levels below it.
func (s *hierarchyService) requireRoomFor(ctx context.Context, owner string, parentID *string, height int) error {
	if parentID == nil {
		return nil
	}
	chain, err := s.nodeRepo.ListAncestors(ctx, owner, *parentID, config.MaxHierarchyDepth)
	if err != nil {
		return err
	}
	if !chain[0].IsFolder() {
		return notAFolder(chain[0])
	}
	return checkDepth(*parentID, len(chain)+height)
}

func (s *hierarchyService) validateCreateRequest(req *docwatchSvc.CreateFolderRequest) error {
	return asValidation(validation.ValidateStruct(req,
		validation.Field(&req.Owner, ownerRules...),
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, config.MaxNodeNameLength)),
	))
}

func (s *hierarchyService) validatePlaceRequest(req *docwatchSvc.PlaceDocumentRequest) error {
	return asValidation(validation.ValidateStruct(req,
		validation.Field(&req.Owner, ownerRules...),
		validation.Field(&req.DocID, docIDRules...),
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, config.MaxNodeNameLength)),
	))
}

// checkDepth rejects a write that would leave a node depth levels deep.
func checkDepth(parentID string, depth int) error {
	if depth <= config.MaxHierarchyDepth {
		return nil
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("nesting under %s would exceed the maximum depth of %d", parentID, config.MaxHierarchyDepth),
		ResourceType: "node",
		ResourceID:   parentID,
	}
}

func notAFolder(n models.Node) error {
	return &domain.ConflictError{
		Message:      fmt.Sprintf("%s is a document placement, not a folder", n.Base().ID),
		ResourceType: "placement",
		ResourceID:   n.Base().ID,
	}
}

// breadcrumbs turns an ancestor chain (node first) into a root-first path.
func breadcrumbs(chain []models.Node) []models.Breadcrumb {
	crumbs := make([]models.Breadcrumb, len(chain))
	for i, n := range chain {
		crumbs[len(chain)-1-i] = models.Breadcrumb{ID: n.Base().ID, Name: n.Base().Name}
	}
	return crumbs
}

// now returns the current time at storage precision.
func now() time.Time {
	return models.NormalizeRevisionTime(time.Now())
}
