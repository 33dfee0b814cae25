// Package crud coordinates admin mutations against the store.
//
// Each record identity carries at most one in-flight operation. A
// second mutation for the same identity is rejected with an
// OPERATION_PENDING error before the store is touched, so a repeated
// delete never reaches the database twice.
package crud

import (
	"sync"

	"github.com/shahriarsany/portfolio/backend/internal/errors"
	"github.com/shahriarsany/portfolio/backend/internal/logging"
	"github.com/shahriarsany/portfolio/backend/internal/models"
)

// Store is the persistence surface the controller drives.
type Store interface {
	DeleteLead(id string) error
	DeleteVisitor(id string) error
	CreateBlogPost(post *models.BlogPost) error
	UpdateBlogPost(post *models.BlogPost) error
	DeleteBlogPost(id string) error
}

// View is a snapshot holder the controller updates optimistically
// after a confirmed delete. *ViewState satisfies this.
type View interface {
	Remove(id string) bool
}

// Controller serializes mutations per record identity.
type Controller struct {
	store  Store
	logger *logging.Logger

	mu      sync.Mutex
	pending map[string]struct{}

	viewMu sync.RWMutex
	views  map[string]attachedView
}

type attachedView struct {
	view     View
	onChange func()
}

// NewController creates a Controller over the given store.
func NewController(store Store, logger *logging.Logger) *Controller {
	return &Controller{
		store:   store,
		logger:  logger,
		pending: make(map[string]struct{}),
		views:   make(map[string]attachedView),
	}
}

// AttachView registers the snapshot holder for a collection. After a
// successful delete the record is dropped from the view and onChange
// fires, so subscribers see the removal without waiting for the next
// full snapshot.
func (c *Controller) AttachView(collection string, view View, onChange func()) {
	c.viewMu.Lock()
	c.views[collection] = attachedView{view: view, onChange: onChange}
	c.viewMu.Unlock()
}

func (c *Controller) dropFromView(collection, id string) {
	c.viewMu.RLock()
	entry, ok := c.views[collection]
	c.viewMu.RUnlock()
	if !ok {
		return
	}
	if entry.view.Remove(id) && entry.onChange != nil {
		entry.onChange()
	}
}

// run executes op while holding the pending mark for key. The mark is
// released when op returns, whether it succeeded or not.
func (c *Controller) run(key string, op func() error) error {
	c.mu.Lock()
	if _, busy := c.pending[key]; busy {
		c.mu.Unlock()
		return errors.New(errors.ErrOperationPending, "operation already in progress for "+key)
	}
	c.pending[key] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
	}()
	return op()
}

// DeleteLead removes a contact submission.
func (c *Controller) DeleteLead(id string) error {
	err := c.run("contacts/"+id, func() error { return c.store.DeleteLead(id) })
	if err != nil {
		c.logger.Warn("lead delete failed", map[string]interface{}{"id": id, "code": errors.CodeOf(err)})
		return err
	}
	c.dropFromView("contacts", id)
	c.logger.Info("lead deleted", map[string]interface{}{"id": id})
	return nil
}

// DeleteVisitor removes a tracked visit.
func (c *Controller) DeleteVisitor(id string) error {
	err := c.run("visitors/"+id, func() error { return c.store.DeleteVisitor(id) })
	if err != nil {
		c.logger.Warn("visitor delete failed", map[string]interface{}{"id": id, "code": errors.CodeOf(err)})
		return err
	}
	c.dropFromView("visitors", id)
	c.logger.Info("visitor deleted", map[string]interface{}{"id": id})
	return nil
}

// CreateBlogPost stores a new post. The store assigns the ID, slug and
// timestamps, so creation is never contended and takes no pending mark.
func (c *Controller) CreateBlogPost(post *models.BlogPost) error {
	if err := c.store.CreateBlogPost(post); err != nil {
		return err
	}
	c.logger.Info("blog post created", map[string]interface{}{"id": post.ID.String(), "slug": post.Slug})
	return nil
}

// UpdateBlogPost writes changed fields for an existing post.
func (c *Controller) UpdateBlogPost(post *models.BlogPost) error {
	id := post.ID.String()
	err := c.run("blogs/"+id, func() error { return c.store.UpdateBlogPost(post) })
	if err != nil {
		return err
	}
	c.logger.Info("blog post updated", map[string]interface{}{"id": id})
	return nil
}

// DeleteBlogPost removes a post.
func (c *Controller) DeleteBlogPost(id string) error {
	err := c.run("blogs/"+id, func() error { return c.store.DeleteBlogPost(id) })
	if err != nil {
		c.logger.Warn("blog delete failed", map[string]interface{}{"id": id, "code": errors.CodeOf(err)})
		return err
	}
	c.dropFromView("blogs", id)
	c.logger.Info("blog post deleted", map[string]interface{}{"id": id})
	return nil
}
