// Package dummy is an in-memory host system used for sandbox hosts and tests.
package dummy

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
)

// Operation names, used by FailNext.
const (
	OpPlaceHold       = "placeHoldRequest"
	OpGetHold         = "getHold"
	OpGetPatron       = "getPatronByLocalId"
	OpFindPatron      = "findVirtualPatron"
	OpCreatePatron    = "createPatron"
	OpUpdatePatron    = "updatePatron"
	OpPatronAuth      = "patronAuth"
	OpCreateBib       = "createBib"
	OpCreateItem      = "createItem"
	OpGetItems        = "getItems"
	OpGetItem         = "getItem"
	OpUpdateItem      = "updateItemStatus"
	OpCheckOut        = "checkOutItemToPatron"
	OpDeleteItem      = "deleteItem"
	OpDeleteBib       = "deleteBib"
	initialHoldStatus = "PLACED"
	virtualItemStatus = "Transferred"
)

// Client configuration keys read from HostLms.ClientConfig.
const (
	ConfigItemsPerBib  = "items_per_bib"
	ConfigLocationCode = "location_code"
	ConfigItemType     = "item_type"
)

// Client is a concurrency-safe in-memory ils.Client.
type Client struct {
	host   domain.HostLms
	table  *ils.StatusTable
	log    *slog.Logger
	mu     sync.Mutex
	seq    int
	bibs   map[string]ils.Bib
	items  map[string]ils.Item
	byBib  map[string][]string
	people map[string]ils.Patron
	holds  map[string]ils.Hold
	fail   map[string][]error

	itemsPerBib  int
	locationCode string
	itemType     string
}

var _ ils.Client = (*Client)(nil)

// New creates an empty Client for host.
func New(host domain.HostLms, log *slog.Logger) *Client {
	c := &Client{
		host:         host,
		table:        ils.NewStatusTable(host),
		log:          log.With("adapter", "dummy", "host_lms", host.Code),
		bibs:         make(map[string]ils.Bib),
		items:        make(map[string]ils.Item),
		byBib:        make(map[string][]string),
		people:       make(map[string]ils.Patron),
		holds:        make(map[string]ils.Hold),
		fail:         make(map[string][]error),
		locationCode: host.ClientConfig[ConfigLocationCode],
		itemType:     host.ClientConfig[ConfigItemType],
	}
	if n, err := strconv.Atoi(host.ClientConfig[ConfigItemsPerBib]); err == nil && n > 0 {
		c.itemsPerBib = n
	}
	return c
}

// NewConstructor returns an ils.Constructor producing dummy clients.
func NewConstructor(log *slog.Logger) ils.Constructor {
	return func(host domain.HostLms) (ils.Client, error) {
		return New(host, log), nil
	}
}

func (c *Client) HostLms() domain.HostLms { return c.host }

// ---------------------------------------------------------------------------
// Operator hooks
// ---------------------------------------------------------------------------

// AddItem seeds an item under bibID.
func (c *Client) AddItem(bibID string, item ils.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item.BibID = bibID
	if _, ok := c.items[item.LocalID]; !ok {
		c.byBib[bibID] = append(c.byBib[bibID], item.LocalID)
	}
	c.items[item.LocalID] = item
}

// AddPatron seeds a patron.
func (c *Client) AddPatron(p ils.Patron) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.people[p.LocalID] = p
}

// SetItemStatus overwrites the local status of an item.
func (c *Client) SetItemStatus(itemID, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[itemID]
	if !ok {
		return ils.NotFound(c.host.Code, "setItemStatus", "item "+itemID)
	}
	item.Status = status
	c.items[itemID] = item
	return nil
}

// SetHoldStatus overwrites the local status of a hold.
func (c *Client) SetHoldStatus(holdID, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.holds[holdID]
	if !ok {
		return ils.NotFound(c.host.Code, "setHoldStatus", "hold "+holdID)
	}
	h.LocalStatus = status
	c.holds[holdID] = h
	return nil
}

// RetargetHold moves a hold to a different item, as a supplier does when it
// substitutes a copy.
func (c *Client) RetargetHold(holdID, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.holds[holdID]
	if !ok {
		return ils.NotFound(c.host.Code, "retargetHold", "hold "+holdID)
	}
	item, ok := c.items[itemID]
	if !ok {
		return ils.NotFound(c.host.Code, "retargetHold", "item "+itemID)
	}
	h.ItemID = item.LocalID
	h.Barcode = item.Barcode
	c.holds[holdID] = h
	return nil
}

// FailNext makes the next call of op return err.
func (c *Client) FailNext(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail[op] = append(c.fail[op], err)
}

// Holds returns a snapshot of every hold.
func (c *Client) Holds() []ils.Hold {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ils.Hold, 0, len(c.holds))
	for _, h := range c.holds {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b ils.Hold) int { return compareIDs(a.LocalID, b.LocalID) })
	return out
}

// Patrons returns a snapshot of every patron.
func (c *Client) Patrons() []ils.Patron {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ils.Patron, 0, len(c.people))
	for _, p := range c.people {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b ils.Patron) int { return compareIDs(a.LocalID, b.LocalID) })
	return out
}

// HasItem reports whether itemID exists.
func (c *Client) HasItem(itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[itemID]
	return ok
}

// HasBib reports whether bibID exists.
func (c *Client) HasBib(bibID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.bibs[bibID]
	return ok
}

// ---------------------------------------------------------------------------
// ils.Client
// ---------------------------------------------------------------------------

func (c *Client) PlaceHoldRequest(ctx context.Context, cmd ils.PlaceHoldCommand) (ils.LocalRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpPlaceHold); err != nil {
		return ils.LocalRequest{}, err
	}
	if _, ok := c.people[cmd.PatronLocalID]; !ok {
		return ils.LocalRequest{}, ils.NotFound(c.host.Code, OpPlaceHold, "patron "+cmd.PatronLocalID)
	}

	h := ils.Hold{LocalID: c.nextID("h"), LocalStatus: initialHoldStatus}
	if cmd.RecordType == ils.RecordTypeItem {
		item, ok := c.items[cmd.RecordNumber]
		if !ok {
			return ils.LocalRequest{}, ils.NotFound(c.host.Code, OpPlaceHold, "item "+cmd.RecordNumber)
		}
		h.ItemID = item.LocalID
		h.Barcode = item.Barcode
		item.HoldCount++
		c.items[item.LocalID] = item
	}
	c.holds[h.LocalID] = h

	c.log.DebugContext(ctx, "hold placed",
		slog.String("hold_id", h.LocalID),
		slog.String("record", cmd.RecordNumber),
		slog.String("patron_request_id", cmd.PatronRequestID.String()),
	)
	return ils.LocalRequest{LocalID: h.LocalID, LocalStatus: h.LocalStatus}, nil
}

func (c *Client) GetHold(_ context.Context, holdID string) (ils.Hold, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpGetHold); err != nil {
		return ils.Hold{}, err
	}
	h, ok := c.holds[holdID]
	if !ok {
		return ils.Hold{}, ils.NotFound(c.host.Code, OpGetHold, "hold "+holdID)
	}
	return h, nil
}

func (c *Client) GetPatronByLocalID(_ context.Context, localID string) (ils.Patron, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpGetPatron); err != nil {
		return ils.Patron{}, err
	}
	p, ok := c.people[localID]
	if !ok {
		return ils.Patron{}, ils.NotFound(c.host.Code, OpGetPatron, "patron "+localID)
	}
	return p, nil
}

func (c *Client) FindVirtualPatron(_ context.Context, uniqueID string) (ils.Patron, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpFindPatron); err != nil {
		return ils.Patron{}, err
	}
	for _, p := range c.people {
		if slices.Contains(p.UniqueIDs, uniqueID) {
			return p, nil
		}
	}
	return ils.Patron{}, ils.NotFound(c.host.Code, OpFindPatron, "patron "+uniqueID)
}

func (c *Client) CreatePatron(_ context.Context, patron ils.Patron) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpCreatePatron); err != nil {
		return "", err
	}
	patron.LocalID = c.nextID("p")
	c.people[patron.LocalID] = patron
	return patron.LocalID, nil
}

func (c *Client) UpdatePatron(_ context.Context, localID, patronType string) (ils.Patron, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpUpdatePatron); err != nil {
		return ils.Patron{}, err
	}
	p, ok := c.people[localID]
	if !ok {
		return ils.Patron{}, ils.NotFound(c.host.Code, OpUpdatePatron, "patron "+localID)
	}
	p.LocalPatronType = patronType
	c.people[localID] = p
	return p, nil
}

func (c *Client) PatronAuth(_ context.Context, _, principal, _ string) (ils.Patron, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpPatronAuth); err != nil {
		return ils.Patron{}, err
	}
	for _, p := range c.people {
		if p.LocalBarcode == principal || p.LocalID == principal {
			return p, nil
		}
	}
	return ils.Patron{}, ils.NotFound(c.host.Code, OpPatronAuth, "patron "+principal)
}

func (c *Client) CreateBib(_ context.Context, bib ils.Bib) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpCreateBib); err != nil {
		return "", err
	}
	id := c.nextID("b")
	c.bibs[id] = bib
	return id, nil
}

func (c *Client) CreateItem(_ context.Context, cmd ils.CreateItemCommand) (ils.CreatedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpCreateItem); err != nil {
		return ils.CreatedItem{}, err
	}
	if _, ok := c.bibs[cmd.BibID]; !ok {
		return ils.CreatedItem{}, ils.NotFound(c.host.Code, OpCreateItem, "bib "+cmd.BibID)
	}
	item := ils.Item{
		LocalID:       c.nextID("i"),
		BibID:         cmd.BibID,
		Barcode:       cmd.Barcode,
		LocationCode:  cmd.LocationCode,
		LocalItemType: cmd.CanonicalItemType,
		Status:        virtualItemStatus,
	}
	c.items[item.LocalID] = item
	c.byBib[cmd.BibID] = append(c.byBib[cmd.BibID], item.LocalID)
	return ils.CreatedItem{LocalID: item.LocalID, LocalStatus: item.Status}, nil
}

func (c *Client) GetItems(_ context.Context, bibID string) ([]ils.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpGetItems); err != nil {
		return nil, err
	}
	if _, ok := c.byBib[bibID]; !ok && c.itemsPerBib > 0 {
		c.generateItems(bibID)
	}
	ids := c.byBib[bibID]
	items := make([]ils.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, c.items[id])
	}
	return items, nil
}

func (c *Client) GetItem(_ context.Context, itemID string) (ils.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpGetItem); err != nil {
		return ils.Item{}, err
	}
	item, ok := c.items[itemID]
	if !ok {
		return ils.Item{}, ils.NotFound(c.host.Code, OpGetItem, "item "+itemID)
	}
	return item, nil
}

func (c *Client) UpdateItemStatus(_ context.Context, itemID string, status domain.ItemStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpUpdateItem); err != nil {
		return err
	}
	item, ok := c.items[itemID]
	if !ok {
		return nil
	}
	if local, found := c.table.LocalItemStatus(status); found {
		item.Status = local
		c.items[itemID] = item
	}
	return nil
}

func (c *Client) CheckOutItemToPatron(_ context.Context, itemID, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpCheckOut); err != nil {
		return err
	}
	item, ok := c.items[itemID]
	if !ok {
		return nil
	}
	item.Status = "Out"
	c.items[itemID] = item
	return nil
}

func (c *Client) DeleteItem(_ context.Context, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpDeleteItem); err != nil {
		return err
	}
	item, ok := c.items[itemID]
	if !ok {
		return nil
	}
	delete(c.items, itemID)
	c.byBib[item.BibID] = slices.DeleteFunc(c.byBib[item.BibID], func(id string) bool { return id == itemID })
	return nil
}

func (c *Client) DeleteBib(_ context.Context, bibID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(OpDeleteBib); err != nil {
		return err
	}
	delete(c.bibs, bibID)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers (callers hold c.mu)
// ---------------------------------------------------------------------------

func (c *Client) takeFailure(op string) error {
	queue := c.fail[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	c.fail[op] = queue[1:]
	return err
}

func (c *Client) nextID(prefix string) string {
	c.seq++
	return fmt.Sprintf("%s-%s%d", c.host.Code, prefix, c.seq)
}

func (c *Client) generateItems(bibID string) {
	for n := 1; n <= c.itemsPerBib; n++ {
		item := ils.Item{
			LocalID:       fmt.Sprintf("%s-%d", bibID, n),
			BibID:         bibID,
			Barcode:       fmt.Sprintf("%s-%s-%d", c.host.Code, bibID, n),
			LocationCode:  c.locationCode,
			LocalItemType: c.itemType,
			Status:        "Available",
		}
		c.items[item.LocalID] = item
		c.byBib[bibID] = append(c.byBib[bibID], item.LocalID)
	}
}

func compareIDs(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
