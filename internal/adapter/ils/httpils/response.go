package httpils

import (
	"time"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
)

type idResponse struct {
	ID string `json:"id"`
}

type holdRequest struct {
	RecordType      string `json:"recordType"`
	RecordNumber    string `json:"recordNumber"`
	PickupLocation  string `json:"pickupLocation,omitempty"`
	Note            string `json:"note,omitempty"`
	PatronRequestID string `json:"patronRequestId"`
}

type holdResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	ItemID  string `json:"itemId,omitempty"`
	Barcode string `json:"barcode,omitempty"`
}

func (h holdResponse) toHold() ils.Hold {
	return ils.Hold{LocalID: h.ID, LocalStatus: h.Status, ItemID: h.ItemID, Barcode: h.Barcode}
}

type patronDTO struct {
	ID          string   `json:"id"`
	PatronType  string   `json:"patronType"`
	Barcode     string   `json:"barcode,omitempty"`
	HomeLibrary string   `json:"homeLibraryCode,omitempty"`
	Names       []string `json:"names,omitempty"`
	UniqueIDs   []string `json:"uniqueIds,omitempty"`
	Blocked     bool     `json:"blocked,omitempty"`
}

func (p patronDTO) toPatron() ils.Patron {
	return ils.Patron{
		LocalID:              p.ID,
		LocalPatronType:      p.PatronType,
		LocalBarcode:         p.Barcode,
		LocalHomeLibraryCode: p.HomeLibrary,
		LocalNames:           p.Names,
		UniqueIDs:            p.UniqueIDs,
		Blocked:              p.Blocked,
	}
}

func fromPatron(p ils.Patron) patronDTO {
	return patronDTO{
		PatronType:  p.LocalPatronType,
		Barcode:     p.LocalBarcode,
		HomeLibrary: p.LocalHomeLibraryCode,
		Names:       p.LocalNames,
		UniqueIDs:   p.UniqueIDs,
	}
}

type createItemRequest struct {
	BibID           string `json:"bibId"`
	LocationCode    string `json:"locationCode"`
	Barcode         string `json:"barcode"`
	ItemType        string `json:"itemType"`
	PatronRequestID string `json:"patronRequestId"`
}

type itemDTO struct {
	ID           string     `json:"id"`
	BibID        string     `json:"bibId,omitempty"`
	Barcode      string     `json:"barcode"`
	CallNumber   string     `json:"callNumber,omitempty"`
	LocationCode string     `json:"locationCode"`
	ItemType     string     `json:"itemType"`
	Status       string     `json:"status"`
	HoldCount    int        `json:"holdCount"`
	Suppressed   bool       `json:"suppressed"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	AgencyCode   string     `json:"agencyCode,omitempty"`
}

func (i itemDTO) toItem(bibID string) ils.Item {
	return ils.Item{
		LocalID:       i.ID,
		BibID:         bibID,
		Barcode:       i.Barcode,
		CallNumber:    i.CallNumber,
		LocationCode:  i.LocationCode,
		LocalItemType: i.ItemType,
		Status:        i.Status,
		HoldCount:     i.HoldCount,
		Suppressed:    i.Suppressed,
		DueDate:       i.DueDate,
		AgencyCode:    i.AgencyCode,
	}
}
