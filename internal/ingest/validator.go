package ingest

import (
	"strconv"
	"strings"
	"time"
)

// Rejection reasons, also used as error-report and summary keys.
const (
	ReasonTooFewColumns       = "too few columns"
	ReasonExternalIDEmpty     = "externalId empty"
	ReasonNameEmpty           = "name empty"
	ReasonDuplicateExternalID = "duplicate externalId"
	ReasonQuantityInvalid     = "quantity invalid"
	ReasonExpiryInvalid       = "expiry invalid"
)

const expiryLayout = "2006-01-02"

// Record is a validated row ready for persistence. Quantity and Expiry are
// optional.
type Record struct {
	ExternalID string
	Name       string
	Quantity   *int64
	Expiry     *time.Time
}

// Outcome is the result of validating one row: either a Record or a
// rejection reason.
type Outcome struct {
	Record Record
	Reason string
}

func (o Outcome) Valid() bool {
	return o.Reason == ""
}

func invalid(reason string) Outcome {
	return Outcome{Reason: reason}
}

// ValidateRow checks one raw row against the duplicate index. Rules run in
// fixed order and the first violation wins. When the duplicate check passes
// the external id is claimed in the index immediately, before the quantity
// and expiry checks, so a later row reusing the id is rejected even if this
// row turns out to be invalid.
//
// The read-then-insert on the index is not safe under concurrent callers;
// validation for one job must run on a single logical sequence.
func ValidateRow(fields []string, index *DuplicateIndex) Outcome {
	if len(fields) != 4 {
		return invalid(ReasonTooFewColumns)
	}

	externalID := strings.TrimSpace(fields[0])
	name := strings.TrimSpace(fields[1])
	quantity := strings.TrimSpace(fields[2])
	expiry := strings.TrimSpace(fields[3])

	if externalID == "" {
		return invalid(ReasonExternalIDEmpty)
	}
	if name == "" {
		return invalid(ReasonNameEmpty)
	}

	if index.Contains(externalID) {
		return invalid(ReasonDuplicateExternalID)
	}
	index.Add(externalID)

	record := Record{ExternalID: externalID, Name: name}

	if quantity != "" {
		qty, err := strconv.ParseInt(quantity, 10, 64)
		if err != nil {
			return invalid(ReasonQuantityInvalid)
		}
		record.Quantity = &qty
	}

	if expiry != "" {
		date, err := time.Parse(expiryLayout, expiry)
		if err != nil {
			return invalid(ReasonExpiryInvalid)
		}
		record.Expiry = &date
	}

	return Outcome{Record: record}
}
