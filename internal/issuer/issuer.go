package issuer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/suspectuso/ton-mintgate/internal/controls"
	"github.com/suspectuso/ton-mintgate/internal/storage"
)

// Request asks for one new unit of a collection
type Request struct {
	Collection controls.Address
	Owner      controls.Address
	Phase      uint32
}

// Local issues units straight into the host store. The token id is a random UUID.
type Local struct {
	now func() time.Time
}

func NewLocal() *Local {
	return &Local{now: time.Now}
}

// Issue appends one unit to the collection supply inside tx
func (l *Local) Issue(ctx context.Context, tx *storage.Tx, req Request) (*storage.IssuedToken, error) {
	return tx.RecordIssued(ctx, req.Collection, req.Owner, req.Phase, uuid.NewString(), l.now())
}
