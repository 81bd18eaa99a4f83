package audit

import (
	"context"

	appaudit "resortbook/internal/app/audit"
	"resortbook/internal/app/dto"
	"resortbook/internal/app/queries"
	"resortbook/internal/app/reqctx"
)

const listAuditKey = "admin.audit.list"

type ListAuditQuery struct {
	BookingID string
	RoomID    string
	Limit     int `validate:"min=0,max=500"`
	Offset    int `validate:"min=0"`
}

func (q ListAuditQuery) Key() string          { return listAuditKey }
func (q ListAuditQuery) RequiredRole() string { return reqctx.RoleAdmin }

type ListAuditHandler struct {
	Store appaudit.Store
}

func (h *ListAuditHandler) Handle(ctx context.Context, q ListAuditQuery) (dto.AuditCollection, error) {
	limit := q.Limit
	if limit == 0 {
		limit = 100
	}
	items, total, err := h.Store.List(ctx, appaudit.ListParams{
		BookingID: q.BookingID,
		RoomID:    q.RoomID,
		Limit:     limit,
		Offset:    q.Offset,
	})
	if err != nil {
		return dto.AuditCollection{}, err
	}
	if items == nil {
		items = []appaudit.Entry{}
	}
	return dto.AuditCollection{Items: items, Total: total}, nil
}

var _ queries.Handler[ListAuditQuery, dto.AuditCollection] = (*ListAuditHandler)(nil)
