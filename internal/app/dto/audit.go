package dto

import "resortbook/internal/app/audit"

type AuditCollection struct {
	Items []audit.Entry `json:"items"`
	Total int           `json:"total"`
}
